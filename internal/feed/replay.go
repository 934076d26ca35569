package feed

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ReplayConfig configures a CSV replay.
type ReplayConfig struct {
	// Path is a CSV file with symbol, price and ts columns.
	Path string
	// Speed scales the recorded gaps between ticks. 0 replays as fast as
	// possible; 1 is real time.
	Speed float64
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// ReplayResult summarizes a finished replay.
type ReplayResult struct {
	Total     int `json:"total" yaml:"total"`
	Delivered int `json:"delivered" yaml:"delivered"`
	Dropped   int `json:"dropped" yaml:"dropped"`
}

// Replayer pushes recorded ticks through a Sink in timestamp order. Rows are
// loaded with DuckDB's CSV reader.
type Replayer struct {
	cfg ReplayConfig
	sq  squirrel.StatementBuilderType
	log *logger.Logger
}

// NewReplayer creates a replayer.
func NewReplayer(cfg ReplayConfig, log *logger.Logger) *Replayer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Replayer{
		cfg: cfg,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log.Named("replay"),
	}
}

// Load reads every tick of the file, ordered by timestamp.
func (r *Replayer) Load(ctx context.Context) ([]types.Tick, error) {
	if r.cfg.Path == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "replay path is empty")
	}

	if _, err := os.Stat(r.cfg.Path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "replay file %s not found", r.cfg.Path)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeReplayFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	source := fmt.Sprintf("read_csv_auto('%s', header = true, delim = ',', all_varchar = true)", strings.ReplaceAll(r.cfg.Path, "'", "''"))

	query, args, err := r.sq.
		Select("symbol", "price", "ts").
		From(source).
		OrderBy("ts").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeReplayFailed, "failed to build replay query", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeReplayFailed, err, "failed to read %s", r.cfg.Path)
	}
	defer rows.Close()

	ticks := make([]types.Tick, 0)
	skipped := 0

	for rows.Next() {
		var symbol, price, ts sql.NullString
		if err := rows.Scan(&symbol, &price, &ts); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan replay row", err)
		}

		tick, ok := parseReplayRow(symbol.String, price.String, ts.String)
		if !ok {
			skipped++

			continue
		}

		ticks = append(ticks, tick)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeReplayFailed, "failed to iterate replay rows", err)
	}

	// string ordering is only exact for a uniform timestamp format
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})

	if skipped > 0 {
		r.log.Warn("skipped malformed replay rows", zap.Int("count", skipped))
	}

	return ticks, nil
}

// Run loads the file and pushes every tick into sink.
func (r *Replayer) Run(ctx context.Context, sink Sink) (ReplayResult, error) {
	ticks, err := r.Load(ctx)
	if err != nil {
		return ReplayResult{}, err
	}

	result := ReplayResult{Total: len(ticks), Delivered: 0, Dropped: 0}

	var bar *progressbar.ProgressBar
	if r.cfg.Progress != nil {
		bar = progressbar.NewOptions(len(ticks),
			progressbar.OptionSetWriter(r.cfg.Progress),
			progressbar.OptionSetDescription("Replaying "+r.cfg.Path),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	r.log.Info("replay started", zap.String("path", r.cfg.Path), zap.Int("ticks", len(ticks)), zap.Float64("speed", r.cfg.Speed))

	for i, tick := range ticks {
		if i > 0 && r.cfg.Speed > 0 {
			gap := time.Duration(float64(tick.Timestamp.Sub(ticks[i-1].Timestamp)) / r.cfg.Speed)
			if err := sleep(ctx, gap); err != nil {
				return result, nil
			}
		}

		if ctx.Err() != nil {
			return result, nil
		}

		if sink(tick) {
			result.Delivered++
		} else {
			result.Dropped++
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	r.log.Info("replay finished",
		zap.Int("delivered", result.Delivered),
		zap.Int("dropped", result.Dropped),
	)

	return result, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseReplayRow(symbol, price, ts string) (types.Tick, bool) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return types.Tick{}, false
	}

	p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return types.Tick{}, false
	}

	t, ok := parseTimestamp(strings.TrimSpace(ts))
	if !ok {
		return types.Tick{}, false
	}

	return types.Tick{Symbol: symbol, LastPrice: p, Timestamp: t, Raw: nil}, true
}

// parseTimestamp accepts RFC 3339, DuckDB-style timestamps and epoch
// milliseconds.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
