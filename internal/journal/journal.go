// Package journal persists order submissions, fills and equity samples of a
// runtime session in DuckDB.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

// ScopePortfolio is the equity scope of the portfolio-wide curve.
const ScopePortfolio = "portfolio"

// Recorder receives journal events from the order path and the portfolio.
type Recorder interface {
	RecordOrder(ctx context.Context, event types.OrderEvent) error
	RecordFill(ctx context.Context, event types.FillEvent) error
	RecordEquity(ctx context.Context, scope string, point types.EquityPoint) error
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		run_id TEXT,
		ts TIMESTAMP,
		strategy TEXT,
		order_id TEXT,
		symbol TEXT,
		side TEXT,
		quantity BIGINT,
		price DOUBLE,
		price_type TEXT,
		status TEXT,
		reason TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS fills (
		run_id TEXT,
		ts TIMESTAMP,
		strategy TEXT,
		order_id TEXT,
		symbol TEXT,
		side TEXT,
		quantity BIGINT,
		price DOUBLE,
		realized_delta DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS equity (
		run_id TEXT,
		ts TIMESTAMP,
		scope TEXT,
		equity DOUBLE
	)`,
}

// Journal is a DuckDB-backed Recorder. Every Journal instance is one run; the
// query methods only return rows of the current run.
type Journal struct {
	db    *sql.DB
	sq    squirrel.StatementBuilderType
	runID string
	path  string
	mu    sync.Mutex
	log   *logger.Logger
}

// Open opens or creates the journal database at path. An empty path keeps the
// journal in memory.
func Open(path string, log *logger.Logger) (*Journal, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to create journal directory", err)
		}

		dsn = path
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to open journal database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to connect to journal database", err)
	}

	j := &Journal{
		db:    db,
		sq:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		runID: uuid.NewString(),
		path:  path,
		mu:    sync.Mutex{},
		log:   log.Named("journal"),
	}

	if err := j.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	j.log.Info("journal opened", zap.String("path", dsn), zap.String("run_id", j.runID))

	return j, nil
}

// RunID identifies the rows written by this instance.
func (j *Journal) RunID() string {
	return j.runID
}

// Path returns the database file, or "" for an in-memory journal.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) initialize() error {
	for _, stmt := range schema {
		if _, err := j.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to create journal table", err)
		}
	}

	query, args, err := j.sq.Insert("runs").Columns("run_id", "started_at").Values(j.runID, time.Now()).ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to build run insert", err)
	}

	if _, err := j.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to register run", err)
	}

	return nil
}

func (j *Journal) RecordOrder(ctx context.Context, event types.OrderEvent) error {
	insert := j.sq.Insert("orders").
		Columns("run_id", "ts", "strategy", "order_id", "symbol", "side", "quantity", "price", "price_type", "status", "reason").
		Values(j.runID, event.Timestamp, event.Strategy, event.OrderID, event.Symbol, string(event.Side),
			event.Quantity, event.Price, string(event.PriceType), string(event.Status), event.Reason)

	return j.exec(ctx, insert, "order")
}

func (j *Journal) RecordFill(ctx context.Context, event types.FillEvent) error {
	insert := j.sq.Insert("fills").
		Columns("run_id", "ts", "strategy", "order_id", "symbol", "side", "quantity", "price", "realized_delta").
		Values(j.runID, event.Timestamp, event.Strategy, event.OrderID, event.Symbol, string(event.Side),
			event.Quantity, event.Price, event.RealizedDelta)

	return j.exec(ctx, insert, "fill")
}

func (j *Journal) RecordEquity(ctx context.Context, scope string, point types.EquityPoint) error {
	insert := j.sq.Insert("equity").
		Columns("run_id", "ts", "scope", "equity").
		Values(j.runID, point.Timestamp, scope, point.Equity)

	return j.exec(ctx, insert, "equity point")
}

func (j *Journal) exec(ctx context.Context, insert squirrel.InsertBuilder, what string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return errors.New(errors.ErrCodeJournalUnavailable, "journal not initialized")
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to build %s insert", what)
	}

	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to insert %s", what)
	}

	return nil
}

// Orders returns this run's order events, oldest first. An empty strategy
// returns every strategy's events.
func (j *Journal) Orders(ctx context.Context, strategy string) ([]types.OrderEvent, error) {
	query := j.sq.
		Select("ts", "strategy", "order_id", "symbol", "side", "quantity", "price", "price_type", "status", "reason").
		From("orders").
		Where(j.filter(strategy)).
		OrderBy("ts ASC")

	rows, err := j.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]types.OrderEvent, 0)

	for rows.Next() {
		var event types.OrderEvent

		var side, priceType, status string

		err := rows.Scan(&event.Timestamp, &event.Strategy, &event.OrderID, &event.Symbol, &side,
			&event.Quantity, &event.Price, &priceType, &status, &event.Reason)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan order row", err)
		}

		event.Side = types.Side(side)
		event.PriceType = types.PriceType(priceType)
		event.Status = types.OrderEventStatus(status)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read order rows", err)
	}

	return events, nil
}

// Fills returns this run's fills, oldest first. An empty strategy returns
// every strategy's fills.
func (j *Journal) Fills(ctx context.Context, strategy string) ([]types.FillEvent, error) {
	query := j.sq.
		Select("ts", "strategy", "order_id", "symbol", "side", "quantity", "price", "realized_delta").
		From("fills").
		Where(j.filter(strategy)).
		OrderBy("ts ASC")

	rows, err := j.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fills := make([]types.FillEvent, 0)

	for rows.Next() {
		var fill types.FillEvent

		var side string

		err := rows.Scan(&fill.Timestamp, &fill.Strategy, &fill.OrderID, &fill.Symbol, &side,
			&fill.Quantity, &fill.Price, &fill.RealizedDelta)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan fill row", err)
		}

		fill.Side = types.Side(side)
		fills = append(fills, fill)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read fill rows", err)
	}

	return fills, nil
}

// EquityCurve returns this run's samples for scope, oldest first.
func (j *Journal) EquityCurve(ctx context.Context, scope string) ([]types.EquityPoint, error) {
	query := j.sq.
		Select("ts", "equity").
		From("equity").
		Where(squirrel.And{
			squirrel.Eq{"run_id": j.runID},
			squirrel.Eq{"scope": scope},
		}).
		OrderBy("ts ASC")

	rows, err := j.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]types.EquityPoint, 0)

	for rows.Next() {
		var point types.EquityPoint
		if err := rows.Scan(&point.Timestamp, &point.Equity); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan equity row", err)
		}

		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read equity rows", err)
	}

	return points, nil
}

// ExportParquet writes this run's orders, fills and equity to
// dir/{orders,fills,equity}.parquet.
func (j *Journal) ExportParquet(dir string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return errors.New(errors.ErrCodeJournalUnavailable, "journal not initialized")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to create export directory", err)
	}

	for _, table := range []string{"orders", "fills", "equity"} {
		target := filepath.Join(dir, table+".parquet")
		stmt := fmt.Sprintf(
			"COPY (SELECT * FROM %s WHERE run_id = '%s' ORDER BY ts ASC) TO '%s' (FORMAT PARQUET)",
			table, j.runID, strings.ReplaceAll(target, "'", "''"),
		)

		if _, err := j.db.Exec(stmt); err != nil {
			return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to export %s", table)
		}
	}

	j.log.Info("journal exported", zap.String("dir", dir))

	return nil
}

// Close releases the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil
	}

	if err := j.db.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to close journal", err)
	}

	j.db = nil

	return nil
}

func (j *Journal) filter(strategy string) squirrel.Sqlizer {
	if strategy == "" {
		return squirrel.Eq{"run_id": j.runID}
	}

	return squirrel.And{
		squirrel.Eq{"run_id": j.runID},
		squirrel.Eq{"strategy": strategy},
	}
}

func (j *Journal) query(ctx context.Context, query squirrel.SelectBuilder) (*sql.Rows, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil, errors.New(errors.ErrCodeJournalUnavailable, "journal not initialized")
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query journal", err)
	}

	return rows, nil
}
