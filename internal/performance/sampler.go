// Package performance records equity samples and derives return and
// drawdown statistics from them.
package performance

import (
	"math"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
)

// SampleMode decides which Record calls are kept.
type SampleMode string

const (
	// SampleModeFills keeps every call; callers invoke Record on fills.
	SampleModeFills SampleMode = "fills"
	// SampleModeAll keeps every call.
	SampleModeAll SampleMode = "all"
	// SampleModeOnPosition keeps a sample only while a position is open.
	SampleModeOnPosition SampleMode = "on_position"
	// SampleModeEveryNSeconds keeps at most one sample per interval.
	SampleModeEveryNSeconds SampleMode = "every_n_seconds"

	DefaultSampleInterval = 10 * time.Second

	// returns are skipped when the prior equity is below this.
	minEquity = 1e-6
)

// ParseSampleMode validates a configured mode name.
func ParseSampleMode(s string) (SampleMode, error) {
	switch mode := SampleMode(s); mode {
	case SampleModeFills, SampleModeAll, SampleModeOnPosition, SampleModeEveryNSeconds:
		return mode, nil
	case "":
		return SampleModeFills, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidSampleMode, "unknown sample mode %q", s)
	}
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithMode sets the sampling mode. Unknown modes reject every non-forced sample.
func WithMode(mode SampleMode) Option {
	return func(s *Sampler) {
		s.mode = mode
	}
}

// WithInterval sets the spacing used by SampleModeEveryNSeconds.
func WithInterval(interval time.Duration) Option {
	return func(s *Sampler) {
		s.interval = interval
	}
}

// WithClock overrides the time source for samples recorded without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// RecordOption adjusts a single Record call.
type RecordOption func(*recordOptions)

type recordOptions struct {
	timestamp optional.Option[time.Time]
	force     bool
}

// WithTimestamp records the sample at ts instead of now.
func WithTimestamp(ts time.Time) RecordOption {
	return func(o *recordOptions) {
		o.timestamp = optional.Some(ts)
	}
}

// WithForce bypasses the sampling rules.
func WithForce() RecordOption {
	return func(o *recordOptions) {
		o.force = true
	}
}

// Sampler keeps an append-only equity curve.
type Sampler struct {
	mu         sync.Mutex
	mode       SampleMode
	interval   time.Duration
	points     []types.EquityPoint
	lastSample optional.Option[time.Time]
	now        func() time.Time
}

// NewSampler creates a sampler. A positive startingEquity is force-recorded
// as the baseline sample.
func NewSampler(startingEquity float64, opts ...Option) *Sampler {
	s := &Sampler{
		mu:         sync.Mutex{},
		mode:       SampleModeFills,
		interval:   DefaultSampleInterval,
		points:     make([]types.EquityPoint, 0),
		lastSample: optional.None[time.Time](),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if startingEquity > 0 {
		s.Record(startingEquity, false, WithForce())
	}

	return s
}

// Mode returns the configured sampling mode.
func (s *Sampler) Mode() SampleMode {
	return s.mode
}

// Record offers an equity sample and reports whether it was kept.
func (s *Sampler) Record(equity float64, positionOpen bool, opts ...RecordOption) bool {
	o := recordOptions{timestamp: optional.None[time.Time](), force: false}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := o.timestamp.TakeOrElse(s.now)

	if !o.force && !s.accepts(ts, positionOpen) {
		return false
	}

	s.points = append(s.points, types.EquityPoint{Timestamp: ts, Equity: equity})
	s.lastSample = optional.Some(ts)

	return true
}

func (s *Sampler) accepts(ts time.Time, positionOpen bool) bool {
	switch s.mode {
	case SampleModeFills, SampleModeAll:
		return true
	case SampleModeOnPosition:
		return positionOpen
	case SampleModeEveryNSeconds:
		last, err := s.lastSample.Take()
		if err != nil {
			return true
		}

		return ts.Sub(last) >= s.interval
	default:
		return false
	}
}

// EquityCurve returns a copy of the recorded samples.
func (s *Sampler) EquityCurve() []types.EquityPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.EquityPoint, len(s.points))
	copy(out, s.points)

	return out
}

// Len returns the number of recorded samples.
func (s *Sampler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.points)
}

// Report computes return and drawdown statistics. When annualization is set,
// Sharpe and Sortino are scaled by its square root.
func (s *Sampler) Report(annualization optional.Option[float64]) types.PerformanceReport {
	points := s.EquityCurve()

	report := types.PerformanceReport{
		Samples:           len(points),
		ReturnsCount:      0,
		StartEquity:       0,
		EndEquity:         0,
		MeanReturn:        0,
		StdReturn:         0,
		Sharpe:            0,
		Sortino:           0,
		CurrentDrawdown:   0,
		MaxDrawdown:       0,
		MaxDrawdownPeak:   time.Time{},
		MaxDrawdownTrough: time.Time{},
	}
	if len(points) == 0 {
		return report
	}

	report.StartEquity = points[0].Equity
	report.EndEquity = points[len(points)-1].Equity

	applyDrawdown(&report, points)
	applyReturns(&report, Returns(points), annualization)

	return report
}

// Returns computes simple step returns, skipping steps whose prior equity is
// effectively zero.
func Returns(points []types.EquityPoint) []float64 {
	out := make([]float64, 0, len(points))

	for i := 1; i < len(points); i++ {
		prev := points[i-1].Equity
		if prev < minEquity {
			continue
		}

		out = append(out, points[i].Equity/prev-1)
	}

	return out
}

func applyReturns(report *types.PerformanceReport, returns []float64, annualization optional.Option[float64]) {
	report.ReturnsCount = len(returns)
	if len(returns) == 0 {
		return
	}

	scale := 1.0
	if factor, err := annualization.Take(); err == nil && factor > 0 {
		scale = math.Sqrt(factor)
	}

	report.MeanReturn = mean(returns)
	report.StdReturn = sampleStd(returns)

	if report.StdReturn != 0 {
		report.Sharpe = report.MeanReturn / report.StdReturn * scale
	}

	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	if downStd := sampleStd(downside); downStd != 0 {
		report.Sortino = report.MeanReturn / downStd * scale
	}
}

func applyDrawdown(report *types.PerformanceReport, points []types.EquityPoint) {
	peak := points[0].Equity
	peakTS := points[0].Timestamp
	report.MaxDrawdownPeak = peakTS
	report.MaxDrawdownTrough = peakTS

	for _, p := range points {
		if p.Equity > peak {
			peak = p.Equity
			peakTS = p.Timestamp
		}

		denom := peak
		if denom == 0 {
			denom = 1e-12
		}

		drawdown := (peak - p.Equity) / denom
		if drawdown > report.MaxDrawdown {
			report.MaxDrawdown = drawdown
			report.MaxDrawdownPeak = peakTS
			report.MaxDrawdownTrough = p.Timestamp
		}

		report.CurrentDrawdown = drawdown
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// sampleStd is the n-1 standard deviation; 0 with fewer than two values.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}

	return math.Sqrt(sq / float64(len(values)-1))
}
