package performance

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SamplerTestSuite struct {
	suite.Suite
	base time.Time
}

func TestSamplerSuite(t *testing.T) {
	suite.Run(t, new(SamplerTestSuite))
}

func (s *SamplerTestSuite) SetupTest() {
	s.base = time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
}

func (s *SamplerTestSuite) at(sec int) RecordOption {
	return WithTimestamp(s.base.Add(time.Duration(sec) * time.Second))
}

// ============================================================================
// Sampling modes
// ============================================================================

func (s *SamplerTestSuite) TestBaselineRecordedForPositiveStartingEquity() {
	sampler := NewSampler(1000, WithMode(SampleModeOnPosition))
	s.Equal(1, sampler.Len())
	s.Equal(1000.0, sampler.EquityCurve()[0].Equity)

	s.Equal(0, NewSampler(0).Len())
}

func (s *SamplerTestSuite) TestFillsAndAllAcceptEverything() {
	for _, mode := range []SampleMode{SampleModeFills, SampleModeAll} {
		sampler := NewSampler(0, WithMode(mode))
		s.True(sampler.Record(1, false))
		s.True(sampler.Record(2, true))
		s.Equal(2, sampler.Len())
	}
}

func (s *SamplerTestSuite) TestOnPosition() {
	sampler := NewSampler(0, WithMode(SampleModeOnPosition))
	s.False(sampler.Record(1, false))
	s.True(sampler.Record(2, true))
	s.Equal(1, sampler.Len())
}

func (s *SamplerTestSuite) TestEveryNSeconds() {
	sampler := NewSampler(0, WithMode(SampleModeEveryNSeconds), WithInterval(5*time.Second))

	s.True(sampler.Record(1, false, s.at(0)))
	s.False(sampler.Record(2, false, s.at(3)))
	s.True(sampler.Record(3, false, s.at(5)))
	s.False(sampler.Record(4, false, s.at(9)))
	s.True(sampler.Record(5, false, s.at(11)))
	s.Equal(3, sampler.Len())
}

func (s *SamplerTestSuite) TestEveryNSecondsUsesClock() {
	now := s.base
	sampler := NewSampler(0,
		WithMode(SampleModeEveryNSeconds),
		WithClock(func() time.Time { return now }),
	)

	s.True(sampler.Record(1, false))
	now = now.Add(DefaultSampleInterval - time.Millisecond)
	s.False(sampler.Record(1, false))
	now = now.Add(time.Millisecond)
	s.True(sampler.Record(1, false))
}

func (s *SamplerTestSuite) TestUnknownModeRejectsUnlessForced() {
	sampler := NewSampler(0, WithMode(SampleMode("ticks")))
	s.False(sampler.Record(1, true))
	s.True(sampler.Record(1, true, WithForce()))
	s.Equal(1, sampler.Len())
}

func (s *SamplerTestSuite) TestParseSampleMode() {
	mode, err := ParseSampleMode("")
	s.NoError(err)
	s.Equal(SampleModeFills, mode)

	mode, err = ParseSampleMode("every_n_seconds")
	s.NoError(err)
	s.Equal(SampleModeEveryNSeconds, mode)

	_, err = ParseSampleMode("hourly")
	s.True(errors.HasCode(err, errors.ErrCodeInvalidSampleMode))
}

// ============================================================================
// Report
// ============================================================================

func (s *SamplerTestSuite) TestEmptyReport() {
	report := NewSampler(0).Report(optional.None[float64]())
	s.Equal(0, report.Samples)
	s.Equal(0.0, report.Sharpe)
	s.Equal(0.0, report.MaxDrawdown)
}

func (s *SamplerTestSuite) TestReturnsSkipNearZeroPrior() {
	points := []types.EquityPoint{{Equity: 0}, {Equity: 100}, {Equity: 110}, {Equity: 99}}
	returns := Returns(points)

	s.Len(returns, 2)
	s.InDelta(0.1, returns[0], 1e-12)
	s.InDelta(-0.1, returns[1], 1e-12)
}

func (s *SamplerTestSuite) TestReportStatistics() {
	sampler := NewSampler(0)
	for i, eq := range []float64{100, 110, 99, 108.9} {
		sampler.Record(eq, true, s.at(i))
	}

	report := sampler.Report(optional.None[float64]())
	s.Equal(4, report.Samples)
	s.Equal(3, report.ReturnsCount)
	s.Equal(100.0, report.StartEquity)
	s.Equal(108.9, report.EndEquity)

	// returns: +0.1, -0.1, +0.1
	s.InDelta(0.1/3, report.MeanReturn, 1e-9)
	expectedStd := math.Sqrt((math.Pow(0.1-0.1/3, 2)*2 + math.Pow(-0.1-0.1/3, 2)) / 2)
	s.InDelta(expectedStd, report.StdReturn, 1e-9)
	s.InDelta(report.MeanReturn/report.StdReturn, report.Sharpe, 1e-9)

	// a single negative return has no sample deviation
	s.Equal(0.0, report.Sortino)

	// drawdown: peak 110 at t1, trough 99 at t2
	s.InDelta(0.1, report.MaxDrawdown, 1e-9)
	s.Equal(s.base.Add(1*time.Second), report.MaxDrawdownPeak)
	s.Equal(s.base.Add(2*time.Second), report.MaxDrawdownTrough)
	s.InDelta(1-108.9/110, report.CurrentDrawdown, 1e-9)

	annual := sampler.Report(optional.Some(252.0))
	s.InDelta(report.Sharpe*math.Sqrt(252), annual.Sharpe, 1e-9)
}

func (s *SamplerTestSuite) TestSortinoUsesDownsideDeviation() {
	sampler := NewSampler(0)
	for i, eq := range []float64{100, 90, 108, 102.6} {
		sampler.Record(eq, true, s.at(i))
	}

	report := sampler.Report(optional.None[float64]())
	downStd := math.Sqrt(math.Pow(-0.1-(-0.075), 2) + math.Pow(-0.05-(-0.075), 2))
	s.InDelta(report.MeanReturn/downStd, report.Sortino, 1e-9)
}

func (s *SamplerTestSuite) TestEquityCurveIsCopy() {
	sampler := NewSampler(50)
	curve := sampler.EquityCurve()
	curve[0].Equity = 0

	s.Equal(50.0, sampler.EquityCurve()[0].Equity)
}
