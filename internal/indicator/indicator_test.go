package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestSMA() {
	v, err := SMA([]float64{1, 2, 3, 4})
	suite.NoError(err)
	suite.Equal(2.5, v)

	_, err = SMA(nil)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestEMA() {
	v, err := EMA([]float64{10}, 3)
	suite.NoError(err)
	suite.Equal(10.0, v)

	// k = 0.5
	v, err = EMA([]float64{10, 20, 30}, 3)
	suite.NoError(err)
	suite.InDelta(22.5, v, 1e-12)

	_, err = EMA([]float64{1}, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = EMA(nil, 3)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestRSI() {
	_, err := RSI([]float64{1, 2, 3}, 3)
	suite.True(errors.IsInsufficientDataError(err))

	v, err := RSI([]float64{1, 2, 3, 4}, 3)
	suite.NoError(err)
	suite.Equal(100.0, v)

	// gains 1,0 losses 0,1 over period 2 -> rs = 1
	v, err = RSI([]float64{10, 11, 10}, 2)
	suite.NoError(err)
	suite.InDelta(50.0, v, 1e-9)

	// Wilder smoothing after the seed window
	v, err = RSI([]float64{10, 11, 10, 12}, 2)
	suite.NoError(err)
	// seed: gain 0.5 loss 0.5; next diff +2 -> gain 1.25 loss 0.25 -> rs 5
	suite.InDelta(100-100/6.0, v, 1e-9)

	_, err = RSI([]float64{1, 2}, -1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *IndicatorTestSuite) TestVWAP() {
	v, err := VWAP([]Bar{{Price: 10, Volume: 1}, {Price: 20, Volume: 3}})
	suite.NoError(err)
	suite.Equal(17.5, v)

	_, err = VWAP([]Bar{{Price: 10, Volume: 0}})
	suite.True(errors.IsInsufficientDataError(err))
}
