package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.True(logger.Core().Enabled(zap.InfoLevel))
	suite.False(logger.Core().Enabled(zap.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	logger, err := NewLoggerWithLevel("debug")
	suite.NoError(err)
	suite.True(logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLoggerWithLevel("warn")
	suite.NoError(err)
	suite.False(logger.Core().Enabled(zap.InfoLevel))

	_, err = NewLoggerWithLevel("loud")
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestSyncNilLogger() {
	logger := &Logger{Logger: nil}

	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestNopAndNamed() {
	logger := NewNopLogger().Named("risk")
	suite.NotNil(logger.Logger)

	// should not panic
	logger.Info("kill switch engaged", zap.String("reason", "daily loss"))
	logger.With(zap.String("strategy", "momentum")).Warn("tick dropped")
}
