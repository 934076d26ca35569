package feed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/mocks"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ReplayTestSuite struct {
	suite.Suite
	dir string
}

func TestReplaySuite(t *testing.T) {
	suite.Run(t, new(ReplayTestSuite))
}

func (suite *ReplayTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ReplayTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *ReplayTestSuite) TestReplaysGeneratedTicksInOrder() {
	generator := mocks.NewTickGenerator(7)
	cfg := mocks.DefaultTickConfig()
	cfg.Count = 50

	ticks := generator.GenerateMultiSymbol([]string{"NSE|22", "NSE|1594"}, cfg)
	path := filepath.Join(suite.dir, "ticks.csv")
	suite.Require().NoError(mocks.WriteTicksCSV(path, ticks))

	var progress bytes.Buffer

	replayer := NewReplayer(ReplayConfig{Path: path, Speed: 0, Progress: &progress}, nil)

	var got []types.Tick
	result, err := replayer.Run(context.Background(), func(tick types.Tick) bool {
		got = append(got, tick)

		return true
	})
	suite.Require().NoError(err)

	suite.Equal(len(ticks), result.Total)
	suite.Equal(len(ticks), result.Delivered)
	suite.Equal(0, result.Dropped)
	suite.Require().Len(got, len(ticks))

	for i := 1; i < len(got); i++ {
		suite.False(got[i].Timestamp.Before(got[i-1].Timestamp))
	}

	suite.Contains(progress.String(), "Replaying")
}

func (suite *ReplayTestSuite) TestSortsAndSkipsMalformedRows() {
	path := suite.writeFile("mixed.csv", "symbol,price,ts\n"+
		"NSE|22,101,2024-01-01T09:15:02Z\n"+
		"NSE|22,100,2024-01-01T09:15:00Z\n"+
		"NSE|22,abc,2024-01-01T09:15:01Z\n"+
		",100,2024-01-01T09:15:01Z\n"+
		"NSE|22,102,1704100503000\n"+
		"NSE|22,99.5,2024-01-01 09:15:01\n")

	ticks, err := NewReplayer(ReplayConfig{Path: path}, nil).Load(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(ticks, 4)

	suite.Equal([]float64{100, 99.5, 101, 102}, []float64{ticks[0].LastPrice, ticks[1].LastPrice, ticks[2].LastPrice, ticks[3].LastPrice})
	suite.Equal(time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC), ticks[0].Timestamp)
	suite.Equal(time.UnixMilli(1704100503000).UTC(), ticks[3].Timestamp)
}

func (suite *ReplayTestSuite) TestDroppedTicksAreCounted() {
	path := suite.writeFile("two.csv", "symbol,price,ts\nX,1,2024-01-01T00:00:00Z\nX,2,2024-01-01T00:00:01Z\n")

	result, err := NewReplayer(ReplayConfig{Path: path}, nil).Run(context.Background(), func(types.Tick) bool { return false })
	suite.NoError(err)
	suite.Equal(ReplayResult{Total: 2, Delivered: 0, Dropped: 2}, result)
}

func (suite *ReplayTestSuite) TestPacingHonoursCancellation() {
	path := suite.writeFile("slow.csv", "symbol,price,ts\nX,1,2024-01-01T00:00:00Z\nX,2,2024-01-01T01:00:00Z\n")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := NewReplayer(ReplayConfig{Path: path, Speed: 1}, nil).Run(ctx, func(types.Tick) bool { return true })
	suite.NoError(err)
	suite.Equal(1, result.Delivered)
	suite.Less(time.Since(start), 5*time.Second)
}

func (suite *ReplayTestSuite) TestMissingFile() {
	_, err := NewReplayer(ReplayConfig{Path: filepath.Join(suite.dir, "nope.csv")}, nil).Load(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))

	_, err = NewReplayer(ReplayConfig{}, nil).Load(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *ReplayTestSuite) TestParseTimestamp() {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-01T09:15:00.5Z", time.Date(2024, 1, 1, 9, 15, 0, 500000000, time.UTC), true},
		{"2024-01-01T14:45:00+05:30", time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC), true},
		{"2024-01-01 09:15:00", time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC), true},
		{"1704100500000", time.UnixMilli(1704100500000).UTC(), true},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := parseTimestamp(tt.in)
		suite.Equal(tt.ok, ok, tt.in)
		suite.True(tt.want.Equal(got), tt.in)
	}
}
