package mocks

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/types"
)

// TickGenerator produces synthetic tick streams for tests and benchmarks.
type TickGenerator struct {
	rng *rand.Rand
}

// NewTickGenerator creates a generator. Use a fixed seed for reproducible runs.
func NewTickGenerator(seed int64) *TickGenerator {
	return &TickGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// TickConfig configures a generated stream.
type TickConfig struct {
	// Symbol is the instrument token, e.g. "NSE|22".
	Symbol string
	// StartTime is the timestamp of the first tick.
	StartTime time.Time
	// Interval is the spacing between ticks.
	Interval time.Duration
	// Count is the number of ticks to generate.
	Count int
	// InitialPrice is the first price.
	InitialPrice float64
	// Volatility is the per-tick standard deviation of returns (0.001 = 0.1%).
	Volatility float64
	// Trend is the total drift spread across the stream.
	Trend float64
	// VolumeBase is the average traded volume per tick.
	VolumeBase float64
}

// DefaultTickConfig returns a quiet one-second stream.
func DefaultTickConfig() TickConfig {
	return TickConfig{
		Symbol:       "NSE|22",
		StartTime:    time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC),
		Interval:     time.Second,
		Count:        1000,
		InitialPrice: 100.0,
		Volatility:   0.001,
		Trend:        0.0,
		VolumeBase:   100,
	}
}

// Generate walks a geometric Brownian motion and returns one tick per step.
// Raw carries the running open/high/low and the tick volume as the feed does.
func (g *TickGenerator) Generate(config TickConfig) []types.Tick {
	ticks := make([]types.Tick, config.Count)
	price := config.InitialPrice
	open, high, low := price, price, price
	ts := config.StartTime

	for i := 0; i < config.Count; i++ {
		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := 0.0
		if config.Count > 0 {
			drift = config.Trend / float64(config.Count)
		}

		next := price * (1 + config.Volatility*z + drift)
		if next <= 0 {
			next = price * 0.99
		}

		price = roundToDecimals(next, 4)
		high = math.Max(high, price)
		low = math.Min(low, price)

		volume := config.VolumeBase * (0.5 + g.rng.Float64())

		ticks[i] = types.Tick{
			Symbol:    config.Symbol,
			LastPrice: price,
			Timestamp: ts,
			Raw: map[string]any{
				"o": open,
				"h": high,
				"l": low,
				"v": roundToDecimals(volume, 2),
			},
		}

		ts = ts.Add(config.Interval)
	}

	return ticks
}

// GenerateMultiSymbol interleaves streams for several symbols by timestamp.
func (g *TickGenerator) GenerateMultiSymbol(symbols []string, base TickConfig) []types.Tick {
	var all []types.Tick

	for _, symbol := range symbols {
		config := base
		config.Symbol = symbol
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		all = append(all, g.Generate(config)...)
	}

	byTime := make([]types.Tick, 0, len(all))
	for step := 0; step < base.Count; step++ {
		for s := range symbols {
			byTime = append(byTime, all[s*base.Count+step])
		}
	}

	return byTime
}

// WriteTicksCSV writes ticks as symbol,price,ts rows with an RFC3339 timestamp.
func WriteTicksCSV(path string, ticks []types.Tick) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"symbol", "price", "ts"}); err != nil {
		return err
	}

	for _, tick := range ticks {
		row := []string{
			tick.Symbol,
			strconv.FormatFloat(tick.LastPrice, 'f', -1, 64),
			tick.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
