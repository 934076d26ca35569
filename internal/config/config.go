// Package config loads the runtime's YAML configuration file.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/api"
	"github.com/rxtech-lab/argo-runtime/internal/broker"
	"github.com/rxtech-lab/argo-runtime/internal/engine"
	"github.com/rxtech-lab/argo-runtime/internal/feed"
	"github.com/rxtech-lab/argo-runtime/internal/performance"
	"github.com/rxtech-lab/argo-runtime/internal/portfolio"
	"github.com/rxtech-lab/argo-runtime/internal/strategies"
	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/internal/version"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/rxtech-lab/argo-runtime/pkg/schema"
	"gopkg.in/yaml.v3"
)

type BrokerKind string

const (
	BrokerPaper   BrokerKind = "paper"
	BrokerBinance BrokerKind = "binance"
)

type FeedSource string

const (
	FeedSourceWebsocket FeedSource = "ws"
	FeedSourceBinance   FeedSource = "binance"
)

// Config is the root of the configuration file.
type Config struct {
	Version    string           `yaml:"version" validate:"required" jsonschema:"description=Runtime version this file was written for"`
	LogLevel   string           `yaml:"log_level" validate:"omitempty,oneof=debug info warn error" jsonschema:"description=Minimum log level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Engine     engine.Config    `yaml:"engine"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	Broker     BrokerConfig     `yaml:"broker"`
	Feed       FeedConfig       `yaml:"feed"`
	Journal    JournalConfig    `yaml:"journal"`
	API        api.Config       `yaml:"api"`
	Strategies []StrategyConfig `yaml:"strategies" validate:"dive"`
}

type PortfolioConfig struct {
	StartingEquity float64 `yaml:"starting_equity" validate:"gte=0" jsonschema:"description=Equity baseline of the portfolio curve,default=100000"`
	ReportPath     string  `yaml:"report_path,omitempty" jsonschema:"description=Write the portfolio performance report here on shutdown"`
}

type BrokerConfig struct {
	Kind          BrokerKind            `yaml:"kind" validate:"oneof=paper binance" jsonschema:"description=Order routing backend,enum=paper,enum=binance,default=paper"`
	Cash          float64               `yaml:"cash,omitempty" validate:"gte=0" jsonschema:"description=Paper broker starting cash"`
	InitialPrices map[string]float64    `yaml:"initial_prices,omitempty" jsonschema:"description=Paper broker marks before the first tick"`
	Binance       *broker.BinanceConfig `yaml:"binance,omitempty" validate:"-" jsonschema:"description=Credentials for the binance broker"`
}

type FeedConfig struct {
	Enabled bool              `yaml:"enabled" jsonschema:"description=Stream live ticks into the engine,default=true"`
	Source  FeedSource        `yaml:"source" validate:"omitempty,oneof=ws binance" jsonschema:"description=Tick source,enum=ws,enum=binance,default=ws"`
	WS      feed.ClientConfig `yaml:"ws" validate:"-" jsonschema:"description=Websocket touchline feed"`
	Binance BinanceFeedConfig `yaml:"binance" validate:"-" jsonschema:"description=Binance aggregated trade streams"`
}

type BinanceFeedConfig struct {
	Symbols []string `yaml:"symbols" validate:"min=1,dive,required" jsonschema:"description=Symbols to stream, e.g. BTCUSDT"`
}

type JournalConfig struct {
	Enabled   bool   `yaml:"enabled" jsonschema:"description=Persist orders, fills and equity to DuckDB"`
	Path      string `yaml:"path" validate:"required_if=Enabled true" jsonschema:"description=Journal database file; empty keeps it in memory,default=data/journal.duckdb"`
	ExportDir string `yaml:"export_dir,omitempty" jsonschema:"description=Export the journal tables as Parquet here on shutdown"`
}

// StrategyConfig declares one strategy instance.
type StrategyConfig struct {
	Name           string            `yaml:"name" validate:"required" jsonschema:"description=Unique strategy name"`
	Kind           string            `yaml:"kind" validate:"required" jsonschema:"description=Strategy implementation"`
	Symbol         string            `yaml:"symbol" jsonschema:"description=Primary instrument, e.g. NSE|2885"`
	MinInterval    time.Duration     `yaml:"min_interval,omitempty" validate:"gte=0" jsonschema:"description=Minimum time between two ticks delivered to this strategy"`
	Params         map[string]any    `yaml:"params,omitempty" jsonschema:"description=Strategy specific parameters"`
	WindowSize     int               `yaml:"window_size,omitempty" validate:"gte=0" jsonschema:"description=Number of recent ticks kept,default=200"`
	StartingEquity float64           `yaml:"starting_equity,omitempty" validate:"gte=0" jsonschema:"description=Equity baseline of the strategy curve"`
	SampleMode     string            `yaml:"sample_mode,omitempty" jsonschema:"description=When equity samples are kept,enum=fills,enum=all,enum=on_position,enum=every_n_seconds"`
	SampleInterval time.Duration     `yaml:"sample_interval,omitempty" validate:"gte=0" jsonschema:"description=Interval of every_n_seconds sampling,default=10s"`
	RecordTrades   *bool             `yaml:"record_trades,omitempty" jsonschema:"description=Keep the per-trade ledger,default=true"`
	Risk           *types.RiskPolicy `yaml:"risk,omitempty" validate:"-" jsonschema:"description=Pre-trade limits; omitted fields use the defaults"`
}

// Default returns a config that runs the paper broker against the local
// mock feed with no strategies.
func Default() Config {
	return Config{
		Version:   version.GetVersion(),
		LogLevel:  "info",
		Engine:    engine.DefaultConfig(),
		Portfolio: PortfolioConfig{StartingEquity: portfolio.DefaultStartingEquity, ReportPath: ""},
		Broker: BrokerConfig{
			Kind:          BrokerPaper,
			Cash:          0,
			InitialPrices: map[string]float64{},
			Binance:       nil,
		},
		Feed: FeedConfig{
			Enabled: true,
			Source:  FeedSourceWebsocket,
			WS:      feed.DefaultClientConfig(),
			Binance: BinanceFeedConfig{Symbols: []string{}},
		},
		Journal: JournalConfig{
			Enabled:   false,
			Path:      "data/journal.duckdb",
			ExportDir: "",
		},
		API:        api.DefaultConfig(),
		Strategies: []StrategyConfig{},
	}
}

// Example returns Default plus one strategy of every kind.
func Example() Config {
	cfg := Default()
	cfg.Feed.WS.Subscriptions = []string{"NSE|2885", "NSE|1594"}
	cfg.Strategies = []StrategyConfig{
		{
			Name:   "momentum",
			Kind:   strategies.KindMomentum,
			Symbol: "NSE|2885",
			Params: map[string]any{"short": 5, "long": 20, "qty": 1, "exchange": "NSE"},
		},
		{
			Name:   "basic",
			Kind:   strategies.KindBasic,
			Symbol: "NSE|1594",
		},
		{
			Name:           "consecutive",
			Kind:           strategies.KindConsecutive,
			Symbol:         "NSE|1594",
			MinInterval:    time.Second,
			Params:         map[string]any{"count": 3},
			SampleMode:     string(performance.SampleModeEveryNSeconds),
			SampleInterval: 30 * time.Second,
			Risk: &types.RiskPolicy{
				MaxQtyPerOrder: 10,
				MaxNotional:    100000,
				MaxPositionQty: 50,
				MaxDailyLoss:   5000,
				AllowShort:     false,
			},
		},
	}

	return cfg
}

// Load reads and validates a config file. Fields missing from the file keep
// their Default values; unknown fields are rejected.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New(errors.ErrCodeMissingParameter, "config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to marshal config", err)
	}

	return data, nil
}

// Validate checks field constraints, the declared version and the
// cross-field rules between sections.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return err
	}

	if c.Broker.Kind == BrokerBinance {
		if c.Broker.Binance == nil {
			return errors.New(errors.ErrCodeInvalidConfiguration, "broker.binance is required when broker.kind is binance")
		}

		if err := c.Broker.Binance.Validate(); err != nil {
			return err
		}
	}

	if c.Feed.Enabled {
		var err error

		switch c.Feed.Source {
		case FeedSourceBinance:
			err = validate.Struct(c.Feed.Binance)
		default:
			err = validate.Struct(c.Feed.WS)
		}

		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid %s feed config", c.Feed.source())
		}
	}

	names := make(map[string]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if names[s.Name] {
			return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %q is declared twice", s.Name)
		}

		names[s.Name] = true

		if err := s.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (f FeedConfig) source() FeedSource {
	if f.Source == "" {
		return FeedSourceWebsocket
	}

	return f.Source
}

// SourceKind returns the configured tick source, ws when unset.
func (f FeedConfig) SourceKind() FeedSource {
	return f.source()
}

func (s StrategyConfig) validate() error {
	if _, err := strategies.Describe(s.Kind); err != nil {
		return errors.Wrapf(errors.ErrCodeUnsupportedStrategy, err, "strategy %q", s.Name)
	}

	if _, err := performance.ParseSampleMode(s.SampleMode); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidSampleMode, err, "strategy %q", s.Name)
	}

	if policy, err := s.Policy().Take(); err == nil {
		if err := policy.Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidRiskPolicy, err, "strategy %q", s.Name)
		}
	}

	return nil
}

// Meta returns the immutable strategy metadata.
func (s StrategyConfig) Meta() types.StrategyMeta {
	return types.StrategyMeta{
		Name:   s.Name,
		Symbol: strings.TrimSpace(s.Symbol),
		Params: s.Params,
	}
}

// ContextConfig returns the per-strategy state sizing.
func (s StrategyConfig) ContextConfig() (strategy.ContextConfig, error) {
	mode, err := performance.ParseSampleMode(s.SampleMode)
	if err != nil {
		return strategy.ContextConfig{}, err
	}

	cfg := strategy.DefaultContextConfig()
	cfg.SampleMode = mode
	cfg.StartingEquity = s.StartingEquity

	if s.WindowSize > 0 {
		cfg.WindowSize = s.WindowSize
	}

	if s.SampleInterval > 0 {
		cfg.SampleInterval = s.SampleInterval
	}

	if s.RecordTrades != nil {
		cfg.RecordTrades = *s.RecordTrades
	}

	return cfg, nil
}

// Policy returns the declared risk policy. Omitted limits are filled from
// types.DefaultRiskPolicy when the file is parsed.
func (s StrategyConfig) Policy() optional.Option[types.RiskPolicy] {
	if s.Risk == nil {
		return optional.None[types.RiskPolicy]()
	}

	return optional.Some(*s.Risk)
}

// UnmarshalYAML decodes a strategy entry, starting the risk block from the
// default policy.
func (s *StrategyConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain StrategyConfig

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*s = StrategyConfig(p)

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "risk" {
			continue
		}

		policy := types.DefaultRiskPolicy()
		if err := node.Content[i+1].Decode(&policy); err != nil {
			return err
		}

		s.Risk = &policy
	}

	return nil
}

// Schema returns the JSON schema of the config file.
func Schema() (string, error) {
	return schema.ToIndentedJSONSchema(Config{})
}
