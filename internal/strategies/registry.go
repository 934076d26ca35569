// Package strategies holds the compiled-in trading strategies and the
// factory that builds them from configuration.
package strategies

import (
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/rxtech-lab/argo-runtime/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Factory builds a strategy instance.
type Factory func(meta types.StrategyMeta, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) (strategy.Strategy, error)

// Descriptor describes a strategy kind.
type Descriptor struct {
	Kind        string
	Description string
	Identifier  string
	// Params is the zero-config parameter struct, used to render its schema.
	Params  any
	factory Factory
}

var registry = map[string]Descriptor{
	KindMomentum: {
		Kind:        KindMomentum,
		Description: "Buys when the short moving average crosses above the long one and exits on the cross back",
		Identifier:  "com.argo-runtime.strategies.momentum",
		Params:      DefaultMomentumParams(),
		factory:     newMomentumFactory,
	},
	KindBasic: {
		Kind:        KindBasic,
		Description: "Logs every tick for its symbol and never trades",
		Identifier:  "com.argo-runtime.strategies.basic",
		Params:      BasicParams{},
		factory:     newBasicFactory,
	},
	KindConsecutive: {
		Kind:        KindConsecutive,
		Description: "Buys after N consecutive rising ticks and sells after N consecutive falling ticks",
		Identifier:  "com.argo-runtime.strategies.consecutive",
		Params:      DefaultConsecutiveParams(),
		factory:     newConsecutiveFactory,
	},
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for kind := range registry {
		out = append(out, kind)
	}

	sort.Strings(out)

	return out
}

// Describe looks up a kind.
func Describe(kind string) (Descriptor, error) {
	d, ok := registry[kind]
	if !ok {
		return Descriptor{}, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy kind %q", kind)
	}

	return d, nil
}

// New builds a strategy of the given kind. meta.Params are decoded into the
// kind's parameter struct and validated.
func New(kind string, meta types.StrategyMeta, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) (strategy.Strategy, error) {
	d, err := Describe(kind)
	if err != nil {
		return nil, err
	}

	if meta.Name == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "strategy name is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return d.factory(meta, cfg, policy, log)
}

// ParamsSchema returns the JSON schema of a kind's parameters.
func ParamsSchema(kind string) (string, error) {
	d, err := Describe(kind)
	if err != nil {
		return "", err
	}

	return schema.ToJSONSchema(d.Params)
}

// decodeParams overlays params onto out (which holds the defaults) and
// validates the result.
func decodeParams[T any](params map[string]any, out *T) error {
	if len(params) > 0 {
		raw, err := yaml.Marshal(params)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to encode strategy params", err)
		}

		if err := yaml.Unmarshal(raw, out); err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to decode strategy params", err)
		}
	}

	validate := validator.New()
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy params", err)
	}

	return nil
}
