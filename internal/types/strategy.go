package types

// StrategyMeta identifies a strategy instance. Immutable after construction.
type StrategyMeta struct {
	Name   string         `json:"name" yaml:"name"`
	Symbol string         `json:"symbol" yaml:"symbol"`
	Params map[string]any `json:"params" yaml:"params"`
}

// ParamInt reads an integer parameter, falling back to def.
func (m StrategyMeta) ParamInt(key string, def int) int {
	if v, ok := toFloat(m.Params[key]); ok {
		return int(v)
	}

	return def
}

// ParamFloat reads a float parameter, falling back to def.
func (m StrategyMeta) ParamFloat(key string, def float64) float64 {
	if v, ok := toFloat(m.Params[key]); ok {
		return v
	}

	return def
}

// ParamString reads a string parameter, falling back to def.
func (m StrategyMeta) ParamString(key string, def string) string {
	if v, ok := m.Params[key].(string); ok && v != "" {
		return v
	}

	return def
}
