package types

// StrategyPosition is one strategy's share of a symbol position.
type StrategyPosition struct {
	Qty      int64   `json:"qty" yaml:"qty"`
	AvgPrice float64 `json:"avg_price" yaml:"avg_price"`
}

// SymbolPosition aggregates all strategies holding one symbol.
type SymbolPosition struct {
	Qty        int64                       `json:"qty" yaml:"qty"`
	Notional   float64                     `json:"notional" yaml:"notional"`
	AvgPrice   float64                     `json:"avg_price" yaml:"avg_price"`
	Strategies map[string]StrategyPosition `json:"strategies" yaml:"strategies"`
}

// PortfolioSnapshot is the cross-strategy rollup.
type PortfolioSnapshot struct {
	Strategies        []string                  `json:"strategies" yaml:"strategies"`
	PositionsBySymbol map[string]SymbolPosition `json:"positions_by_symbol" yaml:"positions_by_symbol"`
	TotalRealized     float64                   `json:"total_realized" yaml:"total_realized"`
	TotalUnrealized   float64                   `json:"total_unrealized" yaml:"total_unrealized"`
	LastEquity        float64                   `json:"last_equity" yaml:"last_equity"`
	EquityCurveLen    int                       `json:"equity_curve_len" yaml:"equity_curve_len"`
}

// PortfolioReport is the snapshot plus the full equity curve.
type PortfolioReport struct {
	LastEquity  float64                   `json:"last_equity" yaml:"last_equity"`
	Positions   map[string]SymbolPosition `json:"positions" yaml:"positions"`
	Realized    float64                   `json:"realized" yaml:"realized"`
	Unrealized  float64                   `json:"unrealized" yaml:"unrealized"`
	EquityCurve []EquityPoint             `json:"equity_curve" yaml:"equity_curve"`
}
