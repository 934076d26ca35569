package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EquityPoint is one sample of an equity curve.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Equity    float64   `json:"equity" yaml:"equity"`
}

// PerformanceReport summarizes an equity curve.
type PerformanceReport struct {
	Samples           int       `json:"samples" yaml:"samples"`
	ReturnsCount      int       `json:"returns_count" yaml:"returns_count"`
	StartEquity       float64   `json:"start_equity" yaml:"start_equity"`
	EndEquity         float64   `json:"end_equity" yaml:"end_equity"`
	MeanReturn        float64   `json:"mean_return" yaml:"mean_return"`
	StdReturn         float64   `json:"std_return" yaml:"std_return"`
	Sharpe            float64   `json:"sharpe" yaml:"sharpe"`
	Sortino           float64   `json:"sortino" yaml:"sortino"`
	CurrentDrawdown   float64   `json:"current_drawdown" yaml:"current_drawdown"`
	MaxDrawdown       float64   `json:"max_drawdown" yaml:"max_drawdown"`
	MaxDrawdownPeak   time.Time `json:"max_drawdown_peak" yaml:"max_drawdown_peak"`
	MaxDrawdownTrough time.Time `json:"max_drawdown_trough" yaml:"max_drawdown_trough"`
}

// TradeStats are win/loss statistics over closed trades. A closed trade with
// zero PnL counts as a loss.
type TradeStats struct {
	TradeCount   int     `json:"trade_count" yaml:"trade_count"`
	ClosedTrades int     `json:"closed_trades" yaml:"closed_trades"`
	Wins         int     `json:"wins" yaml:"wins"`
	Losses       int     `json:"losses" yaml:"losses"`
	WinRate      float64 `json:"win_rate" yaml:"win_rate"`
	AvgWin       float64 `json:"avg_win" yaml:"avg_win"`
	AvgLoss      float64 `json:"avg_loss" yaml:"avg_loss"`
	Expectancy   float64 `json:"expectancy" yaml:"expectancy"`
}

// StrategyReport is the per-strategy performance view.
type StrategyReport struct {
	Name        string            `json:"name" yaml:"name"`
	Symbol      string            `json:"symbol" yaml:"symbol"`
	Position    PnLSnapshot       `json:"position" yaml:"position"`
	Performance PerformanceReport `json:"performance" yaml:"performance"`
	TradeStats  TradeStats        `json:"trade_stats" yaml:"trade_stats"`
	EquityCurve []EquityPoint     `json:"equity_curve" yaml:"equity_curve"`
}

// WriteReport writes any report value to a YAML file.
func WriteReport(path string, report any) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to file: %w", err)
	}

	return nil
}
