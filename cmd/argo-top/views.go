package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-runtime/internal/api"
	"github.com/rxtech-lab/argo-runtime/internal/types"
)

// NewURLInput creates the control plane address input.
func NewURLInput(baseURL string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "127.0.0.1:8080"
	ti.SetValue(baseURL)
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50
	ti.Prompt = "> "

	return ti
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// NewPositionsTable creates the per-symbol position table.
func NewPositionsTable() table.Model {
	return newTable([]table.Column{
		{Title: "Symbol", Width: 14},
		{Title: "Qty", Width: 10},
		{Title: "Avg Price", Width: 14},
		{Title: "Notional", Width: 16},
		{Title: "Strategies", Width: 30},
	})
}

// NewStrategiesTable creates the per-strategy table.
func NewStrategiesTable() table.Model {
	return newTable([]table.Column{
		{Title: "Strategy", Width: 16},
		{Title: "Symbol", Width: 14},
		{Title: "Qty", Width: 8},
		{Title: "Avg Price", Width: 12},
		{Title: "Realized", Width: 14},
		{Title: "Unrealized", Width: 14},
		{Title: "Equity", Width: 14},
	})
}

// UpdatePositionRows fills the position table, sorted by symbol.
func UpdatePositionRows(t table.Model, snap types.PortfolioSnapshot) table.Model {
	symbols := make([]string, 0, len(snap.PositionsBySymbol))
	for symbol := range snap.PositionsBySymbol {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	rows := make([]table.Row, 0, len(symbols))

	for _, symbol := range symbols {
		pos := snap.PositionsBySymbol[symbol]

		holders := make([]string, 0, len(pos.Strategies))
		for name, sp := range pos.Strategies {
			holders = append(holders, fmt.Sprintf("%s:%d", name, sp.Qty))
		}

		sort.Strings(holders)

		rows = append(rows, table.Row{
			symbol,
			fmt.Sprintf("%d", pos.Qty),
			fmt.Sprintf("%.4f", pos.AvgPrice),
			fmt.Sprintf("%.2f", pos.Notional),
			strings.Join(holders, " "),
		})
	}

	t.SetRows(rows)

	return t
}

// UpdateStrategyRows fills the strategy table in registration order.
func UpdateStrategyRows(t table.Model, summaries []api.StrategySummary) table.Model {
	rows := make([]table.Row, 0, len(summaries))

	for _, s := range summaries {
		rows = append(rows, table.Row{
			s.Name,
			s.Symbol,
			fmt.Sprintf("%d", s.Position.Qty),
			fmt.Sprintf("%.4f", s.Position.AvgPrice),
			FormatPnL(s.Position.Realized),
			FormatPnL(s.Position.Unrealized),
			fmt.Sprintf("%.2f", s.Equity),
		})
	}

	t.SetRows(rows)

	return t
}

// RenderSummary renders the portfolio and engine header lines.
func RenderSummary(snap Snapshot) string {
	var s strings.Builder

	p := snap.Portfolio
	fmt.Fprintf(&s, "Equity %.2f | Realized %s | Unrealized %s | Strategies %d\n",
		p.LastEquity, FormatPnL(p.TotalRealized), FormatPnL(p.TotalUnrealized), len(p.Strategies))

	e := snap.Engine
	fmt.Fprintf(&s, "Engine %s | queue %d | received %d | dropped %d | throttled %d | executed %d | failed %d\n",
		e.Status, e.QueueLen, e.Received, e.Dropped, e.Throttled, e.Executed, e.Failed)

	return s.String()
}
