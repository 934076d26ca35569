package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/rxtech-lab/argo-runtime/internal/api"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/stretchr/testify/assert"
)

type fakeFetcher struct {
	mu         sync.Mutex
	snapshot   Snapshot
	err        error
	fetches    int
	killSwitch []bool
}

func (f *fakeFetcher) Fetch(context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches++

	return f.snapshot, f.err
}

func (f *fakeFetcher) SetKillSwitch(_ context.Context, enabled bool, reason string) (api.KillSwitchState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.killSwitch = append(f.killSwitch, enabled)
	f.snapshot.KillSwitch = api.KillSwitchState{Enabled: enabled, Reason: reason}

	return f.snapshot.KillSwitch, nil
}

func testSnapshot() Snapshot {
	return Snapshot{
		Portfolio: types.PortfolioSnapshot{
			Strategies: []string{"momentum", "watcher"},
			PositionsBySymbol: map[string]types.SymbolPosition{
				"NSE|2885": {
					Qty:      3,
					Notional: 33,
					AvgPrice: 11,
					Strategies: map[string]types.StrategyPosition{
						"momentum": {Qty: 3, AvgPrice: 11},
					},
				},
			},
			TotalRealized:   12.5,
			TotalUnrealized: -1.25,
			LastEquity:      100011.25,
			EquityCurveLen:  4,
		},
		Strategies: []api.StrategySummary{
			{Name: "momentum", Symbol: "NSE|2885", Position: types.PnLSnapshot{Qty: 3, AvgPrice: 11, Realized: 12.5, Unrealized: -1.25}, Equity: 100011.25},
			{Name: "watcher", Symbol: "NSE|2885", Position: types.PnLSnapshot{}, Equity: 100000},
		},
		Engine:     types.EngineStats{Status: types.EngineStatusRunning, Strategies: 2, Received: 42, Executed: 84},
		KillSwitch: api.KillSwitchState{Enabled: false, Reason: ""},
		FetchedAt:  time.Now(),
	}
}

func newTestModel(f *fakeFetcher) Model {
	return NewModel("127.0.0.1:8080", time.Hour, func(string) Fetcher { return f })
}

func TestNewModel(t *testing.T) {
	m := newTestModel(&fakeFetcher{})

	assert.Equal(t, StateConnect, m.state)
	assert.Equal(t, TabPositions, m.tab)
	assert.Equal(t, "127.0.0.1:8080", m.urlInput.Value())
	assert.True(t, m.snapshot.IsNone())
	assert.Nil(t, m.fetcher)
}

func TestConnectShowsDashboard(t *testing.T) {
	f := &fakeFetcher{snapshot: testSnapshot()}
	tm := teatest.NewTestModel(t, newTestModel(f), teatest.WithInitialTermSize(140, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Control plane address"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("NSE|2885")) &&
			bytes.Contains(bts, []byte("received 42"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestConnectIgnoresEmptyAddress(t *testing.T) {
	m := newTestModel(&fakeFetcher{})
	m.urlInput.SetValue("   ")

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated := newModel.(Model)

	assert.Equal(t, StateConnect, updated.state)
	assert.Nil(t, updated.fetcher)
}

func TestSnapshotMessage(t *testing.T) {
	f := &fakeFetcher{}
	m := newTestModel(f)
	m.state = StateDashboard
	m.fetcher = f

	newModel, cmd := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	updated := newModel.(Model)

	assert.NotNil(t, cmd)
	assert.True(t, updated.snapshot.IsSome())
	assert.Len(t, updated.positions.Rows(), 1)
	assert.Equal(t, "momentum:3", updated.positions.Rows()[0][4])
	assert.Len(t, updated.strategies.Rows(), 2)
	assert.Equal(t, 1, updated.seq)
}

func TestSnapshotIgnoredWhileDisconnected(t *testing.T) {
	m := newTestModel(&fakeFetcher{})

	newModel, cmd := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	updated := newModel.(Model)

	assert.Nil(t, cmd)
	assert.True(t, updated.snapshot.IsNone())
}

func TestStaleRefreshIsIgnored(t *testing.T) {
	f := &fakeFetcher{}
	m := newTestModel(f)
	m.state = StateDashboard
	m.fetcher = f
	m.seq = 3

	_, cmd := m.Update(refreshMsg{seq: 2})
	assert.Nil(t, cmd)

	_, cmd = m.Update(refreshMsg{seq: 3})
	assert.NotNil(t, cmd)

	msg := cmd()
	assert.IsType(t, SnapshotMsg{}, msg)
	assert.Equal(t, 1, f.fetches)
}

func TestFetchErrorKeepsPolling(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection refused")}
	m := newTestModel(f)
	m.state = StateDashboard
	m.fetcher = f

	msg := fetchCmd(f)()
	assert.Equal(t, FetchErrorMsg{Err: f.err}, msg)

	newModel, cmd := m.Update(msg)
	updated := newModel.(Model)

	assert.NotNil(t, cmd)
	assert.Contains(t, updated.View(), "connection refused")
}

func TestTabSwitchesTables(t *testing.T) {
	f := &fakeFetcher{}
	m := newTestModel(f)
	m.state = StateDashboard
	m.fetcher = f

	newModel, _ := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	newModel, _ = newModel.Update(tea.KeyMsg{Type: tea.KeyTab})
	updated := newModel.(Model)

	assert.Equal(t, TabStrategies, updated.tab)
	assert.Contains(t, updated.View(), "watcher")

	newModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabPositions, newModel.(Model).tab)
}

func TestKillSwitchToggle(t *testing.T) {
	f := &fakeFetcher{snapshot: testSnapshot()}
	m := newTestModel(f)
	m.state = StateDashboard
	m.fetcher = f

	newModel, _ := m.Update(SnapshotMsg{Snapshot: testSnapshot()})

	newModel, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.NotNil(t, cmd)

	msg := cmd()
	assert.Equal(t, KillSwitchMsg{State: api.KillSwitchState{Enabled: true, Reason: killSwitchReason}}, msg)

	newModel, _ = newModel.Update(msg)
	updated := newModel.(Model)

	assert.True(t, updated.snapshot.Unwrap().KillSwitch.Enabled)
	assert.Contains(t, updated.View(), "KILL SWITCH ENGAGED")

	_, cmd = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	cmd()
	assert.Equal(t, []bool{true, false}, f.killSwitch)
}

func TestEscDisconnects(t *testing.T) {
	f := &fakeFetcher{}
	m := newTestModel(f)
	m.state = StateDashboard
	m.fetcher = f
	m.baseURL = "127.0.0.1:8080"

	newModel, _ := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	seq := newModel.(Model).seq

	newModel, _ = newModel.Update(tea.KeyMsg{Type: tea.KeyEsc})
	updated := newModel.(Model)

	assert.Equal(t, StateConnect, updated.state)
	assert.Nil(t, updated.fetcher)
	assert.True(t, updated.snapshot.IsNone())
	assert.Empty(t, updated.positions.Rows())
	assert.Greater(t, updated.seq, seq)
}

func TestQuitBehavior(t *testing.T) {
	t.Run("ctrl+c quits from connect", func(t *testing.T) {
		tm := teatest.NewTestModel(t, newTestModel(&fakeFetcher{}), teatest.WithInitialTermSize(80, 24))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	})

	t.Run("q is typed into the address on connect", func(t *testing.T) {
		m := newTestModel(&fakeFetcher{})
		m.urlInput.SetValue("")

		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		assert.Equal(t, "q", newModel.(Model).urlInput.Value())
	})

	t.Run("q quits from the dashboard", func(t *testing.T) {
		f := &fakeFetcher{}
		m := newTestModel(f)
		m.state = StateDashboard
		m.fetcher = f

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		assert.Equal(t, tea.Quit(), cmd())
	})
}

func TestFormatPnL(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected string
	}{
		{name: "gain", value: 12.5, expected: "12.50 ▲"},
		{name: "loss", value: -3, expected: "-3.00 ▼"},
		{name: "flat", value: 0, expected: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPnL(tt.value))
		})
	}
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(&fakeFetcher{})

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := newModel.(Model)

	assert.Equal(t, 120, updated.width)
	assert.Equal(t, 40, updated.height)
}
