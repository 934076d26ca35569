// Package order routes order intents through the risk engine to a broker.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/broker"
	"github.com/rxtech-lab/argo-runtime/internal/journal"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/risk"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

const noResponseReason = "broker returned no response"

type placeOptions struct {
	strategyName    string
	currentPosition int64
	side            types.Side
}

// PlaceOption adjusts how an order is checked.
type PlaceOption func(*placeOptions)

// WithStrategyName tags an order whose Meta names no strategy.
func WithStrategyName(name string) PlaceOption {
	return func(o *placeOptions) {
		o.strategyName = name
	}
}

// WithCurrentPosition supplies the strategy's signed position for the
// prospective position check.
func WithCurrentPosition(qty int64) PlaceOption {
	return func(o *placeOptions) {
		o.currentPosition = qty
	}
}

// WithSide supplies the direction of a modified order for the risk check.
func WithSide(side types.Side) PlaceOption {
	return func(o *placeOptions) {
		o.side = side
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithJournal records every submission and fill.
func WithJournal(recorder journal.Recorder) Option {
	return func(m *Manager) {
		m.journal = recorder
	}
}

// WithClock overrides the journal timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager is the only path from strategies to the broker.
type Manager struct {
	broker  broker.Broker
	risk    *risk.Engine
	journal journal.Recorder
	now     func() time.Time
	log     *logger.Logger
}

// NewManager creates a manager. A nil risk engine gets a fresh one.
func NewManager(b broker.Broker, riskEngine *risk.Engine, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if riskEngine == nil {
		riskEngine = risk.NewEngine(log)
	}

	m := &Manager{
		broker:  b,
		risk:    riskEngine,
		journal: nil,
		now:     time.Now,
		log:     log.Named("order"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Risk returns the risk engine the manager checks against.
func (m *Manager) Risk() *risk.Engine {
	return m.risk
}

// SetRiskPolicy validates and installs a strategy's policy.
func (m *Manager) SetRiskPolicy(strategyName string, policy types.RiskPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	m.risk.SetPolicy(strategyName, policy)
	m.log.Info("risk policy set", zap.String("strategy", strategyName))

	return nil
}

// PlaceOrder checks req against the risk engine and forwards it. A risk
// rejection is returned as a Rejected response with a nil error.
func (m *Manager) PlaceOrder(ctx context.Context, req types.OrderRequest, opts ...PlaceOption) (types.OrderResponse, error) {
	o := applyPlaceOptions(opts)

	if o.strategyName != "" && req.StrategyName() == "" {
		req = req.WithStrategy(o.strategyName)
	}

	if req.Retention == "" {
		req.Retention = types.DefaultRetention
	}

	if rejected, ok := m.check(ctx, req, o.currentPosition); ok {
		return rejected, nil
	}

	raw, err := m.broker.PlaceOrder(ctx, req)
	if err != nil {
		m.log.Error("error sending order to broker", zap.String("symbol", req.Symbol), zap.Error(err))
		m.record(ctx, req, "", types.OrderEventFailed, err.Error())

		return types.OrderResponse{}, errors.Wrap(errors.ErrCodeBrokerFailure, "place order failed", err)
	}

	resp := toResponse(raw)
	m.log.Debug("order placed",
		zap.String("strategy", req.StrategyName()),
		zap.String("symbol", req.Symbol),
		zap.String("order_id", resp.OrderID),
	)

	status := types.OrderEventPlaced
	if !resp.Success {
		status = types.OrderEventFailed
	}

	m.record(ctx, req, resp.OrderID, status, resp.Reason)

	return resp, nil
}

// ModifyOrder amends a working order. The risk check only runs when a new
// quantity is given.
func (m *Manager) ModifyOrder(ctx context.Context, req broker.ModifyRequest, opts ...PlaceOption) (types.OrderResponse, error) {
	o := applyPlaceOptions(opts)

	if req.Quantity > 0 {
		check := types.OrderRequest{
			OrderID:      req.OrderID,
			Side:         o.side,
			ProductType:  "",
			Exchange:     req.Exchange,
			Symbol:       req.Symbol,
			Quantity:     req.Quantity,
			PriceType:    req.PriceType,
			Price:        req.Price,
			TriggerPrice: req.TriggerPrice,
			Retention:    "",
			Remarks:      "",
			Meta:         req.Meta,
		}

		if o.strategyName != "" && check.StrategyName() == "" {
			check = check.WithStrategy(o.strategyName)
		}

		if err := m.risk.CheckOrder(check, o.currentPosition); err != nil {
			if v, ok := risk.AsViolation(err); ok {
				m.log.Warn("modify rejected by risk engine", zap.String("order_id", req.OrderID), zap.String("reason", v.Reason))

				return types.Rejection(v.Reason), nil
			}

			return types.OrderResponse{}, err
		}
	}

	raw, err := m.broker.ModifyOrder(ctx, req)
	if err != nil {
		return types.OrderResponse{}, errors.Wrap(errors.ErrCodeBrokerFailure, "modify order failed", err)
	}

	return toResponse(raw), nil
}

// CancelOrder is not risk checked.
func (m *Manager) CancelOrder(ctx context.Context, orderID string) (types.OrderResponse, error) {
	raw, err := m.broker.CancelOrder(ctx, orderID)
	if err != nil {
		return types.OrderResponse{}, errors.Wrap(errors.ErrCodeBrokerFailure, "cancel order failed", err)
	}

	return toResponse(raw), nil
}

// ExitOrder closes a cover or bracket order. Not risk checked.
func (m *Manager) ExitOrder(ctx context.Context, orderID string, productType string) (types.OrderResponse, error) {
	raw, err := m.broker.ExitOrder(ctx, orderID, productType)
	if err != nil {
		return types.OrderResponse{}, errors.Wrap(errors.ErrCodeBrokerFailure, "exit order failed", err)
	}

	return toResponse(raw), nil
}

// NotifyFill feeds realized PnL into the risk engine and journals the fill.
// It never fails; problems are logged.
func (m *Manager) NotifyFill(ctx context.Context, strategyName string, update types.OrderUpdate, realizedDelta float64) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("error in notify fill", zap.Any("panic", r))
		}
	}()

	m.risk.OnFill(strategyName, realizedDelta)

	if m.journal == nil {
		return
	}

	event := types.NewFillEvent(m.now(), strategyName, update, realizedDelta)
	if err := m.journal.RecordFill(ctx, event); err != nil {
		m.log.Warn("failed to journal fill", zap.String("order_id", event.OrderID), zap.Error(err))
	}
}

// check runs the risk gate. Returns the rejection response and true when the
// order must not be sent.
func (m *Manager) check(ctx context.Context, req types.OrderRequest, currentPosition int64) (types.OrderResponse, bool) {
	err := m.risk.CheckOrder(req, currentPosition)
	if err == nil {
		return types.OrderResponse{}, false
	}

	reason := err.Error()
	if v, ok := risk.AsViolation(err); ok {
		reason = v.Reason
	}

	m.log.Warn("order rejected by risk engine",
		zap.String("strategy", req.StrategyName()),
		zap.String("symbol", req.Symbol),
		zap.String("reason", reason),
	)
	m.record(ctx, req, "", types.OrderEventRejected, reason)

	return types.Rejection(reason), true
}

func (m *Manager) record(ctx context.Context, req types.OrderRequest, orderID string, status types.OrderEventStatus, reason string) {
	if m.journal == nil {
		return
	}

	event := types.OrderEvent{
		Timestamp: m.now(),
		Strategy:  req.StrategyName(),
		OrderID:   orderID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Quantity:  req.Quantity,
		Price:     req.Price.TakeOr(0),
		PriceType: req.PriceType,
		Status:    status,
		Reason:    reason,
	}

	if err := m.journal.RecordOrder(ctx, event); err != nil {
		m.log.Warn("failed to journal order", zap.String("symbol", req.Symbol), zap.Error(err))
	}
}

func applyPlaceOptions(opts []PlaceOption) placeOptions {
	o := placeOptions{strategyName: "", currentPosition: 0, side: ""}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// toResponse normalizes a raw broker reply. A nil reply is reported as an
// unsuccessful response rather than an error.
func toResponse(raw broker.Response) types.OrderResponse {
	if raw == nil {
		return types.OrderResponse{Success: false, OrderID: "", Rejected: false, Reason: noResponseReason, Raw: nil}
	}

	resp := types.OrderResponse{Success: true, OrderID: "", Rejected: false, Reason: "", Raw: raw}

	for _, key := range []string{"norenordno", "order_id", "result"} {
		if v, ok := raw[key]; ok && v != nil {
			resp.OrderID = fmt.Sprint(v)

			break
		}
	}

	if stat, ok := raw["stat"].(string); ok && stat != "Ok" {
		resp.Success = false
		resp.Reason, _ = raw["emsg"].(string)
	}

	return resp
}
