package order

import (
	"context"

	"github.com/rxtech-lab/argo-runtime/internal/broker"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
)

// Read-only broker queries. None are risk checked.

func (m *Manager) OrderBook(ctx context.Context) ([]broker.Response, error) {
	return list(m.broker.OrderBook(ctx))
}

func (m *Manager) SingleOrderHistory(ctx context.Context, orderID string) ([]broker.Response, error) {
	return list(m.broker.SingleOrderHistory(ctx, orderID))
}

func (m *Manager) Positions(ctx context.Context) ([]broker.Response, error) {
	return list(m.broker.Positions(ctx))
}

func (m *Manager) ConvertPosition(ctx context.Context, req broker.ConvertRequest) (broker.Response, error) {
	return single(m.broker.ConvertPosition(ctx, req))
}

func (m *Manager) TradeBook(ctx context.Context) ([]broker.Response, error) {
	return list(m.broker.TradeBook(ctx))
}

func (m *Manager) Holdings(ctx context.Context) ([]broker.Response, error) {
	return list(m.broker.Holdings(ctx))
}

func (m *Manager) Limits(ctx context.Context, req broker.LimitsRequest) (broker.Response, error) {
	return single(m.broker.Limits(ctx, req))
}

func (m *Manager) OrderStatus(ctx context.Context, orderID string) (broker.Response, error) {
	return single(m.broker.OrderStatus(ctx, orderID))
}

func (m *Manager) MarketDepth(ctx context.Context, exchange string, symbol string) (broker.Response, error) {
	return single(m.broker.MarketDepth(ctx, exchange, symbol))
}

// TimePriceSeries returns an empty slice when the broker has no data.
func (m *Manager) TimePriceSeries(ctx context.Context, req broker.SeriesRequest) ([]broker.Response, error) {
	return list(m.broker.TimePriceSeries(ctx, req))
}

func list(out []broker.Response, err error) ([]broker.Response, error) {
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "broker query failed", err)
	}

	if out == nil {
		return []broker.Response{}, nil
	}

	return out, nil
}

func single(out broker.Response, err error) (broker.Response, error) {
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "broker query failed", err)
	}

	return out, nil
}
