package broker

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/pnl"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

// Order states reported by the paper broker.
const (
	StatusTriggerPending = "TRIGGER_PENDING"
	StatusComplete       = "COMPLETE"
	StatusCanceled       = "CANCELED"
)

const (
	defaultPaperCash = 1_000_000
	maxSeriesPoints  = 5000
	timeLayout       = "02-01-2006 15:04:05"
)

type paperOrder struct {
	id        string
	req       types.OrderRequest
	status    string
	filledQty int64
	fillPrice float64
	createdAt time.Time
	history   []Response
}

type paperPosition struct {
	exchange    string
	productType string
	ledger      *pnl.Engine
}

type seriesPoint struct {
	ts    time.Time
	price float64
}

// Paper is an in-memory broker. Limit and market orders fill immediately;
// stop orders rest until Mark crosses their trigger.
type Paper struct {
	mu        sync.Mutex
	orders    map[string]*paperOrder
	sequence  []string
	trades    []Response
	positions map[string]*paperPosition
	marks     map[string]float64
	series    map[string][]seriesPoint
	cash      float64

	onFill FillHandler
	now    func() time.Time
	newID  func() string
	log    *logger.Logger
}

// PaperOption configures a Paper broker.
type PaperOption func(*Paper)

// WithInitialPrices seeds the last-price table used for market orders.
func WithInitialPrices(prices map[string]float64) PaperOption {
	return func(p *Paper) {
		for symbol, price := range prices {
			p.marks[symbol] = price
		}
	}
}

// WithCash sets the starting cash balance reported by Limits.
func WithCash(cash float64) PaperOption {
	return func(p *Paper) {
		p.cash = cash
	}
}

// WithPaperClock overrides the time source for order and fill timestamps.
func WithPaperClock(now func() time.Time) PaperOption {
	return func(p *Paper) {
		p.now = now
	}
}

// WithIDGenerator overrides the order number generator.
func WithIDGenerator(newID func() string) PaperOption {
	return func(p *Paper) {
		p.newID = newID
	}
}

// NewPaper creates an empty paper broker.
func NewPaper(log *logger.Logger, opts ...PaperOption) *Paper {
	if log == nil {
		log = logger.NewNopLogger()
	}

	p := &Paper{
		mu:        sync.Mutex{},
		orders:    make(map[string]*paperOrder),
		sequence:  nil,
		trades:    nil,
		positions: make(map[string]*paperPosition),
		marks:     make(map[string]float64),
		series:    make(map[string][]seriesPoint),
		cash:      defaultPaperCash,
		onFill:    nil,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       log.Named("paper"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// OnFill registers the execution callback.
func (p *Paper) OnFill(handler FillHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onFill = handler
}

// Mark records a last price for symbol, revalues its position and triggers
// resting stop orders.
func (p *Paper) Mark(ctx context.Context, symbol string, price float64) {
	p.mu.Lock()

	now := p.now()
	p.marks[symbol] = price

	points := append(p.series[symbol], seriesPoint{ts: now, price: price})
	if len(points) > maxSeriesPoints {
		points = points[len(points)-maxSeriesPoints:]
	}

	p.series[symbol] = points

	if pos, ok := p.positions[symbol]; ok {
		pos.ledger.MarkUnrealized(price)
	}

	var fills []types.OrderUpdate

	for _, id := range p.sequence {
		o := p.orders[id]
		if o.status != StatusTriggerPending || o.req.Symbol != symbol || !triggered(o, price) {
			continue
		}

		fillPrice := price
		if o.req.PriceType == types.PriceTypeStopLimit {
			fillPrice = o.req.Price.TakeOr(price)
		}

		fills = append(fills, p.fill(o, fillPrice))
	}

	handler := p.onFill
	p.mu.Unlock()

	p.dispatch(ctx, handler, fills)
}

func triggered(o *paperOrder, price float64) bool {
	trigger, err := o.req.TriggerPrice.Take()
	if err != nil {
		return false
	}

	if o.req.Side == types.SideBuy {
		return price >= trigger
	}

	return price <= trigger
}

func (p *Paper) PlaceOrder(ctx context.Context, req types.OrderRequest) (Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Quantity <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidOrder, "order quantity must be positive")
	}

	p.mu.Lock()

	o := &paperOrder{
		id:        p.newID(),
		req:       req,
		status:    "",
		filledQty: 0,
		fillPrice: 0,
		createdAt: p.now(),
		history:   nil,
	}

	fill, err := p.execute(o)
	if err != nil {
		p.mu.Unlock()

		return nil, err
	}

	p.orders[o.id] = o
	p.sequence = append(p.sequence, o.id)
	handler := p.onFill
	p.mu.Unlock()

	p.log.Debug("order accepted",
		zap.String("order_id", o.id),
		zap.String("symbol", req.Symbol),
		zap.String("status", o.status),
	)

	if fill != nil {
		p.dispatch(ctx, handler, []types.OrderUpdate{fill})
	}

	return Response{"stat": "Ok", "norenordno": o.id, "request_time": o.createdAt.Format(timeLayout)}, nil
}

// execute fills o immediately when its price type allows, otherwise leaves it
// pending. Must be called with p.mu held.
func (p *Paper) execute(o *paperOrder) (types.OrderUpdate, error) {
	switch o.req.PriceType {
	case types.PriceTypeLimit:
		price, err := o.req.Price.Take()
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidOrder, "limit order requires a price")
		}

		return p.fill(o, price), nil
	case types.PriceTypeStopLimit, types.PriceTypeStopMarket:
		if o.req.TriggerPrice.IsNone() {
			return nil, errors.New(errors.ErrCodeInvalidOrder, "stop order requires a trigger price")
		}

		p.transition(o, StatusTriggerPending)

		return nil, nil
	default:
		mark, ok := p.marks[o.req.Symbol]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeMarketDataMissing, "no last price for %s", o.req.Symbol)
		}

		return p.fill(o, mark), nil
	}
}

// fill must be called with p.mu held.
func (p *Paper) fill(o *paperOrder, price float64) types.OrderUpdate {
	req := o.req
	now := p.now()

	o.filledQty = req.Quantity
	o.fillPrice = price
	p.transition(o, StatusComplete)

	pos, ok := p.positions[req.Symbol]
	if !ok {
		pos = &paperPosition{exchange: req.Exchange, productType: req.ProductType, ledger: pnl.NewEngine()}
		p.positions[req.Symbol] = pos
	}

	pos.ledger.ApplyFill(req.Side, price, req.Quantity)

	if mark, ok := p.marks[req.Symbol]; ok {
		pos.ledger.MarkUnrealized(mark)
	}

	p.cash -= float64(req.SignedQuantity()) * price

	update := types.NewFill(o.id, req.Side, req.Symbol, req.Quantity, price, "")
	update["exchange"] = req.Exchange
	update["product_type"] = req.ProductType
	update["fill_time"] = now.Format(timeLayout)

	if req.Remarks != "" {
		update["remarks"] = req.Remarks
	}

	if len(req.Meta) > 0 {
		meta := make(map[string]string, len(req.Meta))
		for k, v := range req.Meta {
			meta[k] = v
		}

		update["meta"] = meta
	}

	p.trades = append(p.trades, Response{
		"norenordno": o.id,
		"tsym":       req.Symbol,
		"exch":       req.Exchange,
		"trantype":   string(req.Side),
		"prd":        req.ProductType,
		"fillshares": req.Quantity,
		"flprc":      price,
		"fltm":       now.Format(timeLayout),
		"remarks":    req.Remarks,
	})

	return update
}

// transition must be called with p.mu held.
func (p *Paper) transition(o *paperOrder, status string) {
	o.status = status
	o.history = append(o.history, Response{
		"norenordno": o.id,
		"status":     status,
		"norentm":    p.now().Format(timeLayout),
	})
}

func (p *Paper) dispatch(ctx context.Context, handler FillHandler, fills []types.OrderUpdate) {
	if handler == nil {
		return
	}

	for _, fill := range fills {
		handler(ctx, fill)
	}
}

func (p *Paper) ModifyOrder(ctx context.Context, req ModifyRequest) (Response, error) {
	p.mu.Lock()

	o, ok := p.orders[req.OrderID]
	if !ok {
		p.mu.Unlock()

		return nil, errors.Newf(errors.ErrCodeOrderNotFound, "order not found: %s", req.OrderID)
	}

	if o.status != StatusTriggerPending {
		p.mu.Unlock()

		return nil, errors.Newf(errors.ErrCodeInvalidOrderState, "order %s is %s", o.id, o.status)
	}

	if req.Quantity > 0 {
		o.req.Quantity = req.Quantity
	}

	if req.PriceType != "" {
		o.req.PriceType = req.PriceType
	}

	if req.Price.IsSome() {
		o.req.Price = req.Price
	}

	if req.TriggerPrice.IsSome() {
		o.req.TriggerPrice = req.TriggerPrice
	}

	fill, err := p.execute(o)
	handler := p.onFill
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if fill != nil {
		p.dispatch(ctx, handler, []types.OrderUpdate{fill})
	}

	return Response{"stat": "Ok", "result": o.id}, nil
}

func (p *Paper) CancelOrder(_ context.Context, orderID string) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeOrderNotFound, "order not found: %s", orderID)
	}

	if o.status != StatusTriggerPending {
		return nil, errors.Newf(errors.ErrCodeInvalidOrderState, "order %s is %s", o.id, o.status)
	}

	p.transition(o, StatusCanceled)

	return Response{"stat": "Ok", "result": orderID}, nil
}

// ExitOrder cancels a resting order. The paper broker has no cover or bracket
// legs, so there is nothing else to exit.
func (p *Paper) ExitOrder(ctx context.Context, orderID string, _ string) (Response, error) {
	return p.CancelOrder(ctx, orderID)
}

func (p *Paper) OrderBook(_ context.Context) ([]Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Response, 0, len(p.sequence))
	for _, id := range p.sequence {
		out = append(out, orderResponse(p.orders[id]))
	}

	return out, nil
}

func (p *Paper) SingleOrderHistory(_ context.Context, orderID string) ([]Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeOrderNotFound, "order not found: %s", orderID)
	}

	out := make([]Response, len(o.history))
	copy(out, o.history)

	return out, nil
}

func (p *Paper) OrderStatus(_ context.Context, orderID string) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeOrderNotFound, "order not found: %s", orderID)
	}

	return orderResponse(o), nil
}

func orderResponse(o *paperOrder) Response {
	resp := Response{
		"norenordno":    o.id,
		"tsym":          o.req.Symbol,
		"exch":          o.req.Exchange,
		"trantype":      string(o.req.Side),
		"qty":           o.req.Quantity,
		"prctyp":        string(o.req.PriceType),
		"prd":           o.req.ProductType,
		"ret":           o.req.Retention,
		"status":        o.status,
		"fillshares":    o.filledQty,
		"avgprc":        o.fillPrice,
		"remarks":       o.req.Remarks,
		"strategy_name": o.req.StrategyName(),
		"norentm":       o.createdAt.Format(timeLayout),
	}

	if price, err := o.req.Price.Take(); err == nil {
		resp["prc"] = price
	}

	if trigger, err := o.req.TriggerPrice.Take(); err == nil {
		resp["trgprc"] = trigger
	}

	return resp
}

func (p *Paper) Positions(_ context.Context) ([]Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Response, 0, len(p.positions))
	for _, symbol := range p.sortedSymbols() {
		pos := p.positions[symbol]
		snap := pos.ledger.Snapshot()

		out = append(out, Response{
			"tsym":      symbol,
			"exch":      pos.exchange,
			"prd":       pos.productType,
			"netqty":    snap.Qty,
			"netavgprc": snap.AvgPrice,
			"rpnl":      snap.Realized,
			"urmtom":    snap.Unrealized,
			"lp":        p.marks[symbol],
		})
	}

	return out, nil
}

func (p *Paper) sortedSymbols() []string {
	symbols := make([]string, 0, len(p.positions))
	for symbol := range p.positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

func (p *Paper) ConvertPosition(_ context.Context, req ConvertRequest) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[req.Symbol]
	if !ok || pos.ledger.Snapshot().Qty == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no open position for %s", req.Symbol)
	}

	pos.productType = req.NewProductType

	return Response{"stat": "Ok"}, nil
}

func (p *Paper) TradeBook(_ context.Context) ([]Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Response, len(p.trades))
	copy(out, p.trades)

	return out, nil
}

// Holdings lists long delivery positions.
func (p *Paper) Holdings(_ context.Context) ([]Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Response, 0)

	for _, symbol := range p.sortedSymbols() {
		pos := p.positions[symbol]
		snap := pos.ledger.Snapshot()

		if snap.Qty <= 0 || pos.productType != types.DefaultProductType {
			continue
		}

		out = append(out, Response{
			"tsym":    symbol,
			"exch":    pos.exchange,
			"holdqty": snap.Qty,
			"upldprc": snap.AvgPrice,
		})
	}

	return out, nil
}

func (p *Paper) Limits(_ context.Context, req LimitsRequest) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var marginUsed, realized float64

	for _, pos := range p.positions {
		if req.ProductType != "" && pos.productType != req.ProductType {
			continue
		}

		if req.Exchange != "" && pos.exchange != req.Exchange {
			continue
		}

		snap := pos.ledger.Snapshot()
		marginUsed += math.Abs(float64(snap.Qty)) * snap.AvgPrice
		realized += snap.Realized
	}

	return Response{
		"stat":       "Ok",
		"cash":       p.cash,
		"marginused": marginUsed,
		"rpnl":       realized,
	}, nil
}

func (p *Paper) MarketDepth(_ context.Context, exchange string, symbol string) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mark, ok := p.marks[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeMarketDataMissing, "no last price for %s", symbol)
	}

	return Response{
		"stat": "Ok",
		"exch": exchange,
		"tsym": symbol,
		"lp":   mark,
		"bp1":  mark,
		"sp1":  mark,
	}, nil
}

// TimePriceSeries buckets recorded marks into OHLC bars. A zero interval
// returns every recorded mark.
func (p *Paper) TimePriceSeries(_ context.Context, req SeriesRequest) ([]Response, error) {
	p.mu.Lock()
	points := make([]seriesPoint, 0, len(p.series[req.Symbol]))

	for _, pt := range p.series[req.Symbol] {
		if !req.Start.IsZero() && pt.ts.Before(req.Start) {
			continue
		}

		if !req.End.IsZero() && pt.ts.After(req.End) {
			continue
		}

		points = append(points, pt)
	}
	p.mu.Unlock()

	if len(points) == 0 {
		return nil, nil
	}

	interval := req.Interval
	if interval <= 0 {
		out := make([]Response, len(points))
		for i, pt := range points {
			out[i] = bar(pt.ts, pt.price, pt.price, pt.price, pt.price)
		}

		return out, nil
	}

	out := make([]Response, 0)
	bucket := points[0].ts.Truncate(interval)
	open, high, low, last := points[0].price, points[0].price, points[0].price, points[0].price

	for _, pt := range points[1:] {
		if b := pt.ts.Truncate(interval); !b.Equal(bucket) {
			out = append(out, bar(bucket, open, high, low, last))
			bucket = b
			open, high, low = pt.price, pt.price, pt.price
		}

		high = math.Max(high, pt.price)
		low = math.Min(low, pt.price)
		last = pt.price
	}

	return append(out, bar(bucket, open, high, low, last)), nil
}

func bar(ts time.Time, open, high, low, last float64) Response {
	return Response{
		"time":  ts.Format(timeLayout),
		"ssboe": ts.Unix(),
		"into":  open,
		"inth":  high,
		"intl":  low,
		"intc":  last,
	}
}

var (
	_ Broker       = (*Paper)(nil)
	_ FillNotifier = (*Paper)(nil)
)
