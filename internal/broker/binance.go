package broker

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

const (
	binanceTradeLimit = 500
	binanceDepthLimit = 5
)

// quoteAssets are the balances counted as cash by Limits.
var quoteAssets = map[string]bool{"USDT": true, "BUSD": true, "USD": true, "FDUSD": true}

// BinanceConfig holds spot API credentials.
type BinanceConfig struct {
	APIKey    string   `yaml:"api_key" json:"api_key" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string   `yaml:"secret_key" json:"secret_key" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	Testnet   bool     `yaml:"testnet" json:"testnet" jsonschema:"description=Route orders to https://testnet.binance.vision"`
	BaseURL   string   `yaml:"base_url,omitempty" json:"base_url,omitempty" jsonschema:"description=Override the REST endpoint; takes precedence over testnet"`
	Symbols   []string `yaml:"symbols,omitempty" json:"symbols,omitempty" jsonschema:"description=Symbols queried by the trade book"`
}

// Validate checks that credentials are present.
func (c BinanceConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance broker config", err)
	}

	return nil
}

// Binance routes orders to Binance spot. Orders that execute on submission
// are reported through the fill handler.
type Binance struct {
	client  BinanceClient
	symbols []string
	onFill  FillHandler
	log     *logger.Logger
}

// NewBinance creates a broker against the live or testnet REST API.
func NewBinance(cfg BinanceConfig, log *logger.Logger) (*Binance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Testnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	return newBinanceWithClient(&realBinanceClient{client: client}, cfg.Symbols, log), nil
}

func newBinanceWithClient(client BinanceClient, symbols []string, log *logger.Logger) *Binance {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Binance{
		client:  client,
		symbols: symbols,
		onFill:  nil,
		log:     log.Named("binance"),
	}
}

// OnFill registers the execution callback. Not safe to call concurrently with
// order placement.
func (b *Binance) OnFill(handler FillHandler) {
	b.onFill = handler
}

func (b *Binance) PlaceOrder(ctx context.Context, req types.OrderRequest) (Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Quantity <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidOrder, "order quantity must be positive")
	}

	side := binance.SideTypeBuy
	if req.Side == types.SideSell {
		side = binance.SideTypeSell
	}

	service := b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Quantity(strconv.FormatInt(req.Quantity, 10))

	switch req.PriceType {
	case types.PriceTypeLimit, types.PriceTypeStopLimit:
		price, err := req.Price.Take()
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeInvalidOrder, "%s order requires a price", req.PriceType)
		}

		orderType := binance.OrderTypeLimit
		if req.PriceType == types.PriceTypeStopLimit {
			trigger, err := req.TriggerPrice.Take()
			if err != nil {
				return nil, errors.New(errors.ErrCodeInvalidOrder, "stop order requires a trigger price")
			}

			orderType = binance.OrderTypeStopLossLimit
			service = service.StopPrice(formatPrice(trigger))
		}

		service = service.Type(orderType).
			Price(formatPrice(price)).
			TimeInForce(binance.TimeInForceTypeGTC)
	case types.PriceTypeStopMarket:
		trigger, err := req.TriggerPrice.Take()
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidOrder, "stop order requires a trigger price")
		}

		service = service.Type(binance.OrderTypeStopLoss).StopPrice(formatPrice(trigger))
	default:
		service = service.Type(binance.OrderTypeMarket)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to place order on Binance", err)
	}

	if resp == nil {
		return nil, nil
	}

	orderID := strconv.FormatInt(resp.OrderID, 10)
	b.log.Debug("order submitted",
		zap.String("order_id", orderID),
		zap.String("symbol", req.Symbol),
		zap.String("status", string(resp.Status)),
	)

	if fill, ok := fillFromResponse(orderID, req, resp); ok && b.onFill != nil {
		b.onFill(ctx, fill)
	}

	return Response{
		"stat":       "Ok",
		"norenordno": orderID,
		"status":     string(resp.Status),
	}, nil
}

// fillFromResponse reports the executed part of an order at its average price.
func fillFromResponse(orderID string, req types.OrderRequest, resp *binance.CreateOrderResponse) (types.OrderUpdate, bool) {
	executed, _ := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	quote, _ := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64)

	if executed <= 0 || quote <= 0 {
		return nil, false
	}

	update := types.NewFill(orderID, req.Side, req.Symbol, int64(executed), quote/executed, req.StrategyName())
	if req.Remarks != "" {
		update["remarks"] = req.Remarks
	}

	return update, true
}

// ModifyOrder cancels the working order and submits a replacement, since
// spot orders cannot be amended in place.
func (b *Binance) ModifyOrder(ctx context.Context, req ModifyRequest) (Response, error) {
	existing, err := b.findOpenOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if _, err := b.cancel(ctx, existing); err != nil {
		return nil, err
	}

	replacement := orderRequestFromBinance(existing)
	replacement.Meta = req.Meta

	if req.Quantity > 0 {
		replacement.Quantity = req.Quantity
	}

	if req.PriceType != "" {
		replacement.PriceType = req.PriceType
	}

	if req.Price.IsSome() {
		replacement.Price = req.Price
	}

	if req.TriggerPrice.IsSome() {
		replacement.TriggerPrice = req.TriggerPrice
	}

	return b.PlaceOrder(ctx, replacement)
}

func (b *Binance) CancelOrder(ctx context.Context, orderID string) (Response, error) {
	existing, err := b.findOpenOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return b.cancel(ctx, existing)
}

func (b *Binance) cancel(ctx context.Context, order *binance.Order) (Response, error) {
	_, err := b.client.NewCancelOrderService().
		Symbol(order.Symbol).
		OrderID(order.OrderID).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to cancel order on Binance", err)
	}

	return Response{"stat": "Ok", "result": strconv.FormatInt(order.OrderID, 10)}, nil
}

// ExitOrder cancels the working order; spot has no cover or bracket legs.
func (b *Binance) ExitOrder(ctx context.Context, orderID string, _ string) (Response, error) {
	return b.CancelOrder(ctx, orderID)
}

// findOpenOrder locates a working order; cancel needs its symbol.
func (b *Binance) findOpenOrder(ctx context.Context, orderID string) (*binance.Order, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err)
	}

	openOrders, err := b.client.NewListOpenOrdersService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to get open orders from Binance", err)
	}

	for _, order := range openOrders {
		if order.OrderID == id {
			return order, nil
		}
	}

	return nil, errors.Newf(errors.ErrCodeOrderNotFound, "order not found: %s", orderID)
}

func (b *Binance) OrderBook(ctx context.Context) ([]Response, error) {
	openOrders, err := b.client.NewListOpenOrdersService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to get open orders from Binance", err)
	}

	out := make([]Response, 0, len(openOrders))
	for _, order := range openOrders {
		out = append(out, binanceOrderResponse(order))
	}

	return out, nil
}

func (b *Binance) SingleOrderHistory(ctx context.Context, orderID string) ([]Response, error) {
	resp, err := b.OrderStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return []Response{resp}, nil
}

func (b *Binance) OrderStatus(ctx context.Context, orderID string) (Response, error) {
	order, err := b.findOpenOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return binanceOrderResponse(order), nil
}

// Positions reports non-zero asset balances.
func (b *Binance) Positions(ctx context.Context) ([]Response, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to get account info from Binance", err)
	}

	out := make([]Response, 0)

	for _, balance := range account.Balances {
		free, _ := strconv.ParseFloat(balance.Free, 64)
		locked, _ := strconv.ParseFloat(balance.Locked, 64)

		if free+locked > 0 {
			out = append(out, Response{
				"tsym":   balance.Asset,
				"netqty": free + locked,
				"free":   free,
				"locked": locked,
			})
		}
	}

	return out, nil
}

func (b *Binance) ConvertPosition(_ context.Context, _ ConvertRequest) (Response, error) {
	return nil, errors.New(errors.ErrCodeUnsupportedOperation, "spot positions cannot be converted")
}

// TradeBook lists account trades for the configured symbols.
func (b *Binance) TradeBook(ctx context.Context) ([]Response, error) {
	out := make([]Response, 0)

	for _, symbol := range b.symbols {
		trades, err := b.client.NewListTradesService().Symbol(symbol).Limit(binanceTradeLimit).Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeBrokerFailure, err, "failed to get trades for %s from Binance", symbol)
		}

		for _, t := range trades {
			side := types.SideSell
			if t.IsBuyer {
				side = types.SideBuy
			}

			qty, _ := strconv.ParseFloat(t.Quantity, 64)
			price, _ := strconv.ParseFloat(t.Price, 64)
			fee, _ := strconv.ParseFloat(t.Commission, 64)

			out = append(out, Response{
				"norenordno": strconv.FormatInt(t.OrderID, 10),
				"tsym":       symbol,
				"trantype":   string(side),
				"fillshares": qty,
				"flprc":      price,
				"fee":        fee,
				"fltm":       time.UnixMilli(t.Time).Format(timeLayout),
			})
		}
	}

	return out, nil
}

// Holdings is the same balance view as Positions, in holdings field names.
func (b *Binance) Holdings(ctx context.Context) ([]Response, error) {
	positions, err := b.Positions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Response, len(positions))
	for i, p := range positions {
		out[i] = Response{"tsym": p["tsym"], "holdqty": p["netqty"]}
	}

	return out, nil
}

// Limits reports free and locked quote-currency balances.
func (b *Binance) Limits(ctx context.Context, _ LimitsRequest) (Response, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to get account info from Binance", err)
	}

	var cash, locked float64

	for _, balance := range account.Balances {
		if !quoteAssets[balance.Asset] {
			continue
		}

		free, _ := strconv.ParseFloat(balance.Free, 64)
		held, _ := strconv.ParseFloat(balance.Locked, 64)
		cash += free
		locked += held
	}

	return Response{"stat": "Ok", "cash": cash, "marginused": locked}, nil
}

func (b *Binance) MarketDepth(ctx context.Context, exchange string, symbol string) (Response, error) {
	depth, err := b.client.NewDepthService().Symbol(symbol).Limit(binanceDepthLimit).Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to get market depth from Binance", err)
	}

	resp := Response{"stat": "Ok", "exch": exchange, "tsym": symbol}

	for i, bid := range depth.Bids {
		level := strconv.Itoa(i + 1)
		resp["bp"+level] = bid.Price
		resp["bq"+level] = bid.Quantity
	}

	for i, ask := range depth.Asks {
		level := strconv.Itoa(i + 1)
		resp["sp"+level] = ask.Price
		resp["sq"+level] = ask.Quantity
	}

	return resp, nil
}

func (b *Binance) TimePriceSeries(ctx context.Context, req SeriesRequest) ([]Response, error) {
	service := b.client.NewKlinesService().Symbol(req.Symbol).Interval(klineInterval(req.Interval))

	if !req.Start.IsZero() {
		service = service.StartTime(req.Start.UnixMilli())
	}

	if !req.End.IsZero() {
		service = service.EndTime(req.End.UnixMilli())
	}

	klines, err := service.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerFailure, "failed to get klines from Binance", err)
	}

	out := make([]Response, 0, len(klines))
	for _, k := range klines {
		ts := time.UnixMilli(k.OpenTime)
		out = append(out, Response{
			"time":  ts.Format(timeLayout),
			"ssboe": ts.Unix(),
			"into":  k.Open,
			"inth":  k.High,
			"intl":  k.Low,
			"intc":  k.Close,
			"v":     k.Volume,
		})
	}

	return out, nil
}

// klineInterval maps a duration to the nearest supported kline interval at or
// below it.
func klineInterval(d time.Duration) string {
	intervals := []struct {
		d    time.Duration
		name string
	}{
		{24 * time.Hour, "1d"},
		{4 * time.Hour, "4h"},
		{time.Hour, "1h"},
		{30 * time.Minute, "30m"},
		{15 * time.Minute, "15m"},
		{5 * time.Minute, "5m"},
	}

	for _, iv := range intervals {
		if d >= iv.d {
			return iv.name
		}
	}

	return "1m"
}

func binanceOrderResponse(order *binance.Order) Response {
	side := types.SideBuy
	if order.Side == binance.SideTypeSell {
		side = types.SideSell
	}

	qty, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	filled, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	price, _ := strconv.ParseFloat(order.Price, 64)

	return Response{
		"norenordno": strconv.FormatInt(order.OrderID, 10),
		"tsym":       order.Symbol,
		"trantype":   string(side),
		"qty":        qty,
		"prc":        price,
		"prctyp":     string(priceTypeFromBinance(order.Type)),
		"status":     mapBinanceOrderStatus(order.Status),
		"fillshares": filled,
		"norentm":    time.UnixMilli(order.Time).Format(timeLayout),
	}
}

func orderRequestFromBinance(order *binance.Order) types.OrderRequest {
	side := types.SideBuy
	if order.Side == binance.SideTypeSell {
		side = types.SideSell
	}

	qty, _ := strconv.ParseFloat(order.OrigQuantity, 64)

	return types.OrderRequest{
		OrderID:      strconv.FormatInt(order.OrderID, 10),
		Side:         side,
		ProductType:  types.DefaultProductType,
		Exchange:     "",
		Symbol:       order.Symbol,
		Quantity:     int64(qty),
		PriceType:    priceTypeFromBinance(order.Type),
		Price:        positivePrice(order.Price),
		TriggerPrice: positivePrice(order.StopPrice),
		Retention:    types.DefaultRetention,
		Remarks:      "",
		Meta:         nil,
	}
}

func positivePrice(s string) optional.Option[float64] {
	if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
		return optional.Some(v)
	}

	return optional.None[float64]()
}

func priceTypeFromBinance(orderType binance.OrderType) types.PriceType {
	switch orderType {
	case binance.OrderTypeMarket:
		return types.PriceTypeMarket
	case binance.OrderTypeStopLossLimit:
		return types.PriceTypeStopLimit
	case binance.OrderTypeStopLoss:
		return types.PriceTypeStopMarket
	default:
		return types.PriceTypeLimit
	}
}

// mapBinanceOrderStatus maps Binance order states onto the broker-neutral names.
func mapBinanceOrderStatus(status binance.OrderStatusType) string {
	switch status {
	case binance.OrderStatusTypeNew, binance.OrderStatusTypePartiallyFilled:
		return "OPEN"
	case binance.OrderStatusTypeFilled:
		return StatusComplete
	case binance.OrderStatusTypeCanceled:
		return StatusCanceled
	case binance.OrderStatusTypeRejected:
		return "REJECTED"
	default:
		return "EXPIRED"
	}
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

var (
	_ Broker       = (*Binance)(nil)
	_ FillNotifier = (*Binance)(nil)
)
