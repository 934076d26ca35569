package feed

import (
	"strconv"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/types"
)

// Wire message types.
const (
	MessageConnectAck   = "ck"
	MessageSubscribe    = "t"
	MessageTouchline    = "tk"
	MessageTouchlineUpd = "tf"
)

// Normalizer converts touchline messages to ticks. Partial updates without a
// last price reuse the last price seen for the same token.
type Normalizer struct {
	mu        sync.Mutex
	lastPrice map[string]float64
	now       func() time.Time
}

// NewNormalizer creates an empty normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		mu:        sync.Mutex{},
		lastPrice: make(map[string]float64),
		now:       time.Now,
	}
}

// Normalize returns the tick for a tk/tf message. The symbol is
// "<exchange>|<token>". Other message types, messages without a token and
// tokens with no known price yield false.
func (n *Normalizer) Normalize(msg map[string]any) (types.Tick, bool) {
	kind, _ := msg["t"].(string)
	if kind != MessageTouchline && kind != MessageTouchlineUpd {
		return types.Tick{}, false
	}

	token := stringField(msg, "tk")
	if token == "" {
		return types.Tick{}, false
	}

	symbol := token
	if exchange := stringField(msg, "e"); exchange != "" {
		symbol = exchange + "|" + token
	}

	n.mu.Lock()
	price, ok := floatField(msg, "lp")
	if ok {
		n.lastPrice[symbol] = price
	} else {
		price, ok = n.lastPrice[symbol]
	}
	n.mu.Unlock()

	if !ok {
		return types.Tick{}, false
	}

	return types.Tick{
		Symbol:    symbol,
		LastPrice: price,
		Timestamp: n.timestamp(msg),
		Raw:       msg,
	}, true
}

// LastPrice returns the carried-forward price of a symbol.
func (n *Normalizer) LastPrice(symbol string) (float64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.lastPrice[symbol]

	return p, ok
}

// timestamp reads the feed time "ft" in epoch seconds or milliseconds.
func (n *Normalizer) timestamp(msg map[string]any) time.Time {
	ft, ok := floatField(msg, "ft")
	if !ok || ft <= 0 {
		return n.now()
	}

	if ft > 1e12 {
		return time.UnixMilli(int64(ft)).UTC()
	}

	return time.Unix(int64(ft), 0).UTC()
}

func stringField(msg map[string]any, key string) string {
	switch v := msg[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// floatField accepts JSON numbers and numeric strings.
func floatField(msg map[string]any, key string) (float64, bool) {
	switch v := msg[key].(type) {
	case float64:
		return v, true
	case string:
		if v == "" {
			return 0, false
		}

		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}
