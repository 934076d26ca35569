package feed

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultHeartbeatTimeout = 5 * time.Second
	DefaultInitialBackoff   = 500 * time.Millisecond
	DefaultMaxBackoff       = 30 * time.Second
	DefaultDialTimeout      = 10 * time.Second
)

// ClientConfig configures the websocket tick client.
type ClientConfig struct {
	URL              string        `json:"url" yaml:"url" validate:"required,url" jsonschema:"description=Websocket endpoint of the tick feed,default=ws://localhost:9000"`
	Subscriptions    []string      `json:"subscriptions" yaml:"subscriptions" jsonschema:"description=Instruments as EXCHANGE|TOKEN"`
	HeartbeatTimeout time.Duration `json:"heartbeat_timeout" yaml:"heartbeat_timeout" jsonschema:"description=Silence after which a heartbeat warning is logged,default=5s"`
	InitialBackoff   time.Duration `json:"initial_backoff" yaml:"initial_backoff" jsonschema:"description=First reconnect delay,default=500ms"`
	MaxBackoff       time.Duration `json:"max_backoff" yaml:"max_backoff" jsonschema:"description=Upper bound of the reconnect delay,default=30s"`
}

// DefaultClientConfig points at the local mock feed.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:              "ws://localhost:9000",
		Subscriptions:    []string{},
		HeartbeatTimeout: DefaultHeartbeatTimeout,
		InitialBackoff:   DefaultInitialBackoff,
		MaxBackoff:       DefaultMaxBackoff,
	}
}

// Client reads touchline messages from a websocket, normalizes them and pushes
// ticks into a Sink. It reconnects with exponential backoff until its context
// is cancelled.
type Client struct {
	cfg        ClientConfig
	dialer     *websocket.Dialer
	normalizer *Normalizer
	log        *logger.Logger

	connected   atomic.Bool
	lastMessage atomic.Int64
	messages    atomic.Uint64
	ticks       atomic.Uint64
	dropped     atomic.Uint64
	reconnects  atomic.Uint64
}

var _ Source = (*Client)(nil)

// NewClient creates a client. Zero durations fall back to defaults.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = DefaultHeartbeatTimeout
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}

	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}

	return &Client{
		cfg:        cfg,
		dialer:     &websocket.Dialer{HandshakeTimeout: DefaultDialTimeout},
		normalizer: NewNormalizer(),
		log:        log.Named("feed"),

		connected:   atomic.Bool{},
		lastMessage: atomic.Int64{},
		messages:    atomic.Uint64{},
		ticks:       atomic.Uint64{},
		dropped:     atomic.Uint64{},
		reconnects:  atomic.Uint64{},
	}
}

// Normalizer exposes the carry-forward state.
func (c *Client) Normalizer() *Normalizer {
	return c.normalizer
}

// Connected reports whether a session is currently acknowledged.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Stats returns the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Messages:   c.messages.Load(),
		Ticks:      c.ticks.Load(),
		Dropped:    c.dropped.Load(),
		Reconnects: c.reconnects.Load(),
	}
}

// Run connects, subscribes and streams until ctx is cancelled, which is not
// an error.
func (c *Client) Run(ctx context.Context, sink Sink) error {
	go c.heartbeat(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	attempt := 0

	operation := func() error {
		if attempt > 0 {
			c.reconnects.Add(1)
		}
		attempt++

		err := c.session(ctx, sink, b.Reset)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		return err
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn("feed disconnected, reconnecting",
			zap.Error(err),
			zap.Duration("retry_in", wait),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
	if ctx.Err() != nil {
		c.log.Info("feed stopped")

		return nil
	}

	return errors.Wrap(errors.ErrCodeFeedConnectFailed, "feed gave up reconnecting", err)
}

// session runs one connection until it fails. onReady is called once the
// server has acknowledged the connection.
func (c *Client) session(ctx context.Context, sink Sink, onReady func()) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeFeedConnectFailed, err, "failed to dial %s", c.cfg.URL)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var ack map[string]any
	if err := conn.ReadJSON(&ack); err != nil {
		return errors.Wrap(errors.ErrCodeFeedReadFailed, "failed to read connect acknowledgement", err)
	}

	if ack["t"] != MessageConnectAck || ack["s"] != "OK" {
		return errors.Newf(errors.ErrCodeFeedConnectFailed, "connection not acknowledged: %v", ack)
	}

	if len(c.cfg.Subscriptions) > 0 {
		sub := map[string]string{"t": MessageSubscribe, "k": strings.Join(c.cfg.Subscriptions, "#")}
		if err := conn.WriteJSON(sub); err != nil {
			return errors.Wrap(errors.ErrCodeFeedConnectFailed, "failed to subscribe", err)
		}
	}

	c.connected.Store(true)
	defer c.connected.Store(false)

	c.touch()
	onReady()
	c.log.Info("feed connected",
		zap.String("url", c.cfg.URL),
		zap.Strings("subscriptions", c.cfg.Subscriptions),
	)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(errors.ErrCodeFeedReadFailed, "feed read failed", err)
		}

		c.touch()
		c.messages.Add(1)

		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("unparseable feed message", zap.Error(errors.Wrap(errors.ErrCodeFeedParseFailed, "invalid json", err)))

			continue
		}

		tick, ok := c.normalizer.Normalize(msg)
		if !ok {
			continue
		}

		c.ticks.Add(1)

		if !sink(tick) {
			c.dropped.Add(1)
		}
	}
}

func (c *Client) touch() {
	c.lastMessage.Store(time.Now().UnixNano())
}

// heartbeat warns while the feed has been silent longer than the timeout.
func (c *Client) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last := c.lastMessage.Load()
			if last == 0 || !c.connected.Load() {
				continue
			}

			silence := time.Since(time.Unix(0, last))
			if silence > c.cfg.HeartbeatTimeout {
				c.log.Warn("feed heartbeat timeout", zap.Duration("silence", silence))
			}
		}
	}
}
