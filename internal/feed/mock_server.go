package feed

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

// Mode selects the price action of the mock feed.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeMomentum  Mode = "momentum"
	ModeCrash     Mode = "crash"
	ModeOscillate Mode = "oscillate"
	ModeFlat      Mode = "flat"
)

const DefaultMockInterval = 900 * time.Millisecond

// ParseMode accepts the five mode names, case-insensitive.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeNormal, ModeMomentum, ModeCrash, ModeOscillate, ModeFlat:
		return m, true
	default:
		return "", false
	}
}

// MockServerConfig configures the mock feed.
type MockServerConfig struct {
	Mode     Mode
	Interval time.Duration
	Seed     int64
}

type mockSymbolState struct {
	open, high, low, last float64
	volume                int64
	start                 time.Time
}

// MockServer is a local websocket feed speaking the touchline protocol. The
// mode can be overridden per connection with ?mode=.
type MockServer struct {
	cfg      MockServerConfig
	upgrader websocket.Upgrader
	log      *logger.Logger

	httpServer *http.Server
	listener   net.Listener

	mu    sync.Mutex
	rng   *rand.Rand
	state map[string]*mockSymbolState

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMockServer creates a server. It does not listen until Start.
func NewMockServer(cfg MockServerConfig, log *logger.Logger) *MockServer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultMockInterval
	}

	if cfg.Mode == "" {
		cfg.Mode = ModeNormal
	}

	return &MockServer{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:        log.Named("mock-feed"),
		httpServer: nil,
		listener:   nil,
		mu:         sync.Mutex{},
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		state:      make(map[string]*mockSymbolState),
		stop:       make(chan struct{}),
		stopOnce:   sync.Once{},
		wg:         sync.WaitGroup{},
	}
}

// Handler returns the websocket router, for use with httptest.
func (s *MockServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleWebSocket)

	return router
}

// Start listens on address (":0" when empty) and serves in the background.
func (s *MockServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeFeedConnectFailed, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("mock feed server error", zap.Error(err))
		}
	}()

	s.log.Info("mock feed listening", zap.String("url", s.URL()), zap.String("mode", string(s.cfg.Mode)))

	return nil
}

// Stop closes every connection and the listener.
func (s *MockServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.wg.Wait()

	return err
}

// URL is the websocket address of a started server.
func (s *MockServer) URL() string {
	if s.listener == nil {
		return ""
	}

	return "ws://" + s.listener.Addr().String()
}

func (s *MockServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	mode := s.cfg.Mode
	if q := r.URL.Query().Get("mode"); q != "" {
		if m, ok := ParseMode(q); ok {
			mode = m
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.wg.Add(1)
	defer s.wg.Done()

	if err := conn.WriteJSON(map[string]string{"t": MessageConnectAck, "s": "OK"}); err != nil {
		return
	}

	var (
		subMu      sync.Mutex
		subscribed []string
		pushing    bool
	)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-s.stop:
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg["t"] != MessageSubscribe {
			continue
		}

		keys, _ := msg["k"].(string)

		subMu.Lock()
		subscribed = strings.Split(keys, "#")
		start := !pushing
		pushing = true
		subMu.Unlock()

		s.log.Info("mock feed subscription", zap.Strings("symbols", subscribed), zap.String("mode", string(mode)))

		if start {
			s.wg.Add(1)

			go func() {
				defer s.wg.Done()
				defer conn.Close()

				s.push(conn, mode, done, func() []string {
					subMu.Lock()
					defer subMu.Unlock()

					return append([]string(nil), subscribed...)
				})
			}()
		}
	}
}

func (s *MockServer) push(conn *websocket.Conn, mode Mode, done <-chan struct{}, symbols func() []string) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		for _, symbol := range symbols() {
			tick, ok := s.NextTick(symbol, mode)
			if !ok {
				continue
			}

			data, err := json.Marshal(tick)
			if err != nil {
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}

		select {
		case <-s.stop:
			return
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// NextTick advances the price of an "EXCHANGE|TOKEN" symbol under mode and
// returns the touchline message. Malformed symbols yield false.
func (s *MockServer) NextTick(symbol string, mode Mode) (map[string]string, bool) {
	exchange, token, ok := strings.Cut(symbol, "|")
	if !ok || exchange == "" || token == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.state[symbol]
	if !exists {
		base := s.uniform(100, 500)
		st = &mockSymbolState{open: base, high: base, low: base, last: base, volume: 0, start: time.Now()}
		s.state[symbol] = st
	}

	var price float64

	switch mode {
	case ModeMomentum:
		price = st.last + s.uniform(0.4, 2.0)
	case ModeCrash:
		price = st.last - s.uniform(0.4, 2.0)
	case ModeOscillate:
		price = st.open + math.Sin(time.Since(st.start).Seconds()*2)*3
	case ModeFlat:
		price = st.last + s.uniform(-0.1, 0.1)
	default:
		price = st.last + s.uniform(-2.0, 2.0)
	}

	price = math.Round(math.Max(price, 1)*100) / 100

	st.last = price
	st.high = math.Max(st.high, price)
	st.low = math.Min(st.low, price)
	st.volume += int64(10 + s.rng.Intn(291))

	return map[string]string{
		"t":   MessageTouchline,
		"e":   exchange,
		"tk":  token,
		"ts":  "MOCKSYM",
		"lp":  formatFloat(price),
		"o":   formatFloat(st.open),
		"h":   formatFloat(st.high),
		"l":   formatFloat(st.low),
		"v":   strconv.FormatInt(st.volume, 10),
		"ft":  strconv.FormatInt(time.Now().UnixMilli(), 10),
		"bp1": formatFloat(math.Round((price-0.5)*100) / 100),
		"sp1": formatFloat(math.Round((price+0.5)*100) / 100),
		"bq1": strconv.Itoa(1 + s.rng.Intn(1000)),
		"sq1": strconv.Itoa(1 + s.rng.Intn(1000)),
	}, true
}

// uniform must be called with mu held.
func (s *MockServer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
