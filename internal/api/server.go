// Package api exposes the runtime over a small JSON control plane.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/engine"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/order"
	"github.com/rxtech-lab/argo-runtime/internal/portfolio"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultAddr     = "127.0.0.1:8080"
	shutdownTimeout = 5 * time.Second
)

// Config configures the control plane listener.
type Config struct {
	Enabled bool   `json:"enabled" yaml:"enabled" jsonschema:"description=Serve the HTTP control plane,default=true"`
	Addr    string `json:"addr" yaml:"addr" validate:"required_if=Enabled true" jsonschema:"description=Listen address,default=127.0.0.1:8080"`
}

// DefaultConfig listens on localhost:8080.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Addr:    DefaultAddr,
	}
}

// Server serves the control plane.
type Server struct {
	engine    engine.DispatchEngine
	portfolio *portfolio.Portfolio
	orders    *order.Manager
	router    *mux.Router
	log       *logger.Logger
}

// NewServer wires the routes.
func NewServer(dispatch engine.DispatchEngine, p *portfolio.Portfolio, orders *order.Manager, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Server{
		engine:    dispatch,
		portfolio: p,
		orders:    orders,
		router:    mux.NewRouter(),
		log:       log.Named("api"),
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/strategies", s.handleListStrategies).Methods(http.MethodGet)
	s.router.HandleFunc("/strategies/{name}", s.handleDeleteStrategy).Methods(http.MethodDelete)
	s.router.HandleFunc("/strategies/{name}/performance", s.handleStrategyPerformance).Methods(http.MethodGet)

	s.router.HandleFunc("/portfolio", s.handlePortfolio).Methods(http.MethodGet)
	s.router.HandleFunc("/portfolio/performance", s.handlePortfolioPerformance).Methods(http.MethodGet)

	s.router.HandleFunc("/engine/stats", s.handleEngineStats).Methods(http.MethodGet)

	s.router.HandleFunc("/risk/kill-switch", s.handleGetKillSwitch).Methods(http.MethodGet)
	s.router.HandleFunc("/risk/kill-switch", s.handleSetKillSwitch).Methods(http.MethodPost)
	s.router.HandleFunc("/risk/policies/{name}", s.handleGetPolicy).Methods(http.MethodGet)
	s.router.HandleFunc("/risk/policies/{name}", s.handleSetPolicy).Methods(http.MethodPut)

	s.router.Use(s.logRequests)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", addr)
	}

	return s.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("control plane listening", zap.String("addr", listener.Addr().String()))
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}

		return errors.Wrap(errors.ErrCodeInternal, "control plane stopped", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "control plane shutdown failed", err)
		}

		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Engine: string(s.engine.Stats().Status)})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, _ *http.Request) {
	names := s.engine.List()
	out := make([]StrategySummary, 0, len(names))

	for _, name := range names {
		summary := StrategySummary{Name: name, Symbol: "", Position: types.PnLSnapshot{}, Equity: 0}

		if st, ok := s.portfolio.Get(name); ok {
			summary.Symbol = st.Context().Symbol()
			summary.Position = st.Context().PnL().Snapshot()
			summary.Equity = st.Context().Equity()
		}

		out = append(out, summary)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.engine.Unregister(name); err != nil {
		writeError(w, err)

		return
	}

	s.log.Info("strategy unregistered via api", zap.String("strategy", name))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStrategyPerformance(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	st, ok := s.portfolio.Get(name)
	if !ok {
		writeError(w, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name))

		return
	}

	writeJSON(w, http.StatusOK, st.Context().PerformanceReport(optional.None[float64]()))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.portfolio.Snapshot())
}

func (s *Server) handlePortfolioPerformance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.portfolio.PerformanceReport())
}

func (s *Server) handleEngineStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) killSwitchState() KillSwitchState {
	riskEngine := s.orders.Risk()

	return KillSwitchState{Enabled: riskEngine.KillSwitchActive(), Reason: riskEngine.KillSwitchReason()}
}

func (s *Server) handleGetKillSwitch(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.killSwitchState())
}

func (s *Server) handleSetKillSwitch(w http.ResponseWriter, r *http.Request) {
	var req KillSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid kill switch request", err))

		return
	}

	if req.Enabled {
		reason := req.Reason
		if reason == "" {
			reason = "manual"
		}

		s.orders.Risk().EnableKillSwitch(reason)
	} else {
		s.orders.Risk().DisableKillSwitch()
	}

	writeJSON(w, http.StatusOK, s.killSwitchState())
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	policy, ok := s.orders.Risk().Policy(name)
	if !ok {
		writeError(w, errors.Newf(errors.ErrCodeStrategyNotFound, "no risk policy for %q", name))

		return
	}

	writeJSON(w, http.StatusOK, policy)
}

func (s *Server) handleSetPolicy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	policy := types.DefaultRiskPolicy()
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid risk policy body", err))

		return
	}

	if err := s.orders.SetRiskPolicy(name, policy); err != nil {
		writeError(w, err)

		return
	}

	s.log.Info("risk policy updated via api", zap.String("strategy", name))
	writeJSON(w, http.StatusOK, policy)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), ErrorResponse{Error: err.Error(), Code: int(code)})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeStrategyNotFound, errors.ErrCodeDataNotFound, errors.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case errors.ErrCodeStrategyAlreadyExists:
		return http.StatusConflict
	case errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidRiskPolicy, errors.ErrCodeMissingParameter, errors.ErrCodeInvalidConfiguration:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
