// Package server exposes the exchange over an HTTP/JSON API. Handlers are
// thin: decode, call the engine, map the error taxonomy to status codes.
// The caller is identified by the X-Actor-ID header; there is no
// authentication layer here, that belongs to the gateway in front.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/engine"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/observability"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/query"
)

const actorHeader = "X-Actor-ID"

// Server serves the HTTP API. The history service is optional; without it
// the audit-history routes are not registered.
type Server struct {
	ex      *engine.Exchange
	history *query.Service
	metrics *observability.Metrics
	health  *observability.HealthChecker
	log     zerolog.Logger
}

func NewServer(ex *engine.Exchange, history *query.Service, metrics *observability.Metrics, health *observability.HealthChecker) *Server {
	return &Server{
		ex:      ex,
		history: history,
		metrics: metrics,
		health:  health,
		log:     observability.NewLogger("http"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/deposit", s.instrument("deposit", s.handleDeposit))
	mux.HandleFunc("GET /v1/balance/{user}", s.instrument("balance", s.handleBalance))

	mux.HandleFunc("POST /v1/markets", s.instrument("create_market", s.handleCreateMarket))
	mux.HandleFunc("GET /v1/markets", s.instrument("list_markets", s.handleListMarkets))
	mux.HandleFunc("GET /v1/markets/{id}", s.instrument("get_market", s.handleGetMarket))

	mux.HandleFunc("POST /v1/markets/{id}/buy", s.instrument("buy", s.handleBuy))
	mux.HandleFunc("POST /v1/markets/{id}/sell", s.instrument("sell", s.handleSell))
	mux.HandleFunc("POST /v1/markets/{id}/quote/buy", s.instrument("quote_buy", s.handleQuoteBuy))
	mux.HandleFunc("POST /v1/markets/{id}/quote/sell", s.instrument("quote_sell", s.handleQuoteSell))

	mux.HandleFunc("POST /v1/markets/{id}/resolve", s.instrument("resolve", s.handleResolve))
	mux.HandleFunc("POST /v1/markets/{id}/freeze", s.instrument("freeze", s.handleFreeze))
	mux.HandleFunc("POST /v1/markets/{id}/claim", s.instrument("claim", s.handleClaim))
	mux.HandleFunc("GET /v1/markets/{id}/settlement", s.instrument("settlement", s.handleSettlement))

	mux.HandleFunc("GET /v1/markets/{id}/position", s.instrument("position", s.handlePosition))
	mux.HandleFunc("GET /v1/positions", s.instrument("positions", s.handlePositions))
	mux.HandleFunc("GET /v1/claims", s.instrument("claims", s.handleClaims))

	mux.HandleFunc("GET /v1/admin", s.instrument("get_admin", s.handleGetAdmin))
	mux.HandleFunc("POST /v1/admin", s.instrument("set_admin", s.handleSetAdmin))

	if s.history != nil {
		mux.HandleFunc("GET /v1/markets/{id}/history", s.instrument("market_history", s.handleMarketHistory))
		mux.HandleFunc("GET /v1/history", s.instrument("user_history", s.handleUserHistory))
	}

	mux.HandleFunc("GET /healthz", s.health.LivenessHandler)
	mux.HandleFunc("GET /readyz", s.health.ReadinessHandler)

	return mux
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.HTTPRequests.WithLabelValues(route, http.StatusText(rec.status)).Inc()
		s.metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// actor extracts the caller from the X-Actor-ID header.
func actor(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(actorHeader)
	if raw == "" {
		return uuid.Nil, errors.New("missing " + actorHeader + " header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("malformed " + actorHeader + " header")
	}
	return id, nil
}

func parseUser(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps the engine's error taxonomy to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrMarketNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, market.ErrMarketClosed),
		errors.Is(err, market.ErrMarketResolved),
		errors.Is(err, market.ErrAlreadyClaimed):
		status = http.StatusConflict
	case errors.Is(err, market.ErrInsufficientDeposit),
		errors.Is(err, market.ErrInsufficientLiquidity),
		errors.Is(err, market.ErrSlippageExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, market.ErrInvalidAmount),
		errors.Is(err, market.ErrNoWinningTokens):
		status = http.StatusBadRequest
	default:
		s.log.Error().Err(err).Msg("internal error")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
