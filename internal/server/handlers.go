package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

func marketID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// === Balances ===

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Amount uint64 `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	balance, err := s.ex.Deposit(user, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": balance})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	user, err := parseUser(r.PathValue("user"))
	if err != nil {
		writeBadRequest(w, "malformed user id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": s.ex.BalanceOf(user)})
}

// === Markets ===

func (s *Server) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	creator, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Title            string `json:"title"`
		Description      string `json:"description"`
		InitialLiquidity uint64 `json:"initial_liquidity"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	m, err := s.ex.CreateMarket(creator, req.Title, req.Description, req.InitialLiquidity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ex.Markets())
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}
	summary, err := s.ex.MarketByID(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// === Trading ===

type tradeRequest struct {
	Side   string `json:"side"`
	Amount uint64 `json:"amount"`
	Min    uint64 `json:"min_out"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.ex.Buy)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.ex.Sell)
}

func (s *Server) handleTrade(
	w http.ResponseWriter,
	r *http.Request,
	exec func(user uuid.UUID, id uint64, side market.Outcome, amount, min uint64) (market.TradeResult, error),
) {
	user, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}

	var req tradeRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	side, err := market.ParseOutcome(req.Side)
	if err != nil {
		writeBadRequest(w, "side must be yes or no")
		return
	}

	res, err := exec(user, id, side, req.Amount, req.Min)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuoteBuy(w http.ResponseWriter, r *http.Request) {
	s.handleQuote(w, r, s.ex.QuoteBuy)
}

func (s *Server) handleQuoteSell(w http.ResponseWriter, r *http.Request) {
	s.handleQuote(w, r, s.ex.QuoteSell)
}

func (s *Server) handleQuote(
	w http.ResponseWriter,
	r *http.Request,
	quote func(id uint64, side market.Outcome, amount uint64) (market.TradeResult, error),
) {
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}

	var req tradeRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	side, err := market.ParseOutcome(req.Side)
	if err != nil {
		writeBadRequest(w, "side must be yes or no")
		return
	}

	res, err := quote(id, side, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// === Settlement ===

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	caller, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}

	var req struct {
		Winner string `json:"winner"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	winner, err := market.ParseOutcome(req.Winner)
	if err != nil {
		writeBadRequest(w, "winner must be yes or no")
		return
	}

	st, err := s.ex.Resolve(caller, id, winner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	caller, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}

	if err := s.ex.Freeze(caller, id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "frozen"})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}

	claim, err := s.ex.Claim(user, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}
	st, err := s.ex.Settlement(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// === Positions and claims ===

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}

	pos, err := s.ex.Position(user, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ex.Positions(user))
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ex.Claims(user))
}

// === Audit history ===

func historyLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeBadRequest(w, "malformed market id")
		return
	}
	entries, err := s.history.EntriesByMarket(r.Context(), id, historyLimit(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	entries, err := s.history.EntriesByUser(r.Context(), user, historyLimit(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// === Admin ===

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"admin": s.ex.Admin().String()})
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	caller, err := actor(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		NewAdmin string `json:"new_admin"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	newAdmin, err := parseUser(req.NewAdmin)
	if err != nil {
		writeBadRequest(w, "new_admin must be a UUID")
		return
	}

	if err := s.ex.SetAdmin(caller, newAdmin); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": newAdmin.String()})
}
