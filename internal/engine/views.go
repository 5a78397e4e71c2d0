package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/amm"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

// Markets returns summaries of all markets ordered by id.
func (e *Exchange) Markets() []market.MarketSummary {
	stored := e.store.Markets()
	out := make([]market.MarketSummary, 0, len(stored))
	for _, m := range stored {
		out = append(out, e.summarize(m))
	}
	return out
}

// MarketByID returns one market's summary.
func (e *Exchange) MarketByID(marketID uint64) (market.MarketSummary, error) {
	m, ok := e.store.Market(marketID)
	if !ok {
		return market.MarketSummary{}, market.ErrMarketNotFound
	}
	return e.summarize(m), nil
}

// Settlement returns the payout snapshot of a resolved market.
func (e *Exchange) Settlement(marketID uint64) (market.Settlement, error) {
	if _, ok := e.store.Market(marketID); !ok {
		return market.Settlement{}, market.ErrMarketNotFound
	}
	st, ok := e.store.Settlement(marketID)
	if !ok {
		return market.Settlement{}, market.ErrMarketClosed
	}
	return st, nil
}

// Position returns the user's holdings in one market. Users who never traded
// the market hold an empty position.
func (e *Exchange) Position(user uuid.UUID, marketID uint64) (market.UserPosition, error) {
	if _, ok := e.store.Market(marketID); !ok {
		return market.UserPosition{}, market.ErrMarketNotFound
	}
	pos, ok := e.store.Position(user, marketID)
	if !ok {
		return market.UserPosition{User: user, MarketID: marketID}, nil
	}
	return pos, nil
}

// Positions returns all of the user's positions ordered by market id.
func (e *Exchange) Positions(user uuid.UUID) []market.UserPosition {
	return e.store.PositionsByUser(user)
}

// Claims returns the user's reward claim history, oldest first.
func (e *Exchange) Claims(user uuid.UUID) []market.RewardClaim {
	return e.store.ClaimsByUser(user)
}

// summarize derives the pricing fields served alongside a market. Price
// impact is only meaningful while the market trades.
func (e *Exchange) summarize(m *market.Market) market.MarketSummary {
	s := market.MarketSummary{
		Market:   *m,
		YesPrice: amm.Price(m.YesReserve, m.NoReserve, market.OutcomeYes),
		NoPrice:  amm.Price(m.YesReserve, m.NoReserve, market.OutcomeNo),
	}
	if m.Status == market.StatusOpen {
		s.PriceImpact = amm.PriceImpact(m.YesReserve, m.NoReserve, e.cfg.FeeBps)
	} else {
		s.PriceImpact = decimal.Zero
	}
	return s
}
