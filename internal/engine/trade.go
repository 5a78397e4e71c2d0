package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/amm"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/feed"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

// Buy spends amountIn base currency on side claims. minTokensOut is the
// caller's slippage bound; zero disables the check. Any failure leaves the
// market, the balance, and the position untouched.
func (e *Exchange) Buy(user uuid.UUID, marketID uint64, side market.Outcome, amountIn, minTokensOut uint64) (market.TradeResult, error) {
	start := time.Now()

	lock, ok := e.store.MarketLock(marketID)
	if !ok {
		e.metrics.TradesRejected.WithLabelValues("buy", rejectReason(market.ErrMarketNotFound)).Inc()
		return market.TradeResult{}, market.ErrMarketNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	m, _ := e.store.Market(marketID)
	if m.Status != market.StatusOpen {
		e.metrics.TradesRejected.WithLabelValues("buy", rejectReason(market.ErrMarketClosed)).Inc()
		return market.TradeResult{}, market.ErrMarketClosed
	}

	q, err := amm.QuoteBuy(m.YesReserve, m.NoReserve, side, amountIn, e.cfg.FeeBps)
	if err != nil {
		e.metrics.TradesRejected.WithLabelValues("buy", rejectReason(err)).Inc()
		return market.TradeResult{}, err
	}
	if minTokensOut > 0 && q.AmountOut < minTokensOut {
		e.metrics.TradesRejected.WithLabelValues("buy", rejectReason(market.ErrSlippageExceeded)).Inc()
		return market.TradeResult{}, market.ErrSlippageExceeded
	}

	if err := e.store.Debit(user, amountIn); err != nil {
		e.metrics.TradesRejected.WithLabelValues("buy", rejectReason(err)).Inc()
		return market.TradeResult{}, err
	}

	m.YesReserve = q.NewYesReserve
	m.NoReserve = q.NewNoReserve
	m.LiquidityPool += amountIn - q.Fee
	m.TotalFeesCollected += q.Fee
	m.TotalVolume += amountIn
	e.store.UpdateMarket(m)

	pos, ok := e.store.Position(user, marketID)
	if !ok {
		pos = market.UserPosition{User: user, MarketID: marketID}
	}
	pos.AddTokens(side, q.AmountOut)
	e.store.UpsertPosition(pos)

	batch := ledger.NewBatch()
	batch.Add(marketID, ledger.EntryTradeBuy,
		ledger.MarketPoolAccount(marketID), ledger.UserCashAccount(user), amountIn-q.Fee)
	batch.Add(marketID, ledger.EntryTradeFee,
		ledger.MarketFeesAccount(marketID), ledger.UserCashAccount(user), q.Fee)

	e.record(batch, feed.NewEvent(feed.TypeTradeExecuted, marketID, user, feed.TradePayload{
		Direction:     "buy",
		Side:          side,
		AmountIn:      amountIn,
		AmountOut:     q.AmountOut,
		Fee:           q.Fee,
		NewYesReserve: q.NewYesReserve,
		NewNoReserve:  q.NewNoReserve,
	}))

	e.metrics.TradesExecuted.WithLabelValues(side.String(), "buy").Inc()
	e.metrics.TradeVolume.Add(float64(amountIn))
	e.metrics.FeesCollected.Add(float64(q.Fee))
	e.metrics.TradeDuration.WithLabelValues("buy").Observe(time.Since(start).Seconds())

	e.log.Info().
		Uint64("market", marketID).
		Str("user", user.String()).
		Str("side", side.String()).
		Uint64("amount_in", amountIn).
		Uint64("tokens_out", q.AmountOut).
		Uint64("fee", q.Fee).
		Msg("buy executed")

	return market.TradeResult{
		TokensReceived: q.AmountOut,
		TokensPaid:     amountIn,
		FeePaid:        q.Fee,
		NewPrice:       amm.Price(q.NewYesReserve, q.NewNoReserve, side),
	}, nil
}

// Sell trades tokensIn side claims back into the pool for base currency.
// minAmountOut is the caller's slippage bound on the net payout; zero
// disables the check.
func (e *Exchange) Sell(user uuid.UUID, marketID uint64, side market.Outcome, tokensIn, minAmountOut uint64) (market.TradeResult, error) {
	start := time.Now()

	lock, ok := e.store.MarketLock(marketID)
	if !ok {
		e.metrics.TradesRejected.WithLabelValues("sell", rejectReason(market.ErrMarketNotFound)).Inc()
		return market.TradeResult{}, market.ErrMarketNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	m, _ := e.store.Market(marketID)
	if m.Status != market.StatusOpen {
		e.metrics.TradesRejected.WithLabelValues("sell", rejectReason(market.ErrMarketClosed)).Inc()
		return market.TradeResult{}, market.ErrMarketClosed
	}

	pos, ok := e.store.Position(user, marketID)
	if !ok || pos.Tokens(side) < tokensIn {
		e.metrics.TradesRejected.WithLabelValues("sell", rejectReason(market.ErrInvalidAmount)).Inc()
		return market.TradeResult{}, market.ErrInvalidAmount
	}

	q, err := amm.QuoteSell(m.YesReserve, m.NoReserve, side, tokensIn, e.cfg.FeeBps)
	if err != nil {
		e.metrics.TradesRejected.WithLabelValues("sell", rejectReason(err)).Inc()
		return market.TradeResult{}, err
	}
	if minAmountOut > 0 && q.AmountOut < minAmountOut {
		e.metrics.TradesRejected.WithLabelValues("sell", rejectReason(market.ErrSlippageExceeded)).Inc()
		return market.TradeResult{}, market.ErrSlippageExceeded
	}

	// The pool pays out the gross amount; the fee portion moves to the fee
	// account rather than leaving the market.
	gross := q.AmountOut + q.Fee
	if gross > m.LiquidityPool {
		e.metrics.TradesRejected.WithLabelValues("sell", rejectReason(market.ErrInsufficientLiquidity)).Inc()
		return market.TradeResult{}, market.ErrInsufficientLiquidity
	}

	m.YesReserve = q.NewYesReserve
	m.NoReserve = q.NewNoReserve
	m.LiquidityPool -= gross
	m.TotalFeesCollected += q.Fee
	m.TotalVolume += gross
	e.store.UpdateMarket(m)

	pos.SubTokens(side, tokensIn)
	e.store.UpsertPosition(pos)

	if _, err := e.store.Credit(user, q.AmountOut); err != nil {
		// Credit only fails on balance overflow, after the market has already
		// been updated; treat it as fatal bookkeeping corruption.
		panic("engine: sell payout overflowed user balance")
	}

	batch := ledger.NewBatch()
	batch.Add(marketID, ledger.EntryTradeSell,
		ledger.UserCashAccount(user), ledger.MarketPoolAccount(marketID), q.AmountOut)
	batch.Add(marketID, ledger.EntryTradeFee,
		ledger.MarketFeesAccount(marketID), ledger.MarketPoolAccount(marketID), q.Fee)

	e.record(batch, feed.NewEvent(feed.TypeTradeExecuted, marketID, user, feed.TradePayload{
		Direction:     "sell",
		Side:          side,
		AmountIn:      tokensIn,
		AmountOut:     q.AmountOut,
		Fee:           q.Fee,
		NewYesReserve: q.NewYesReserve,
		NewNoReserve:  q.NewNoReserve,
	}))

	e.metrics.TradesExecuted.WithLabelValues(side.String(), "sell").Inc()
	e.metrics.TradeVolume.Add(float64(gross))
	e.metrics.FeesCollected.Add(float64(q.Fee))
	e.metrics.TradeDuration.WithLabelValues("sell").Observe(time.Since(start).Seconds())

	e.log.Info().
		Uint64("market", marketID).
		Str("user", user.String()).
		Str("side", side.String()).
		Uint64("tokens_in", tokensIn).
		Uint64("amount_out", q.AmountOut).
		Uint64("fee", q.Fee).
		Msg("sell executed")

	return market.TradeResult{
		TokensReceived: q.AmountOut,
		TokensPaid:     tokensIn,
		FeePaid:        q.Fee,
		NewPrice:       amm.Price(q.NewYesReserve, q.NewNoReserve, side),
	}, nil
}

// QuoteBuy prices a buy without executing it. The market must be open.
func (e *Exchange) QuoteBuy(marketID uint64, side market.Outcome, amountIn uint64) (market.TradeResult, error) {
	m, ok := e.store.Market(marketID)
	if !ok {
		return market.TradeResult{}, market.ErrMarketNotFound
	}
	if m.Status != market.StatusOpen {
		return market.TradeResult{}, market.ErrMarketClosed
	}

	q, err := amm.QuoteBuy(m.YesReserve, m.NoReserve, side, amountIn, e.cfg.FeeBps)
	if err != nil {
		return market.TradeResult{}, err
	}
	return market.TradeResult{
		TokensReceived: q.AmountOut,
		TokensPaid:     amountIn,
		FeePaid:        q.Fee,
		NewPrice:       amm.Price(q.NewYesReserve, q.NewNoReserve, side),
	}, nil
}

// QuoteSell prices a sell without executing it. The market must be open.
// Quotes do not check the caller's holdings.
func (e *Exchange) QuoteSell(marketID uint64, side market.Outcome, tokensIn uint64) (market.TradeResult, error) {
	m, ok := e.store.Market(marketID)
	if !ok {
		return market.TradeResult{}, market.ErrMarketNotFound
	}
	if m.Status != market.StatusOpen {
		return market.TradeResult{}, market.ErrMarketClosed
	}

	q, err := amm.QuoteSell(m.YesReserve, m.NoReserve, side, tokensIn, e.cfg.FeeBps)
	if err != nil {
		return market.TradeResult{}, err
	}
	return market.TradeResult{
		TokensReceived: q.AmountOut,
		TokensPaid:     tokensIn,
		FeePaid:        q.Fee,
		NewPrice:       amm.Price(q.NewYesReserve, q.NewNoReserve, side),
	}, nil
}
