package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/amm"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/feed"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

// CreateMarket opens a new binary market funded from the creator's balance.
// Both reserves start at the configured seed so the opening price is 0.5/0.5.
// The creator becomes the market admin and may resolve it.
func (e *Exchange) CreateMarket(creator uuid.UUID, title, description string, initialLiquidity uint64) (*market.Market, error) {
	if title == "" {
		return nil, market.ErrInvalidAmount
	}
	if initialLiquidity < e.cfg.MinInitialLiquidity {
		return nil, market.ErrInsufficientDeposit
	}
	if err := e.store.Debit(creator, initialLiquidity); err != nil {
		return nil, err
	}

	m := &market.Market{
		Title:         title,
		Description:   description,
		YesReserve:    e.cfg.SeedReserve,
		NoReserve:     e.cfg.SeedReserve,
		LiquidityPool: initialLiquidity,
		Status:        market.StatusOpen,
		Creator:       creator,
		Admin:         creator,
		CreatedAt:     time.Now(),
	}
	m.ID = e.store.InsertMarket(m)

	batch := ledger.NewBatch()
	batch.Add(m.ID, ledger.EntryMarketSeed,
		ledger.MarketPoolAccount(m.ID), ledger.UserCashAccount(creator), initialLiquidity)

	e.record(batch, feed.NewEvent(feed.TypeMarketCreated, m.ID, creator, feed.MarketCreatedPayload{
		Title:            title,
		InitialLiquidity: initialLiquidity,
		SeedReserve:      e.cfg.SeedReserve,
	}))

	e.metrics.MarketsCreated.Inc()
	e.metrics.OpenMarkets.Inc()
	e.log.Info().
		Uint64("market", m.ID).
		Str("creator", creator.String()).
		Uint64("initial_liquidity", initialLiquidity).
		Msg("market created")

	return m.Clone(), nil
}

// Resolve declares the winning side and freezes the payout snapshot. The
// platform admin or the market admin may resolve; either way the platform
// fee is credited to the platform admin immediately and the rest becomes
// claimable by winning-token holders.
func (e *Exchange) Resolve(actor uuid.UUID, marketID uint64, winner market.Outcome) (market.Settlement, error) {
	lock, ok := e.store.MarketLock(marketID)
	if !ok {
		return market.Settlement{}, market.ErrMarketNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	m, _ := e.store.Market(marketID)
	if m.Status != market.StatusOpen {
		return market.Settlement{}, market.ErrMarketClosed
	}

	platformAdmin := e.Admin()
	if actor != platformAdmin && actor != m.Admin {
		return market.Settlement{}, market.ErrUnauthorized
	}

	totalPool := m.LiquidityPool + m.TotalFeesCollected
	platformFee := amm.Fee(totalPool, e.cfg.PlatformFeeBps)
	distributable := totalPool - platformFee

	var winningPool, losingPool, totalWinningTokens uint64
	winningPool = m.Reserve(winner)
	losingPool = m.Reserve(winner.Opposite())
	for _, p := range e.store.PositionsByMarket(marketID) {
		totalWinningTokens += p.Tokens(winner)
	}

	settlement := market.Settlement{
		MarketID:           marketID,
		Winner:             winner,
		WinningPool:        winningPool,
		LosingPool:         losingPool,
		TotalPool:          totalPool,
		PlatformFee:        platformFee,
		Distributable:      distributable,
		TotalWinningTokens: totalWinningTokens,
		Remaining:          distributable,
		ResolvedAt:         time.Now(),
	}

	m.Status = market.StatusResolved
	m.Winner = &winner
	e.store.PutSettlement(settlement)
	e.store.UpdateMarket(m)

	if platformFee > 0 {
		if _, err := e.store.Credit(platformAdmin, platformFee); err != nil {
			return market.Settlement{}, err
		}
	}

	batch := ledger.NewBatch()
	batch.Add(marketID, ledger.EntryPlatformFee,
		ledger.UserCashAccount(platformAdmin), ledger.MarketPoolAccount(marketID), platformFee)

	e.record(batch, feed.NewEvent(feed.TypeMarketResolved, marketID, actor, feed.ResolvedPayload{
		Winner:             winner,
		TotalPool:          totalPool,
		PlatformFee:        platformFee,
		Distributable:      distributable,
		TotalWinningTokens: totalWinningTokens,
	}))

	e.metrics.MarketsResolved.WithLabelValues(winner.String()).Inc()
	e.metrics.OpenMarkets.Dec()
	e.metrics.PlatformFeesPaid.Add(float64(platformFee))
	e.log.Info().
		Uint64("market", marketID).
		Str("winner", winner.String()).
		Uint64("total_pool", totalPool).
		Uint64("platform_fee", platformFee).
		Uint64("distributable", distributable).
		Uint64("total_winning_tokens", totalWinningTokens).
		Msg("market resolved")

	return settlement, nil
}

// Freeze halts a market without declaring a winner. Frozen markets reject
// trades and claims; pooled funds stay locked in the market.
func (e *Exchange) Freeze(actor uuid.UUID, marketID uint64) error {
	lock, ok := e.store.MarketLock(marketID)
	if !ok {
		return market.ErrMarketNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	m, _ := e.store.Market(marketID)
	if m.Status != market.StatusOpen {
		return market.ErrMarketClosed
	}
	if actor != e.Admin() && actor != m.Admin {
		return market.ErrUnauthorized
	}

	m.Status = market.StatusFrozen
	e.store.UpdateMarket(m)

	e.record(nil, feed.NewEvent(feed.TypeMarketFrozen, marketID, actor, nil))

	e.metrics.MarketsFrozen.Inc()
	e.metrics.OpenMarkets.Dec()
	e.log.Warn().
		Uint64("market", marketID).
		Str("actor", actor.String()).
		Msg("market frozen")
	return nil
}

// Claim pays out the caller's share of a resolved market's settlement pool.
// Claims are pull-based and exactly-once: the reward is priced against the
// resolution-time snapshot, the winning tokens are burned, and the position
// is marked claimed before any later attempt can run.
func (e *Exchange) Claim(user uuid.UUID, marketID uint64) (market.RewardClaim, error) {
	lock, ok := e.store.MarketLock(marketID)
	if !ok {
		return market.RewardClaim{}, market.ErrMarketNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	m, _ := e.store.Market(marketID)
	if m.Status != market.StatusResolved {
		e.metrics.ClaimsRejected.WithLabelValues("not_resolved").Inc()
		return market.RewardClaim{}, market.ErrMarketClosed
	}

	settlement, ok := e.store.Settlement(marketID)
	if !ok {
		// Resolved markets always carry a settlement
		return market.RewardClaim{}, market.ErrMarketNotFound
	}

	pos, ok := e.store.Position(user, marketID)
	if !ok {
		e.metrics.ClaimsRejected.WithLabelValues(rejectReason(market.ErrNoWinningTokens)).Inc()
		return market.RewardClaim{}, market.ErrNoWinningTokens
	}
	if pos.ClaimedReward {
		e.metrics.ClaimsRejected.WithLabelValues(rejectReason(market.ErrAlreadyClaimed)).Inc()
		return market.RewardClaim{}, market.ErrAlreadyClaimed
	}

	winningTokens := pos.Tokens(settlement.Winner)
	if winningTokens == 0 {
		e.metrics.ClaimsRejected.WithLabelValues(rejectReason(market.ErrNoWinningTokens)).Inc()
		return market.RewardClaim{}, market.ErrNoWinningTokens
	}

	reward := amm.RewardShare(winningTokens, settlement.TotalWinningTokens, settlement.Distributable)

	pos.ClaimedReward = true
	pos.SubTokens(settlement.Winner, winningTokens)
	e.store.UpsertPosition(pos)
	e.store.DrawDownSettlement(marketID, reward)

	if reward > 0 {
		if _, err := e.store.Credit(user, reward); err != nil {
			return market.RewardClaim{}, err
		}
	}

	claim := market.RewardClaim{
		MarketID:      marketID,
		User:          user,
		WinningTokens: winningTokens,
		RewardAmount:  reward,
		ClaimedAt:     time.Now(),
	}
	e.store.AppendClaim(claim)

	batch := ledger.NewBatch()
	batch.Add(marketID, ledger.EntryRewardPayout,
		ledger.UserCashAccount(user), ledger.MarketPoolAccount(marketID), reward)

	e.recordClaim(batch, claim, feed.NewEvent(feed.TypeRewardClaimed, marketID, user, feed.ClaimPayload{
		WinningTokens: winningTokens,
		RewardAmount:  reward,
	}))

	e.metrics.RewardsClaimed.Inc()
	e.metrics.RewardsPaid.Add(float64(reward))
	e.log.Info().
		Uint64("market", marketID).
		Str("user", user.String()).
		Uint64("winning_tokens", winningTokens).
		Uint64("reward", reward).
		Msg("reward claimed")

	return claim, nil
}
