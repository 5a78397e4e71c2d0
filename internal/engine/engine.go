// Package engine implements the business rules of the prediction-market
// exchange: deposits, market lifecycle, AMM trading, resolution, and reward
// claims. The engine owns all state transitions; the ledger store is plain
// storage and the transports are thin shells around these methods.
package engine

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/amm"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/feed"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/observability"
)

// Config carries the economic parameters of the exchange. All rates are in
// basis points out of 10000.
type Config struct {
	FeeBps              uint64
	SeedReserve         uint64
	MinInitialLiquidity uint64
	MinDeposit          uint64
	PlatformFeeBps      uint64
	Admin               uuid.UUID
}

// DefaultConfig returns the production parameter set: 0.3% trading fee,
// 500-unit seed reserves, 1000-unit deposit and liquidity minimums, and a 10%
// platform cut at resolution.
func DefaultConfig(admin uuid.UUID) Config {
	return Config{
		FeeBps:              amm.DefaultFeeBps,
		SeedReserve:         500,
		MinInitialLiquidity: 1000,
		MinDeposit:          1000,
		PlatformFeeBps:      1000,
		Admin:               admin,
	}
}

func (c Config) Validate() error {
	if c.FeeBps >= 10_000 {
		return errors.New("fee_bps must be below 10000")
	}
	if c.PlatformFeeBps > 10_000 {
		return errors.New("platform_fee_bps must not exceed 10000")
	}
	if c.SeedReserve == 0 {
		return errors.New("seed_reserve must be positive")
	}
	if c.Admin == uuid.Nil {
		return errors.New("admin must be set")
	}
	return nil
}

// Exchange applies ledger operations atomically per market. Every successful
// state change hands an audit batch and an outbound event to the Recorder.
type Exchange struct {
	cfg     Config
	store   *ledger.Store
	rec     Recorder
	metrics *observability.Metrics
	log     zerolog.Logger

	adminMu sync.RWMutex
	admin   uuid.UUID
}

func New(cfg Config, store *ledger.Store, rec Recorder, metrics *observability.Metrics) (*Exchange, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || metrics == nil {
		return nil, errors.New("engine requires a store and metrics")
	}
	if rec == nil {
		rec = NopRecorder{}
	}

	return &Exchange{
		cfg:     cfg,
		store:   store,
		rec:     rec,
		metrics: metrics,
		log:     observability.NewLogger("engine"),
		admin:   cfg.Admin,
	}, nil
}

// Deposit credits base currency to the user's cash balance.
func (e *Exchange) Deposit(user uuid.UUID, amount uint64) (uint64, error) {
	if amount < e.cfg.MinDeposit {
		return 0, market.ErrInvalidAmount
	}

	newBalance, err := e.store.Credit(user, amount)
	if err != nil {
		return 0, err
	}

	batch := ledger.NewBatch()
	batch.Add(0, ledger.EntryDeposit,
		ledger.UserCashAccount(user), ledger.ExternalDepositsAccount, amount)

	e.record(batch, feed.NewEvent(feed.TypeDeposit, 0, user, feed.DepositPayload{
		Amount:     amount,
		NewBalance: newBalance,
	}))

	e.metrics.DepositsTotal.Add(float64(amount))
	e.log.Info().
		Str("user", user.String()).
		Uint64("amount", amount).
		Uint64("balance", newBalance).
		Msg("deposit")

	return newBalance, nil
}

// BalanceOf returns the user's cash balance.
func (e *Exchange) BalanceOf(user uuid.UUID) uint64 {
	return e.store.Balance(user)
}

// Admin returns the current platform admin.
func (e *Exchange) Admin() uuid.UUID {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	return e.admin
}

// IsAdmin reports whether the actor is the platform admin.
func (e *Exchange) IsAdmin(actor uuid.UUID) bool {
	return actor == e.Admin()
}

// SetAdmin reassigns the platform admin. Only the current admin may do this.
func (e *Exchange) SetAdmin(actor, newAdmin uuid.UUID) error {
	if newAdmin == uuid.Nil {
		return market.ErrInvalidAmount
	}

	e.adminMu.Lock()
	if actor != e.admin {
		e.adminMu.Unlock()
		return market.ErrUnauthorized
	}
	e.admin = newAdmin
	e.adminMu.Unlock()

	e.record(nil, feed.NewEvent(feed.TypeAdminChanged, 0, actor, map[string]string{
		"new_admin": newAdmin.String(),
	}))

	e.log.Info().
		Str("actor", actor.String()).
		Str("new_admin", newAdmin.String()).
		Msg("platform admin reassigned")
	return nil
}

// record validates and forwards the batch and event. A nil or empty batch
// means the operation moved no money and only the event is recorded.
func (e *Exchange) record(batch *ledger.Batch, evt feed.Event) {
	e.rec.Record(Record{Batch: e.checked(batch), Event: evt})
}

// recordClaim is record plus the reward claim row for the audit log.
func (e *Exchange) recordClaim(batch *ledger.Batch, claim market.RewardClaim, evt feed.Event) {
	e.rec.Record(Record{Batch: e.checked(batch), Claim: &claim, Event: evt})
}

func (e *Exchange) checked(batch *ledger.Batch) *ledger.Batch {
	if batch == nil || len(batch.Entries) == 0 {
		return nil
	}
	if err := batch.Validate(); err != nil {
		// A malformed batch is a bug in the operation that built it
		e.log.Error().Err(err).Str("batch", batch.BatchID.String()).
			Msg("dropping malformed audit batch")
		return nil
	}
	return batch
}

// rejectReason maps an operation error to a metrics label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, market.ErrMarketNotFound):
		return "market_not_found"
	case errors.Is(err, market.ErrMarketClosed):
		return "market_closed"
	case errors.Is(err, market.ErrMarketResolved):
		return "market_resolved"
	case errors.Is(err, market.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, market.ErrInsufficientDeposit):
		return "insufficient_deposit"
	case errors.Is(err, market.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, market.ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, market.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, market.ErrNoWinningTokens):
		return "no_winning_tokens"
	case errors.Is(err, market.ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
