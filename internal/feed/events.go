package feed

import (
	"time"

	"github.com/google/uuid"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

// Event types published on the outbound stream.
const (
	TypeDeposit        = "deposit"
	TypeMarketCreated  = "market_created"
	TypeTradeExecuted  = "trade_executed"
	TypeMarketResolved = "market_resolved"
	TypeMarketFrozen   = "market_frozen"
	TypeRewardClaimed  = "reward_claimed"
	TypeAdminChanged   = "admin_changed"
)

// Event is one ledger event ready for outbound publication.
type Event struct {
	Type      string      `json:"type"`
	MarketID  uint64      `json:"market_id,omitempty"`
	Actor     uuid.UUID   `json:"actor"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, marketID uint64, actor uuid.UUID, payload interface{}) Event {
	return Event{
		Type:      eventType,
		MarketID:  marketID,
		Actor:     actor,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// DepositPayload describes a balance top-up.
type DepositPayload struct {
	Amount     uint64 `json:"amount"`
	NewBalance uint64 `json:"new_balance"`
}

// MarketCreatedPayload describes a newly opened market.
type MarketCreatedPayload struct {
	Title            string `json:"title"`
	InitialLiquidity uint64 `json:"initial_liquidity"`
	SeedReserve      uint64 `json:"seed_reserve"`
}

// TradePayload describes an executed buy or sell.
type TradePayload struct {
	Direction     string         `json:"direction"` // "buy" or "sell"
	Side          market.Outcome `json:"side"`
	AmountIn      uint64         `json:"amount_in"`
	AmountOut     uint64         `json:"amount_out"`
	Fee           uint64         `json:"fee"`
	NewYesReserve uint64         `json:"new_yes_reserve"`
	NewNoReserve  uint64         `json:"new_no_reserve"`
}

// ResolvedPayload describes a resolution and its settlement snapshot.
type ResolvedPayload struct {
	Winner             market.Outcome `json:"winner"`
	TotalPool          uint64         `json:"total_pool"`
	PlatformFee        uint64         `json:"platform_fee"`
	Distributable      uint64         `json:"distributable"`
	TotalWinningTokens uint64         `json:"total_winning_tokens"`
}

// ClaimPayload describes a paid reward claim.
type ClaimPayload struct {
	WinningTokens uint64 `json:"winning_tokens"`
	RewardAmount  uint64 `json:"reward_amount"`
}
