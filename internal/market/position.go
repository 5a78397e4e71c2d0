package market

import (
	"time"

	"github.com/google/uuid"
)

// UserPosition holds one user's claim tokens in one market. Created on the
// user's first trade, never deleted. ClaimedReward is monotone: once true it
// never flips back, which is what makes reward credit exactly-once.
type UserPosition struct {
	User          uuid.UUID `json:"user"`
	MarketID      uint64    `json:"market_id"`
	YesTokens     uint64    `json:"yes_tokens"`
	NoTokens      uint64    `json:"no_tokens"`
	ClaimedReward bool      `json:"claimed_reward"`
}

// Tokens returns the holdings on the given side.
func (p *UserPosition) Tokens(side Outcome) uint64 {
	switch side {
	case OutcomeYes:
		return p.YesTokens
	case OutcomeNo:
		return p.NoTokens
	}
	return 0
}

// AddTokens credits holdings on the given side.
func (p *UserPosition) AddTokens(side Outcome, amount uint64) {
	switch side {
	case OutcomeYes:
		p.YesTokens += amount
	case OutcomeNo:
		p.NoTokens += amount
	}
}

// SubTokens debits holdings on the given side. The caller checks sufficiency
// first; going below zero here is a bookkeeping bug.
func (p *UserPosition) SubTokens(side Outcome, amount uint64) {
	switch side {
	case OutcomeYes:
		p.YesTokens -= amount
	case OutcomeNo:
		p.NoTokens -= amount
	}
}

// RewardClaim is the append-only audit record of one successful reward claim.
type RewardClaim struct {
	MarketID      uint64    `json:"market_id"`
	User          uuid.UUID `json:"user"`
	WinningTokens uint64    `json:"winning_tokens"`
	RewardAmount  uint64    `json:"reward_amount"`
	ClaimedAt     time.Time `json:"claimed_at"`
}
