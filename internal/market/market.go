// Package market defines the data model of the prediction-market ledger:
// markets, positions, balances, reward claims, and the error taxonomy shared
// by every component.
package market

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a market.
type Status uint8

const (
	StatusOpen Status = iota
	StatusResolved
	StatusFrozen
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusResolved:
		return "resolved"
	case StatusFrozen:
		return "frozen"
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Market is one binary-outcome AMM market. Reserves are accounting
// quantities, not held tokens; their ratio sets the price. Both reserves
// stay strictly positive while the market is open, and yesReserve*noReserve
// is preserved by ordinary trades up to integer truncation.
type Market struct {
	ID                 uint64    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	YesReserve         uint64    `json:"yes_reserve"`
	NoReserve          uint64    `json:"no_reserve"`
	LiquidityPool      uint64    `json:"liquidity_pool"`
	TotalFeesCollected uint64    `json:"total_fees_collected"`
	TotalVolume        uint64    `json:"total_volume"`
	Status             Status    `json:"status"`
	Winner             *Outcome  `json:"winner,omitempty"`
	Creator            uuid.UUID `json:"creator"`
	Admin              uuid.UUID `json:"admin"`
	CreatedAt          time.Time `json:"created_at"`
}

// Reserve returns the reserve backing the given side.
func (m *Market) Reserve(side Outcome) uint64 {
	switch side {
	case OutcomeYes:
		return m.YesReserve
	case OutcomeNo:
		return m.NoReserve
	}
	return 0
}

// Clone returns a deep copy safe to hand out past the market lock.
func (m *Market) Clone() *Market {
	dup := *m
	if m.Winner != nil {
		w := *m.Winner
		dup.Winner = &w
	}
	return &dup
}

// Settlement is the payout snapshot frozen at the moment a market resolves.
// Claims are priced against this snapshot, never against live pool state, so
// payout order cannot change anyone's reward.
type Settlement struct {
	MarketID           uint64    `json:"market_id"`
	Winner             Outcome   `json:"winner"`
	WinningPool        uint64    `json:"winning_pool"`
	LosingPool         uint64    `json:"losing_pool"`
	TotalPool          uint64    `json:"total_pool"`
	PlatformFee        uint64    `json:"platform_fee"`
	Distributable      uint64    `json:"distributable"`
	TotalWinningTokens uint64    `json:"total_winning_tokens"`
	Remaining          uint64    `json:"remaining"`
	ResolvedAt         time.Time `json:"resolved_at"`
}
