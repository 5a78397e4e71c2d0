package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a transfer for the audit log.
type EntryType int32

const (
	EntryDeposit EntryType = iota
	EntryMarketSeed
	EntryTradeBuy
	EntryTradeSell
	EntryTradeFee
	EntryPlatformFee
	EntryRewardPayout
)

func (t EntryType) String() string {
	switch t {
	case EntryDeposit:
		return "deposit"
	case EntryMarketSeed:
		return "market_seed"
	case EntryTradeBuy:
		return "trade_buy"
	case EntryTradeSell:
		return "trade_sell"
	case EntryTradeFee:
		return "trade_fee"
	case EntryPlatformFee:
		return "platform_fee"
	case EntryRewardPayout:
		return "reward_payout"
	default:
		return "unknown"
	}
}

// Account paths used in audit entries. Money conceptually moves between a
// user's cash account, a market's pool and fee accounts, the platform
// treasury, and the external-deposits boundary account.
const (
	ExternalDepositsAccount = "external:deposits"
	PlatformTreasuryAccount = "system:treasury"
)

func UserCashAccount(user uuid.UUID) string {
	return "user:" + user.String() + ":cash"
}

func MarketPoolAccount(marketID uint64) string {
	return fmt.Sprintf("market:%d:pool", marketID)
}

func MarketFeesAccount(marketID uint64) string {
	return fmt.Sprintf("market:%d:fees", marketID)
}

// Entry is a single balanced transfer: Amount moves from the credit account
// to the debit account. Amounts are always positive.
type Entry struct {
	EntryID   uuid.UUID
	BatchID   uuid.UUID
	MarketID  uint64 // zero for transfers not tied to a market
	Debit     string
	Credit    string
	Amount    uint64
	Type      EntryType
	CreatedAt time.Time
}

// Batch groups the transfers produced by one ledger operation. Each entry is
// individually balanced, so the batch is balanced by construction.
type Batch struct {
	BatchID   uuid.UUID
	CreatedAt time.Time
	Entries   []Entry
}

func NewBatch() *Batch {
	return &Batch{BatchID: uuid.New(), CreatedAt: time.Now()}
}

// Add appends a transfer to the batch. Zero-amount transfers are dropped;
// they carry no information and would fail validation.
func (b *Batch) Add(marketID uint64, typ EntryType, debit, credit string, amount uint64) {
	if amount == 0 {
		return
	}
	b.Entries = append(b.Entries, Entry{
		EntryID:   uuid.New(),
		BatchID:   b.BatchID,
		MarketID:  marketID,
		Debit:     debit,
		Credit:    credit,
		Amount:    amount,
		Type:      typ,
		CreatedAt: b.CreatedAt,
	})
}

// Validate ensures the batch is well-formed before it is recorded.
func (b *Batch) Validate() error {
	if len(b.Entries) == 0 {
		return fmt.Errorf("batch %s is empty", b.BatchID)
	}
	for _, e := range b.Entries {
		if e.Amount == 0 {
			return fmt.Errorf("entry %s has zero amount", e.EntryID)
		}
		if e.BatchID != b.BatchID {
			return fmt.Errorf("entry %s has mismatched batch id", e.EntryID)
		}
		if e.Debit == e.Credit {
			return fmt.Errorf("entry %s transfers %s to itself", e.EntryID, e.Debit)
		}
		if e.Debit == "" || e.Credit == "" {
			return fmt.Errorf("entry %s has an empty account", e.EntryID)
		}
	}
	return nil
}
