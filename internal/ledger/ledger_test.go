package ledger_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

// ============================================================================
// Test: account paths
// ============================================================================

func TestUserCashAccount(t *testing.T) {
	user := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	got := ledger.UserCashAccount(user)
	want := "user:550e8400-e29b-41d4-a716-446655440000:cash"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarketAccounts(t *testing.T) {
	if got := ledger.MarketPoolAccount(7); got != "market:7:pool" {
		t.Errorf("pool: got %q, want %q", got, "market:7:pool")
	}
	if got := ledger.MarketFeesAccount(7); got != "market:7:fees" {
		t.Errorf("fees: got %q, want %q", got, "market:7:fees")
	}
}

// ============================================================================
// Test: balances
// ============================================================================

func TestStore_InitialBalanceZero(t *testing.T) {
	s := ledger.NewStore()
	if got := s.Balance(uuid.New()); got != 0 {
		t.Errorf("initial balance: got %d, want 0", got)
	}
}

func TestStore_CreditThenDebit(t *testing.T) {
	s := ledger.NewStore()
	user := uuid.New()

	newBal, err := s.Credit(user, 5000)
	if err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if newBal != 5000 {
		t.Errorf("credited balance: got %d, want 5000", newBal)
	}

	if err := s.Debit(user, 3000); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if got := s.Balance(user); got != 2000 {
		t.Errorf("balance after debit: got %d, want 2000", got)
	}
}

func TestStore_DebitInsufficient(t *testing.T) {
	s := ledger.NewStore()
	user := uuid.New()
	s.Credit(user, 100)

	err := s.Debit(user, 101)
	if !errors.Is(err, market.ErrInsufficientDeposit) {
		t.Errorf("got %v, want ErrInsufficientDeposit", err)
	}
	if got := s.Balance(user); got != 100 {
		t.Errorf("failed debit mutated balance: got %d, want 100", got)
	}
}

// ============================================================================
// Test: markets
// ============================================================================

func TestStore_InsertMarketAssignsSequentialIDs(t *testing.T) {
	s := ledger.NewStore()

	first := s.InsertMarket(&market.Market{Title: "a"})
	second := s.InsertMarket(&market.Market{Title: "b"})

	if first != 1 || second != 2 {
		t.Errorf("got ids %d, %d, want 1, 2", first, second)
	}
}

func TestStore_MarketReturnsCopy(t *testing.T) {
	s := ledger.NewStore()
	id := s.InsertMarket(&market.Market{Title: "a", YesReserve: 500, NoReserve: 500})

	m, ok := s.Market(id)
	if !ok {
		t.Fatal("market not found")
	}
	m.YesReserve = 999

	fresh, _ := s.Market(id)
	if fresh.YesReserve != 500 {
		t.Errorf("mutating a returned market leaked into the store: got %d", fresh.YesReserve)
	}
}

func TestStore_UpdateMarket(t *testing.T) {
	s := ledger.NewStore()
	id := s.InsertMarket(&market.Market{Title: "a", YesReserve: 500, NoReserve: 500})

	m, _ := s.Market(id)
	m.YesReserve = 600
	s.UpdateMarket(m)

	got, _ := s.Market(id)
	if got.YesReserve != 600 {
		t.Errorf("update not applied: got %d, want 600", got.YesReserve)
	}
}

func TestStore_MarketsSortedByID(t *testing.T) {
	s := ledger.NewStore()
	s.InsertMarket(&market.Market{Title: "a"})
	s.InsertMarket(&market.Market{Title: "b"})
	s.InsertMarket(&market.Market{Title: "c"})

	all := s.Markets()
	if len(all) != 3 {
		t.Fatalf("got %d markets, want 3", len(all))
	}
	for i, m := range all {
		if m.ID != uint64(i+1) {
			t.Errorf("position %d: got id %d, want %d", i, m.ID, i+1)
		}
	}
}

func TestStore_MarketLockExistsPerMarket(t *testing.T) {
	s := ledger.NewStore()
	id := s.InsertMarket(&market.Market{Title: "a"})

	if _, ok := s.MarketLock(id); !ok {
		t.Error("inserted market has no lock")
	}
	if _, ok := s.MarketLock(42); ok {
		t.Error("unknown market should have no lock")
	}
}

// ============================================================================
// Test: positions
// ============================================================================

func TestStore_PositionUpsertAndLookup(t *testing.T) {
	s := ledger.NewStore()
	user := uuid.New()

	if _, ok := s.Position(user, 1); ok {
		t.Fatal("position should not exist before first trade")
	}

	s.UpsertPosition(market.UserPosition{User: user, MarketID: 1, YesTokens: 100})

	p, ok := s.Position(user, 1)
	if !ok {
		t.Fatal("position not found after upsert")
	}
	if p.YesTokens != 100 {
		t.Errorf("got %d YES tokens, want 100", p.YesTokens)
	}
}

func TestStore_PositionsByMarketAndUser(t *testing.T) {
	s := ledger.NewStore()
	alice, bob := uuid.New(), uuid.New()

	s.UpsertPosition(market.UserPosition{User: alice, MarketID: 1, YesTokens: 10})
	s.UpsertPosition(market.UserPosition{User: bob, MarketID: 1, NoTokens: 20})
	s.UpsertPosition(market.UserPosition{User: alice, MarketID: 2, YesTokens: 30})

	if got := len(s.PositionsByMarket(1)); got != 2 {
		t.Errorf("market 1: got %d positions, want 2", got)
	}

	mine := s.PositionsByUser(alice)
	if len(mine) != 2 {
		t.Fatalf("alice: got %d positions, want 2", len(mine))
	}
	if mine[0].MarketID != 1 || mine[1].MarketID != 2 {
		t.Errorf("positions not ordered by market id: %v, %v", mine[0].MarketID, mine[1].MarketID)
	}
}

// ============================================================================
// Test: settlements and claims
// ============================================================================

func TestStore_SettlementDrawDown(t *testing.T) {
	s := ledger.NewStore()
	s.InsertMarket(&market.Market{Title: "a"})
	s.PutSettlement(market.Settlement{MarketID: 1, Distributable: 900, Remaining: 900})

	s.DrawDownSettlement(1, 270)

	st, ok := s.Settlement(1)
	if !ok {
		t.Fatal("settlement not found")
	}
	if st.Remaining != 630 {
		t.Errorf("remaining: got %d, want 630", st.Remaining)
	}
}

func TestStore_ClaimsByUser(t *testing.T) {
	s := ledger.NewStore()
	alice, bob := uuid.New(), uuid.New()

	s.AppendClaim(market.RewardClaim{MarketID: 1, User: alice, RewardAmount: 270})
	s.AppendClaim(market.RewardClaim{MarketID: 1, User: bob, RewardAmount: 630})
	s.AppendClaim(market.RewardClaim{MarketID: 2, User: alice, RewardAmount: 50})

	got := s.ClaimsByUser(alice)
	if len(got) != 2 {
		t.Fatalf("got %d claims, want 2", len(got))
	}
	if got[0].RewardAmount != 270 || got[1].RewardAmount != 50 {
		t.Errorf("claims out of order: %d, %d", got[0].RewardAmount, got[1].RewardAmount)
	}
}

// ============================================================================
// Test: entry batches
// ============================================================================

func TestBatch_AddDropsZeroAmounts(t *testing.T) {
	b := ledger.NewBatch()
	user := uuid.New()

	b.Add(1, ledger.EntryTradeFee, ledger.MarketFeesAccount(1), ledger.UserCashAccount(user), 0)
	b.Add(1, ledger.EntryTradeBuy, ledger.MarketPoolAccount(1), ledger.UserCashAccount(user), 997)

	if len(b.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(b.Entries))
	}
	if b.Entries[0].Amount != 997 {
		t.Errorf("amount: got %d, want 997", b.Entries[0].Amount)
	}
}

func TestBatch_ValidateEmptyFails(t *testing.T) {
	if err := ledger.NewBatch().Validate(); err == nil {
		t.Error("empty batch should fail validation")
	}
}

func TestBatch_ValidateSelfTransferFails(t *testing.T) {
	b := ledger.NewBatch()
	account := ledger.MarketPoolAccount(1)
	b.Entries = append(b.Entries, ledger.Entry{
		EntryID: uuid.New(),
		BatchID: b.BatchID,
		Debit:   account,
		Credit:  account,
		Amount:  100,
	})

	if err := b.Validate(); err == nil {
		t.Error("self-transfer should fail validation")
	}
}

func TestBatch_ValidateMismatchedBatchIDFails(t *testing.T) {
	b := ledger.NewBatch()
	b.Entries = append(b.Entries, ledger.Entry{
		EntryID: uuid.New(),
		BatchID: uuid.New(),
		Debit:   ledger.MarketPoolAccount(1),
		Credit:  ledger.ExternalDepositsAccount,
		Amount:  100,
	})

	if err := b.Validate(); err == nil {
		t.Error("mismatched batch id should fail validation")
	}
}

func TestBatch_ValidateWellFormedPasses(t *testing.T) {
	b := ledger.NewBatch()
	b.Add(0, ledger.EntryDeposit, ledger.UserCashAccount(uuid.New()), ledger.ExternalDepositsAccount, 1000)

	if err := b.Validate(); err != nil {
		t.Errorf("well-formed batch should pass: %v", err)
	}
}
