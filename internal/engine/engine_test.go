package engine_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/engine"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/observability"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = observability.NewMetrics()

var (
	platformAdmin = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	traderA       = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	traderB       = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
)

type captureRecorder struct {
	records []engine.Record
}

func (r *captureRecorder) Record(rec engine.Record) {
	r.records = append(r.records, rec)
}

func newExchange(t *testing.T) (*engine.Exchange, *captureRecorder) {
	t.Helper()
	rec := &captureRecorder{}
	ex, err := engine.New(engine.DefaultConfig(platformAdmin), ledger.NewStore(), rec, testMetrics)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ex, rec
}

func mustDeposit(t *testing.T, ex *engine.Exchange, user uuid.UUID, amount uint64) {
	t.Helper()
	if _, err := ex.Deposit(user, amount); err != nil {
		t.Fatalf("Deposit(%d): %v", amount, err)
	}
}

func mustCreate(t *testing.T, ex *engine.Exchange, creator uuid.UUID, liquidity uint64) uint64 {
	t.Helper()
	m, err := ex.CreateMarket(creator, "Will it rain tomorrow?", "Resolves YES on any measurable rain.", liquidity)
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	return m.ID
}

func mustBuy(t *testing.T, ex *engine.Exchange, user uuid.UUID, id uint64, side market.Outcome, amount uint64) market.TradeResult {
	t.Helper()
	res, err := ex.Buy(user, id, side, amount, 0)
	if err != nil {
		t.Fatalf("Buy(%s, %d): %v", side, amount, err)
	}
	return res
}

// ============================================================
// Deposits and balances
// ============================================================

func TestDepositBelowMinimum(t *testing.T) {
	ex, _ := newExchange(t)

	if _, err := ex.Deposit(traderA, 999); !errors.Is(err, market.ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
	if got := ex.BalanceOf(traderA); got != 0 {
		t.Errorf("balance after rejected deposit = %d, want 0", got)
	}
}

func TestDepositCreditsBalance(t *testing.T) {
	ex, rec := newExchange(t)

	newBalance, err := ex.Deposit(traderA, 5000)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if newBalance != 5000 {
		t.Errorf("newBalance = %d, want 5000", newBalance)
	}

	mustDeposit(t, ex, traderA, 2500)
	if got := ex.BalanceOf(traderA); got != 7500 {
		t.Errorf("balance = %d, want 7500", got)
	}

	if len(rec.records) != 2 {
		t.Fatalf("records = %d, want 2", len(rec.records))
	}
	batch := rec.records[0].Batch
	if batch == nil || len(batch.Entries) != 1 {
		t.Fatalf("deposit batch = %+v, want one entry", batch)
	}
	e := batch.Entries[0]
	if e.Type != ledger.EntryDeposit || e.Amount != 5000 {
		t.Errorf("entry = %s/%d, want deposit/5000", e.Type, e.Amount)
	}
	if e.Credit != ledger.ExternalDepositsAccount || e.Debit != ledger.UserCashAccount(traderA) {
		t.Errorf("entry accounts = %s -> %s", e.Credit, e.Debit)
	}
}

// ============================================================
// Market creation
// ============================================================

func TestCreateMarketRequiresMinimumLiquidity(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 10_000)

	_, err := ex.CreateMarket(traderA, "too small", "", 999)
	if !errors.Is(err, market.ErrInsufficientDeposit) {
		t.Errorf("got %v, want ErrInsufficientDeposit", err)
	}
}

func TestCreateMarketRequiresFunds(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 1000)

	_, err := ex.CreateMarket(traderA, "underfunded", "", 2000)
	if !errors.Is(err, market.ErrInsufficientDeposit) {
		t.Errorf("got %v, want ErrInsufficientDeposit", err)
	}
	if got := ex.BalanceOf(traderA); got != 1000 {
		t.Errorf("balance = %d, want 1000 untouched", got)
	}
}

func TestCreateMarketSeedsReserves(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)

	m, err := ex.CreateMarket(traderA, "Will it rain tomorrow?", "desc", 10_000)
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}

	if m.ID != 1 {
		t.Errorf("ID = %d, want 1", m.ID)
	}
	if m.YesReserve != 500 || m.NoReserve != 500 {
		t.Errorf("reserves = %d/%d, want 500/500", m.YesReserve, m.NoReserve)
	}
	if m.LiquidityPool != 10_000 {
		t.Errorf("pool = %d, want 10000", m.LiquidityPool)
	}
	if m.Status != market.StatusOpen {
		t.Errorf("status = %s, want open", m.Status)
	}
	if m.Admin != traderA || m.Creator != traderA {
		t.Errorf("creator/admin = %s/%s, want trader A for both", m.Creator, m.Admin)
	}
	if got := ex.BalanceOf(traderA); got != 90_000 {
		t.Errorf("balance = %d, want 90000", got)
	}

	summary, err := ex.MarketByID(1)
	if err != nil {
		t.Fatalf("MarketByID: %v", err)
	}
	if got := summary.YesPrice.String(); got != "0.5" {
		t.Errorf("opening yes price = %s, want 0.5", got)
	}
}

// ============================================================
// Trading
// ============================================================

func TestBuyUpdatesMarketAndPosition(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)

	// 400 in at 30 bps: fee 1, net 399 against the NO reserve of 500.
	// New reserves 2475/101, tokens out 1975.
	res := mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)

	if res.TokensReceived != 1975 {
		t.Errorf("TokensReceived = %d, want 1975", res.TokensReceived)
	}
	if res.FeePaid != 1 {
		t.Errorf("FeePaid = %d, want 1", res.FeePaid)
	}
	if got := res.NewPrice.String(); got != "0.960792" {
		t.Errorf("NewPrice = %s, want 0.960792", got)
	}

	summary, _ := ex.MarketByID(id)
	if summary.YesReserve != 2475 || summary.NoReserve != 101 {
		t.Errorf("reserves = %d/%d, want 2475/101", summary.YesReserve, summary.NoReserve)
	}
	if summary.LiquidityPool != 10_399 {
		t.Errorf("pool = %d, want 10399", summary.LiquidityPool)
	}
	if summary.TotalFeesCollected != 1 {
		t.Errorf("fees = %d, want 1", summary.TotalFeesCollected)
	}
	if summary.TotalVolume != 400 {
		t.Errorf("volume = %d, want 400", summary.TotalVolume)
	}

	pos, _ := ex.Position(traderA, id)
	if pos.YesTokens != 1975 || pos.NoTokens != 0 {
		t.Errorf("position = %d/%d, want 1975/0", pos.YesTokens, pos.NoTokens)
	}
	if got := ex.BalanceOf(traderA); got != 89_600 {
		t.Errorf("balance = %d, want 89600", got)
	}
}

func TestBuyInsufficientBalanceLeavesStateUntouched(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)

	_, err := ex.Buy(traderB, id, market.OutcomeYes, 400, 0)
	if !errors.Is(err, market.ErrInsufficientDeposit) {
		t.Fatalf("got %v, want ErrInsufficientDeposit", err)
	}

	summary, _ := ex.MarketByID(id)
	if summary.YesReserve != 500 || summary.NoReserve != 500 || summary.LiquidityPool != 10_000 {
		t.Errorf("market mutated by failed buy: %d/%d pool %d",
			summary.YesReserve, summary.NoReserve, summary.LiquidityPool)
	}
	pos, _ := ex.Position(traderB, id)
	if pos.YesTokens != 0 {
		t.Errorf("position created by failed buy: %+v", pos)
	}
}

func TestBuySlippageExceeded(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)

	_, err := ex.Buy(traderA, id, market.OutcomeYes, 400, 2000)
	if !errors.Is(err, market.ErrSlippageExceeded) {
		t.Fatalf("got %v, want ErrSlippageExceeded", err)
	}
	if got := ex.BalanceOf(traderA); got != 90_000 {
		t.Errorf("balance = %d, want 90000 untouched", got)
	}
	summary, _ := ex.MarketByID(id)
	if summary.YesReserve != 500 || summary.NoReserve != 500 {
		t.Errorf("reserves mutated by rejected buy: %d/%d", summary.YesReserve, summary.NoReserve)
	}
}

func TestBuyExhaustingOppositeReserve(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)

	// Net input of 2000 - 6 would wipe out the NO reserve of 500.
	_, err := ex.Buy(traderA, id, market.OutcomeYes, 2000, 0)
	if !errors.Is(err, market.ErrInsufficientLiquidity) {
		t.Errorf("got %v, want ErrInsufficientLiquidity", err)
	}
}

func TestSellRoundTrip(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)

	// Selling 975 of 1975 YES: reserves 2475/101 -> 1500/166, gross 65,
	// fee 0 at this size, net 65.
	res, err := ex.Sell(traderA, id, market.OutcomeYes, 975, 0)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if res.TokensReceived != 65 {
		t.Errorf("payout = %d, want 65", res.TokensReceived)
	}
	if res.TokensPaid != 975 {
		t.Errorf("TokensPaid = %d, want 975", res.TokensPaid)
	}

	summary, _ := ex.MarketByID(id)
	if summary.YesReserve != 1500 || summary.NoReserve != 166 {
		t.Errorf("reserves = %d/%d, want 1500/166", summary.YesReserve, summary.NoReserve)
	}
	if summary.LiquidityPool != 10_334 {
		t.Errorf("pool = %d, want 10334", summary.LiquidityPool)
	}

	pos, _ := ex.Position(traderA, id)
	if pos.YesTokens != 1000 {
		t.Errorf("remaining YES = %d, want 1000", pos.YesTokens)
	}
	if got := ex.BalanceOf(traderA); got != 89_665 {
		t.Errorf("balance = %d, want 89665", got)
	}
}

func TestSellMoreThanHeld(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)

	_, err := ex.Sell(traderA, id, market.OutcomeYes, 5000, 0)
	if !errors.Is(err, market.ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
	_, err = ex.Sell(traderA, id, market.OutcomeNo, 1, 0)
	if !errors.Is(err, market.ErrInvalidAmount) {
		t.Errorf("selling unheld side: got %v, want ErrInvalidAmount", err)
	}
}

func TestQuotesDoNotMutate(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)

	quote, err := ex.QuoteBuy(id, market.OutcomeYes, 400)
	if err != nil {
		t.Fatalf("QuoteBuy: %v", err)
	}

	summary, _ := ex.MarketByID(id)
	if summary.YesReserve != 500 || summary.NoReserve != 500 {
		t.Fatalf("quote mutated reserves: %d/%d", summary.YesReserve, summary.NoReserve)
	}
	if got := ex.BalanceOf(traderA); got != 90_000 {
		t.Fatalf("quote touched balance: %d", got)
	}

	// Executing at the same state must reproduce the quote exactly.
	res := mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)
	if res.TokensReceived != quote.TokensReceived || res.FeePaid != quote.FeePaid {
		t.Errorf("execution %d/%d differs from quote %d/%d",
			res.TokensReceived, res.FeePaid, quote.TokensReceived, quote.FeePaid)
	}
	if !res.NewPrice.Equal(quote.NewPrice) {
		t.Errorf("execution price %s differs from quote %s", res.NewPrice, quote.NewPrice)
	}
}

// ============================================================
// Resolution
// ============================================================

func TestResolveAuthorization(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)

	if _, err := ex.Resolve(traderB, id, market.OutcomeYes); !errors.Is(err, market.ErrUnauthorized) {
		t.Errorf("stranger resolve: got %v, want ErrUnauthorized", err)
	}

	// The market admin (creator) may resolve.
	if _, err := ex.Resolve(traderA, id, market.OutcomeYes); err != nil {
		t.Errorf("creator resolve: %v", err)
	}

	// The platform admin may resolve markets it did not create.
	mustDeposit(t, ex, traderB, 100_000)
	id2 := mustCreate(t, ex, traderB, 10_000)
	if _, err := ex.Resolve(platformAdmin, id2, market.OutcomeNo); err != nil {
		t.Errorf("platform admin resolve: %v", err)
	}
}

func TestResolveTwice(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)

	if _, err := ex.Resolve(traderA, id, market.OutcomeYes); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if _, err := ex.Resolve(traderA, id, market.OutcomeNo); !errors.Is(err, market.ErrMarketClosed) {
		t.Errorf("second resolve: got %v, want ErrMarketClosed", err)
	}
}

func TestResolveSnapshotAndPlatformFee(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)
	if _, err := ex.Sell(traderA, id, market.OutcomeYes, 975, 0); err != nil {
		t.Fatalf("Sell: %v", err)
	}

	// Pool 10334 + fees 1 = 10335; 10% platform fee 1033, 9302 distributable.
	st, err := ex.Resolve(traderA, id, market.OutcomeYes)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if st.TotalPool != 10_335 {
		t.Errorf("TotalPool = %d, want 10335", st.TotalPool)
	}
	if st.PlatformFee != 1033 {
		t.Errorf("PlatformFee = %d, want 1033", st.PlatformFee)
	}
	if st.Distributable != 9302 || st.Remaining != 9302 {
		t.Errorf("Distributable/Remaining = %d/%d, want 9302/9302", st.Distributable, st.Remaining)
	}
	if st.TotalWinningTokens != 1000 {
		t.Errorf("TotalWinningTokens = %d, want 1000", st.TotalWinningTokens)
	}
	if st.Winner != market.OutcomeYes {
		t.Errorf("Winner = %s, want yes", st.Winner)
	}

	// The platform cut lands on the platform admin, not the market admin.
	if got := ex.BalanceOf(platformAdmin); got != 1033 {
		t.Errorf("platform admin balance = %d, want 1033", got)
	}

	summary, _ := ex.MarketByID(id)
	if summary.Status != market.StatusResolved {
		t.Errorf("status = %s, want resolved", summary.Status)
	}
	if summary.Winner == nil || *summary.Winner != market.OutcomeYes {
		t.Errorf("winner = %v, want yes", summary.Winner)
	}
}

func TestFreezeBlocksTradingAndClaims(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)

	if err := ex.Freeze(traderB, id); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("stranger freeze: got %v, want ErrUnauthorized", err)
	}
	if err := ex.Freeze(traderA, id); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	if _, err := ex.Buy(traderA, id, market.OutcomeYes, 400, 0); !errors.Is(err, market.ErrMarketClosed) {
		t.Errorf("buy on frozen: got %v, want ErrMarketClosed", err)
	}
	if _, err := ex.Sell(traderA, id, market.OutcomeYes, 100, 0); !errors.Is(err, market.ErrMarketClosed) {
		t.Errorf("sell on frozen: got %v, want ErrMarketClosed", err)
	}
	if _, err := ex.Claim(traderA, id); !errors.Is(err, market.ErrMarketClosed) {
		t.Errorf("claim on frozen: got %v, want ErrMarketClosed", err)
	}
	if _, err := ex.Resolve(traderA, id, market.OutcomeYes); !errors.Is(err, market.ErrMarketClosed) {
		t.Errorf("resolve on frozen: got %v, want ErrMarketClosed", err)
	}
}

// ============================================================
// Claims
// ============================================================

func TestClaimPaysFullShareToSoleWinner(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)
	if _, err := ex.Sell(traderA, id, market.OutcomeYes, 975, 0); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if _, err := ex.Resolve(traderA, id, market.OutcomeYes); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	claim, err := ex.Claim(traderA, id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claim.WinningTokens != 1000 {
		t.Errorf("WinningTokens = %d, want 1000", claim.WinningTokens)
	}
	if claim.RewardAmount != 9302 {
		t.Errorf("RewardAmount = %d, want 9302", claim.RewardAmount)
	}

	if got := ex.BalanceOf(traderA); got != 98_967 {
		t.Errorf("balance = %d, want 98967", got)
	}

	// Every unit deposited is now either user cash or the platform cut.
	total := ex.BalanceOf(traderA) + ex.BalanceOf(platformAdmin)
	if total != 100_000 {
		t.Errorf("system total = %d, want 100000", total)
	}

	pos, _ := ex.Position(traderA, id)
	if pos.YesTokens != 0 || !pos.ClaimedReward {
		t.Errorf("position after claim = %+v, want burned and claimed", pos)
	}

	claims := ex.Claims(traderA)
	if len(claims) != 1 || claims[0].RewardAmount != 9302 {
		t.Errorf("claim history = %+v", claims)
	}
}

func TestClaimTwice(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)
	if _, err := ex.Resolve(traderA, id, market.OutcomeYes); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	first, err := ex.Claim(traderA, id)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	balance := ex.BalanceOf(traderA)

	if _, err := ex.Claim(traderA, id); !errors.Is(err, market.ErrAlreadyClaimed) {
		t.Errorf("second claim: got %v, want ErrAlreadyClaimed", err)
	}
	if got := ex.BalanceOf(traderA); got != balance {
		t.Errorf("balance moved on rejected claim: %d -> %d (first reward %d)",
			balance, got, first.RewardAmount)
	}
}

func TestClaimRejections(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 100_000)
	mustDeposit(t, ex, traderB, 100_000)
	id := mustCreate(t, ex, traderA, 10_000)
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 400)
	mustBuy(t, ex, traderB, id, market.OutcomeNo, 50)

	if _, err := ex.Claim(traderA, id); !errors.Is(err, market.ErrMarketClosed) {
		t.Errorf("claim before resolve: got %v, want ErrMarketClosed", err)
	}
	if _, err := ex.Resolve(traderA, id, market.OutcomeYes); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Trader B holds only NO tokens on a YES resolution.
	if _, err := ex.Claim(traderB, id); !errors.Is(err, market.ErrNoWinningTokens) {
		t.Errorf("losing claim: got %v, want ErrNoWinningTokens", err)
	}
	// A user with no position at all.
	stranger := uuid.MustParse("00000000-0000-0000-0000-0000000000ff")
	if _, err := ex.Claim(stranger, id); !errors.Is(err, market.ErrNoWinningTokens) {
		t.Errorf("stranger claim: got %v, want ErrNoWinningTokens", err)
	}
	if _, err := ex.Claim(traderA, 999); !errors.Is(err, market.ErrMarketNotFound) {
		t.Errorf("unknown market: got %v, want ErrMarketNotFound", err)
	}
}

func TestClaimsAreOrderIndependent(t *testing.T) {
	ex, _ := newExchange(t)
	mustDeposit(t, ex, traderA, 50_000)
	mustDeposit(t, ex, traderB, 50_000)
	id := mustCreate(t, ex, traderA, 1000)

	// A: 200 in -> 333 YES; B: 100 in after -> 416 YES (fees round to zero
	// at these sizes). Pool 1300, platform fee 130, distributable 1170.
	mustBuy(t, ex, traderA, id, market.OutcomeYes, 200)
	mustBuy(t, ex, traderB, id, market.OutcomeYes, 100)

	st, err := ex.Resolve(platformAdmin, id, market.OutcomeYes)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if st.TotalWinningTokens != 749 {
		t.Fatalf("TotalWinningTokens = %d, want 749", st.TotalWinningTokens)
	}
	if st.Distributable != 1170 {
		t.Fatalf("Distributable = %d, want 1170", st.Distributable)
	}

	// B claims before A; both rewards are priced off the snapshot, so the
	// order cannot change either amount.
	claimB, err := ex.Claim(traderB, id)
	if err != nil {
		t.Fatalf("Claim B: %v", err)
	}
	claimA, err := ex.Claim(traderA, id)
	if err != nil {
		t.Fatalf("Claim A: %v", err)
	}

	if claimA.RewardAmount != 520 {
		t.Errorf("A reward = %d, want 520", claimA.RewardAmount)
	}
	if claimB.RewardAmount != 649 {
		t.Errorf("B reward = %d, want 649", claimB.RewardAmount)
	}

	// One unit of truncation dust stays in the settlement.
	settled, err := ex.Settlement(id)
	if err != nil {
		t.Fatalf("Settlement: %v", err)
	}
	if settled.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", settled.Remaining)
	}

	// Conservation: cash + platform cut + dust equals total deposits.
	total := ex.BalanceOf(traderA) + ex.BalanceOf(traderB) +
		ex.BalanceOf(platformAdmin) + settled.Remaining
	if total != 100_000 {
		t.Errorf("system total = %d, want 100000", total)
	}
}

// ============================================================
// Admin
// ============================================================

func TestSetAdmin(t *testing.T) {
	ex, _ := newExchange(t)

	if err := ex.SetAdmin(traderA, traderA); !errors.Is(err, market.ErrUnauthorized) {
		t.Errorf("non-admin reassign: got %v, want ErrUnauthorized", err)
	}

	if err := ex.SetAdmin(platformAdmin, traderB); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	if got := ex.Admin(); got != traderB {
		t.Errorf("Admin = %s, want trader B", got)
	}
	if ex.IsAdmin(platformAdmin) {
		t.Error("old admin still recognized")
	}

	// The old admin can no longer resolve other users' markets.
	mustDeposit(t, ex, traderA, 10_000)
	id := mustCreate(t, ex, traderA, 1000)
	if _, err := ex.Resolve(platformAdmin, id, market.OutcomeYes); !errors.Is(err, market.ErrUnauthorized) {
		t.Errorf("old admin resolve: got %v, want ErrUnauthorized", err)
	}
	if _, err := ex.Resolve(traderB, id, market.OutcomeYes); err != nil {
		t.Errorf("new admin resolve: %v", err)
	}
}
