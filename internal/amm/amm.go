// Package amm implements the constant-product pricing engine. All functions
// are pure: they take reserves and trade parameters and return a quote
// without touching any state. Intermediate products use 128-bit arithmetic so
// large reserves cannot silently overflow.
package amm

import (
	"math/bits"

	"github.com/shopspring/decimal"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

const (
	// DefaultFeeBps is the trading fee in basis points (0.3%).
	DefaultFeeBps = 30

	// ProbeTradeSize is the standard buy size used to report price impact.
	ProbeTradeSize = 100

	feeDenominator = 10_000
)

// Quote is the result of pricing a single trade. For buys AmountOut is claim
// tokens; for sells it is base currency net of fee. NewYesReserve/NewNoReserve
// are the reserves after the trade is applied.
type Quote struct {
	AmountOut     uint64
	Fee           uint64
	NewYesReserve uint64
	NewNoReserve  uint64
}

// QuoteBuy prices a purchase of side claims for amountIn base currency.
// The fee is taken from the input; the net amount is subtracted from the
// opposite reserve and the purchased reserve grows to keep k constant.
// Truncation in the division always favors the pool.
func QuoteBuy(yesReserve, noReserve uint64, side market.Outcome, amountIn, feeBps uint64) (Quote, error) {
	if amountIn == 0 {
		return Quote{}, market.ErrInvalidAmount
	}
	if yesReserve == 0 || noReserve == 0 {
		return Quote{}, market.ErrInsufficientLiquidity
	}

	fee := Fee(amountIn, feeBps)
	netIn := amountIn - fee

	var same, opposite uint64
	switch side {
	case market.OutcomeYes:
		same, opposite = yesReserve, noReserve
	case market.OutcomeNo:
		same, opposite = noReserve, yesReserve
	default:
		return Quote{}, market.ErrInvalidAmount
	}

	if netIn >= opposite {
		return Quote{}, market.ErrInsufficientLiquidity
	}

	newOpposite := opposite - netIn
	newSame, ok := mulDiv(yesReserve, noReserve, newOpposite)
	if !ok {
		return Quote{}, market.ErrInsufficientLiquidity
	}
	if newSame <= same {
		return Quote{}, market.ErrInvalidAmount
	}
	tokensOut := newSame - same

	q := Quote{AmountOut: tokensOut, Fee: fee}
	switch side {
	case market.OutcomeYes:
		q.NewYesReserve, q.NewNoReserve = newSame, newOpposite
	case market.OutcomeNo:
		q.NewYesReserve, q.NewNoReserve = newOpposite, newSame
	}
	return q, nil
}

// QuoteSell prices a sale of tokensIn side claims back into the pool. Tokens
// are removed from the purchased-side reserve, the opposite reserve grows to
// keep k constant, and the fee is taken from the gross base-currency output.
func QuoteSell(yesReserve, noReserve uint64, side market.Outcome, tokensIn, feeBps uint64) (Quote, error) {
	if tokensIn == 0 {
		return Quote{}, market.ErrInvalidAmount
	}
	if yesReserve == 0 || noReserve == 0 {
		return Quote{}, market.ErrInsufficientLiquidity
	}

	var same, opposite uint64
	switch side {
	case market.OutcomeYes:
		same, opposite = yesReserve, noReserve
	case market.OutcomeNo:
		same, opposite = noReserve, yesReserve
	default:
		return Quote{}, market.ErrInvalidAmount
	}

	if tokensIn >= same {
		return Quote{}, market.ErrInvalidAmount
	}

	newSame := same - tokensIn
	newOpposite, ok := mulDiv(yesReserve, noReserve, newSame)
	if !ok {
		return Quote{}, market.ErrInsufficientLiquidity
	}
	if newOpposite <= opposite {
		return Quote{}, market.ErrInvalidAmount
	}
	gross := newOpposite - opposite
	fee := Fee(gross, feeBps)

	q := Quote{AmountOut: gross - fee, Fee: fee}
	switch side {
	case market.OutcomeYes:
		q.NewYesReserve, q.NewNoReserve = newSame, newOpposite
	case market.OutcomeNo:
		q.NewYesReserve, q.NewNoReserve = newOpposite, newSame
	}
	return q, nil
}

// Fee returns the fee portion of amount at the given basis points,
// truncating toward zero.
func Fee(amount, feeBps uint64) uint64 {
	f, ok := mulDiv(amount, feeBps, feeDenominator)
	if !ok {
		// feeBps < denominator, so the quotient fits; unreachable for sane inputs
		return amount
	}
	return f
}

// Price returns the spot price of the given side. Prices are the side's share
// of total reserves, so yes+no always sums to 1 and buying a side moves its
// price up.
func Price(yesReserve, noReserve uint64, side market.Outcome) decimal.Decimal {
	total := yesReserve + noReserve
	if total == 0 {
		return decimal.NewFromFloat(0.5)
	}
	var same uint64
	switch side {
	case market.OutcomeYes:
		same = yesReserve
	case market.OutcomeNo:
		same = noReserve
	}
	return decimal.NewFromUint64(same).DivRound(decimal.NewFromUint64(total), 6)
}

// PriceImpact reports the relative YES price move, in percent, caused by a
// standard probe-sized buy. Markets too shallow to absorb the probe report
// zero impact.
func PriceImpact(yesReserve, noReserve, feeBps uint64) decimal.Decimal {
	before := Price(yesReserve, noReserve, market.OutcomeYes)
	if before.IsZero() {
		return decimal.Zero
	}
	q, err := QuoteBuy(yesReserve, noReserve, market.OutcomeYes, ProbeTradeSize, feeBps)
	if err != nil {
		return decimal.Zero
	}
	after := Price(q.NewYesReserve, q.NewNoReserve, market.OutcomeYes)
	return after.Sub(before).Div(before).Mul(decimal.NewFromInt(100)).Abs().Round(4)
}

// RewardShare computes userTokens/totalTokens of pool with a 128-bit
// intermediate, truncating toward zero. Zero totalTokens yields zero.
func RewardShare(userTokens, totalTokens, pool uint64) uint64 {
	if totalTokens == 0 {
		return 0
	}
	share, ok := mulDiv(userTokens, pool, totalTokens)
	if !ok {
		// userTokens <= totalTokens, so share <= pool; unreachable
		return 0
	}
	return share
}

// mulDiv computes a*b/c with a 128-bit intermediate. Reports false when c is
// zero or the quotient does not fit in 64 bits.
func mulDiv(a, b, c uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if c == 0 || hi >= c {
		return 0, false
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo, true
}
