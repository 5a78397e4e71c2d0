package market

import "github.com/shopspring/decimal"

// TradeResult is the outcome of an executed or quoted trade. For buys,
// TokensReceived is claim tokens and TokensPaid is base currency; for sells
// the units are reversed.
type TradeResult struct {
	TokensReceived uint64          `json:"tokens_received"`
	TokensPaid     uint64          `json:"tokens_paid"`
	FeePaid        uint64          `json:"fee_paid"`
	NewPrice       decimal.Decimal `json:"new_price"`
}

// MarketSummary is a market plus its derived pricing fields, the read-side
// shape served to market listings.
type MarketSummary struct {
	Market
	YesPrice    decimal.Decimal `json:"yes_price"`
	NoPrice     decimal.Decimal `json:"no_price"`
	PriceImpact decimal.Decimal `json:"price_impact"`
}
