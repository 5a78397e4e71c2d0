package market

import "errors"

// Error kinds returned by ledger operations. Callers match with errors.Is;
// transports map each kind to a status code.
var (
	ErrMarketNotFound        = errors.New("market not found")
	ErrMarketClosed          = errors.New("market closed")
	ErrMarketResolved        = errors.New("market already resolved")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientDeposit   = errors.New("insufficient deposit")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrAlreadyClaimed        = errors.New("reward already claimed")
	ErrNoWinningTokens       = errors.New("no winning tokens")
)
