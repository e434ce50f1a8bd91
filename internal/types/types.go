// =============================
// File: internal/types/types.go
// =============================
package types

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Vixxnu/Pump-Fun-bot/internal/wallet"
)

// ErrTokenNotFound is returned by Gateway.TokenInfo when the token's curve
// account does not exist yet (for example before launch).
var ErrTokenNotFound = errors.New("token not found")

// TokenInfo is one snapshot of the token's on-curve state.
type TokenInfo struct {
	Mint       string
	Price      decimal.Decimal // SOL per token
	BuyerCount uint64
}

// BuyResult describes a confirmed buy.
type BuyResult struct {
	Signature   string
	TokenAmount decimal.Decimal
	Price       decimal.Decimal // SOL per token at fill
	AmountSol   decimal.Decimal
}

// SellResult describes a confirmed sell.
type SellResult struct {
	Signature string
	AmountSol decimal.Decimal // estimated proceeds
}

// Gateway is the venue-facing surface the engine consumes. Each of Buy and
// Sell submits, then awaits confirmation internally with a bounded wait, so a
// call returns an error rather than blocking indefinitely.
type Gateway interface {
	TokenInfo(ctx context.Context, mint string) (*TokenInfo, error)
	Buy(ctx context.Context, mint string, w *wallet.Wallet, amountSol, slippagePercent decimal.Decimal) (*BuyResult, error)
	Sell(ctx context.Context, mint string, w *wallet.Wallet, tokenAmount, slippagePercent decimal.Decimal) (*SellResult, error)
	Balance(ctx context.Context, w *wallet.Wallet) (decimal.Decimal, error)
}
