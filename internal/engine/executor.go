// =============================
// File: internal/engine/executor.go
// =============================
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Vixxnu/Pump-Fun-bot/internal/ledger"
	"github.com/Vixxnu/Pump-Fun-bot/internal/types"
	"github.com/Vixxnu/Pump-Fun-bot/internal/wallet"
)

// Executor performs the one-shot multi-wallet buy phase: one buy attempt per
// wallet, strictly in index order.
type Executor struct {
	gateway  types.Gateway
	ledger   *ledger.Ledger
	logger   *zap.Logger
	slippage decimal.Decimal
	buyDelay time.Duration

	// amountFor maps a wallet index to its configured spend.
	amountFor func(int) decimal.Decimal
}

// ExecutorConfig bundles the buy-phase parameters.
type ExecutorConfig struct {
	Gateway   types.Gateway
	Ledger    *ledger.Ledger
	Logger    *zap.Logger
	Slippage  decimal.Decimal
	BuyDelay  time.Duration
	AmountFor func(int) decimal.Decimal
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	return &Executor{
		gateway:   cfg.Gateway,
		ledger:    cfg.Ledger,
		logger:    cfg.Logger.Named("executor"),
		slippage:  cfg.Slippage,
		buyDelay:  cfg.BuyDelay,
		amountFor: cfg.AmountFor,
	}
}

// Run attempts one buy per wallet in index order and returns how many
// positions were opened. Cancellation is honored between wallet attempts,
// never mid-submission.
func (e *Executor) Run(ctx context.Context, mint string, wallets []*wallet.Wallet) int {
	// One informational pre-check; a token that has not launched yet is
	// not an error, the buys themselves will report per-wallet outcomes.
	if _, err := e.gateway.TokenInfo(ctx, mint); err != nil {
		if errors.Is(err, types.ErrTokenNotFound) {
			e.logger.Info("Token not yet available on Pump.fun, waiting for launch",
				zap.String("token", mint))
		} else {
			e.logger.Warn("Token pre-check failed", zap.String("token", mint), zap.Error(err))
		}
	}

	attempted := 0
	created := 0

	for _, w := range wallets {
		if ctx.Err() != nil {
			e.logger.Info("Buy phase cancelled", zap.Int("wallet", w.Index))
			break
		}

		amount := e.amountFor(w.Index)
		if amount.Sign() <= 0 {
			continue
		}

		balance, err := e.gateway.Balance(ctx, w)
		if err != nil {
			e.logger.Error("Balance query failed",
				zap.Int("wallet", w.Index), zap.Error(err))
			e.ledger.Append(ledger.Record{
				WalletIndex: w.Index,
				Kind:        ledger.KindBuyFailed,
				AmountSol:   amount,
				Detail:      fmt.Sprintf("balance query failed: %v", err),
			})
			continue
		}
		if balance.Cmp(amount) < 0 {
			e.logger.Warn("Insufficient balance",
				zap.Int("wallet", w.Index),
				zap.String("balance_sol", balance.String()),
				zap.String("needed_sol", amount.String()))
			e.ledger.Append(ledger.Record{
				WalletIndex: w.Index,
				Kind:        ledger.KindBuyFailed,
				AmountSol:   amount,
				Detail:      fmt.Sprintf("insufficient balance: %s SOL, need %s SOL", balance, amount),
			})
			continue
		}

		// Pace the buys, but never stall before the first one.
		if attempted > 0 && e.buyDelay > 0 {
			select {
			case <-ctx.Done():
				e.logger.Info("Buy phase cancelled during delay", zap.Int("wallet", w.Index))
				return created
			case <-time.After(e.buyDelay):
			}
		}
		attempted++

		e.logger.Info("🛒 Buying",
			zap.Int("wallet", w.Index),
			zap.String("amount_sol", amount.String()))

		result, err := e.gateway.Buy(ctx, mint, w, amount, e.slippage)
		if err != nil {
			e.logger.Error("Buy failed", zap.Int("wallet", w.Index), zap.Error(err))
			e.ledger.Append(ledger.Record{
				WalletIndex: w.Index,
				Kind:        ledger.KindBuyFailed,
				AmountSol:   amount,
				Detail:      err.Error(),
			})
			continue
		}

		e.ledger.Append(ledger.Record{
			WalletIndex: w.Index,
			Kind:        ledger.KindBuy,
			AmountSol:   amount,
			TokenAmount: result.TokenAmount,
			Signature:   result.Signature,
		})
		e.ledger.OpenPosition(w.Index, result.Price, result.TokenAmount)
		created++

		e.logger.Info("Buy successful",
			zap.Int("wallet", w.Index),
			zap.String("signature", result.Signature),
			zap.String("tokens", result.TokenAmount.String()),
			zap.String("price", result.Price.String()))
	}

	return created
}
