// =============================
// File: internal/pumpfun/client.go
// =============================
package pumpfun

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Vixxnu/Pump-Fun-bot/internal/types"
	"github.com/Vixxnu/Pump-Fun-bot/internal/wallet"
)

const (
	// confirmTimeout bounds how long a buy/sell waits for on-chain
	// confirmation before reporting a timeout failure.
	confirmTimeout      = 30 * time.Second
	confirmPollInterval = 500 * time.Millisecond
)

var errNotConfirmed = errors.New("transaction not yet confirmed")

// Client talks to the Pump.fun program over a single Solana RPC endpoint and
// implements the engine's gateway surface.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger

	mu           sync.Mutex
	feeRecipient solana.PublicKey
}

// NewClient creates a Pump.fun client for the given RPC endpoint.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("pumpfun"),
	}
}

var _ types.Gateway = (*Client)(nil)

// TokenInfo reads the token's bonding curve account and returns the current
// price and distinct-buyer count. types.ErrTokenNotFound means the curve
// account does not exist yet.
func (c *Client) TokenInfo(ctx context.Context, mint string) (*types.TokenInfo, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint address: %w", err)
	}

	accounts, err := deriveTokenAccounts(mintKey)
	if err != nil {
		return nil, err
	}

	result, err := c.rpc.GetAccountInfo(ctx, accounts.BondingCurve)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, types.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get bonding curve account: %w", err)
	}
	if result == nil || result.Value == nil {
		return nil, types.ErrTokenNotFound
	}

	state, err := parseCurveState(result.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}

	return &types.TokenInfo{
		Mint:       mint,
		Price:      state.Price(),
		BuyerCount: state.BuyerCount,
	}, nil
}

// Balance returns the wallet's SOL balance.
func (c *Client) Balance(ctx context.Context, w *wallet.Wallet) (decimal.Decimal, error) {
	result, err := c.rpc.GetBalance(ctx, w.PublicKey, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return lamportsToSol(result.Value), nil
}

// Buy spends amountSol on the token's bonding curve, waits for confirmation
// and returns the received amount and fill price.
func (c *Client) Buy(ctx context.Context, mint string, w *wallet.Wallet, amountSol, slippagePercent decimal.Decimal) (*types.BuyResult, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint address: %w", err)
	}
	accounts, err := deriveTokenAccounts(mintKey)
	if err != nil {
		return nil, err
	}

	info, err := c.TokenInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("query token before buy: %w", err)
	}
	if info.Price.IsZero() {
		return nil, fmt.Errorf("token %s has no price on the curve yet", mint)
	}

	feeRecipient, err := c.getFeeRecipient(ctx, accounts.Global)
	if err != nil {
		return nil, err
	}

	// Expected tokens for the spend; the program caps the actual cost at
	// maxSolCost, so slippage widens the cap rather than the estimate.
	expectedTokens := amountSol.Div(info.Price)
	maxSolCost := amountSol.Mul(slippageUp(slippagePercent))

	buyIx, err := buildBuyInstruction(accounts, feeRecipient, w, tokensToRaw(expectedTokens), solToLamports(maxSolCost))
	if err != nil {
		return nil, err
	}
	ataIx, err := buildCreateATAInstruction(w, mintKey)
	if err != nil {
		return nil, err
	}

	sig, err := c.sendAndConfirm(ctx, w, []solana.Instruction{ataIx, buyIx})
	if err != nil {
		return nil, err
	}

	// Re-read the curve for the fill price; fall back to the pre-trade
	// price when the read fails right after confirmation.
	fillPrice := info.Price
	if after, err := c.TokenInfo(ctx, mint); err == nil {
		fillPrice = after.Price
	}

	c.logger.Info("✅ Buy confirmed",
		zap.String("wallet", w.String()),
		zap.String("signature", sig.String()),
		zap.String("amount_sol", amountSol.String()),
		zap.String("tokens", expectedTokens.String()))

	return &types.BuyResult{
		Signature:   sig.String(),
		TokenAmount: expectedTokens,
		Price:       fillPrice,
		AmountSol:   amountSol,
	}, nil
}

// Sell sells tokenAmount back to the bonding curve, waits for confirmation
// and returns the estimated SOL proceeds.
func (c *Client) Sell(ctx context.Context, mint string, w *wallet.Wallet, tokenAmount, slippagePercent decimal.Decimal) (*types.SellResult, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint address: %w", err)
	}
	accounts, err := deriveTokenAccounts(mintKey)
	if err != nil {
		return nil, err
	}

	info, err := c.TokenInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("query token before sell: %w", err)
	}

	feeRecipient, err := c.getFeeRecipient(ctx, accounts.Global)
	if err != nil {
		return nil, err
	}

	proceeds := tokenAmount.Mul(info.Price)
	minSolOutput := proceeds.Mul(slippageDown(slippagePercent))

	sellIx, err := buildSellInstruction(accounts, feeRecipient, w, tokensToRaw(tokenAmount), solToLamports(minSolOutput))
	if err != nil {
		return nil, err
	}

	sig, err := c.sendAndConfirm(ctx, w, []solana.Instruction{sellIx})
	if err != nil {
		return nil, err
	}

	c.logger.Info("✅ Sell confirmed",
		zap.String("wallet", w.String()),
		zap.String("signature", sig.String()),
		zap.String("tokens", tokenAmount.String()),
		zap.String("proceeds_sol", proceeds.String()))

	return &types.SellResult{
		Signature: sig.String(),
		AmountSol: proceeds,
	}, nil
}

// getFeeRecipient fetches the program's fee recipient from the global
// account, caching it for the process lifetime.
func (c *Client) getFeeRecipient(ctx context.Context, global solana.PublicKey) (solana.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.feeRecipient.IsZero() {
		return c.feeRecipient, nil
	}

	result, err := c.rpc.GetAccountInfo(ctx, global)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("get global account: %w", err)
	}
	if result == nil || result.Value == nil {
		return solana.PublicKey{}, fmt.Errorf("global account %s not found", global.String())
	}

	state, err := parseGlobalState(result.Value.Data.GetBinary())
	if err != nil {
		return solana.PublicKey{}, err
	}

	c.feeRecipient = state.FeeRecipient
	return c.feeRecipient, nil
}

// sendAndConfirm builds, signs and submits the transaction, then polls
// signature status until it is confirmed or the bounded wait elapses.
func (c *Client) sendAndConfirm(ctx context.Context, w *wallet.Wallet, instructions []solana.Instruction) (solana.Signature, error) {
	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash.Value.Blockhash,
		solana.TransactionPayer(w.PublicKey),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("create transaction: %w", err)
	}

	if err := w.SignTransaction(tx); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	c.logger.Info("📤 Transaction sent: " + sig.String()[:8] + "...")

	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return sig, fmt.Errorf("confirmation failed: %w", err)
	}
	return sig, nil
}

func (c *Client) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	operation := func() (struct{}, error) {
		statuses, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return struct{}{}, fmt.Errorf("get signature statuses: %w", err)
		}
		if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			return struct{}{}, errNotConfirmed
		}
		status := statuses.Value[0]
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("transaction failed: %v", status.Err))
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return struct{}{}, nil
		}
		return struct{}{}, errNotConfirmed
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(confirmPollInterval)),
		backoff.WithMaxElapsedTime(confirmTimeout))
	if err != nil {
		if errors.Is(err, errNotConfirmed) {
			return fmt.Errorf("confirmation timeout after %s", confirmTimeout)
		}
		return err
	}
	return nil
}

// slippageUp returns the multiplier that widens a spend cap by the slippage
// percentage; slippageDown tightens a minimum output the same way.
func slippageUp(percent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(percent.Div(decimal.NewFromInt(100)))
}

func slippageDown(percent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100)))
}
