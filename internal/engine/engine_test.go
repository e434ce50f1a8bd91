// =============================
// File: internal/engine/engine_test.go
// =============================
package engine

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/Vixxnu/Pump-Fun-bot/internal/types"
	"github.com/Vixxnu/Pump-Fun-bot/internal/wallet"
)

// mockGateway implements types.Gateway with per-method hooks and call
// recording. Unset hooks succeed with benign defaults.
type mockGateway struct {
	mu sync.Mutex

	tokenInfoFn func(ctx context.Context, mint string) (*types.TokenInfo, error)
	buyFn       func(ctx context.Context, mint string, w *wallet.Wallet, amountSol, slippage decimal.Decimal) (*types.BuyResult, error)
	sellFn      func(ctx context.Context, mint string, w *wallet.Wallet, tokenAmount, slippage decimal.Decimal) (*types.SellResult, error)
	balanceFn   func(ctx context.Context, w *wallet.Wallet) (decimal.Decimal, error)

	buyCalls  []int // wallet indices, in call order
	sellCalls []int
}

func (m *mockGateway) TokenInfo(ctx context.Context, mint string) (*types.TokenInfo, error) {
	if m.tokenInfoFn != nil {
		return m.tokenInfoFn(ctx, mint)
	}
	return &types.TokenInfo{Mint: mint, Price: decimal.NewFromFloat(0.001)}, nil
}

func (m *mockGateway) Buy(ctx context.Context, mint string, w *wallet.Wallet, amountSol, slippage decimal.Decimal) (*types.BuyResult, error) {
	m.mu.Lock()
	m.buyCalls = append(m.buyCalls, w.Index)
	m.mu.Unlock()
	if m.buyFn != nil {
		return m.buyFn(ctx, mint, w, amountSol, slippage)
	}
	return &types.BuyResult{
		Signature:   "buy-sig",
		TokenAmount: amountSol.Div(decimal.NewFromFloat(0.001)),
		Price:       decimal.NewFromFloat(0.001),
		AmountSol:   amountSol,
	}, nil
}

func (m *mockGateway) Sell(ctx context.Context, mint string, w *wallet.Wallet, tokenAmount, slippage decimal.Decimal) (*types.SellResult, error) {
	m.mu.Lock()
	m.sellCalls = append(m.sellCalls, w.Index)
	m.mu.Unlock()
	if m.sellFn != nil {
		return m.sellFn(ctx, mint, w, tokenAmount, slippage)
	}
	return &types.SellResult{Signature: "sell-sig", AmountSol: decimal.NewFromFloat(0.02)}, nil
}

func (m *mockGateway) Balance(ctx context.Context, w *wallet.Wallet) (decimal.Decimal, error) {
	if m.balanceFn != nil {
		return m.balanceFn(ctx, w)
	}
	return decimal.NewFromInt(10), nil
}

func (m *mockGateway) buyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buyCalls)
}

func (m *mockGateway) sellCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sellCalls)
}

// testWallets builds n wallets with fresh keypairs.
func testWallets(n int) []*wallet.Wallet {
	wallets := make([]*wallet.Wallet, n)
	for i := range wallets {
		w, err := wallet.New(i, "", solana.NewWallet().PrivateKey.String())
		if err != nil {
			panic(err)
		}
		wallets[i] = w
	}
	return wallets
}
