// =============================
// File: internal/engine/monitor.go
// =============================
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Vixxnu/Pump-Fun-bot/internal/ledger"
	"github.com/Vixxnu/Pump-Fun-bot/internal/types"
	"github.com/Vixxnu/Pump-Fun-bot/internal/wallet"
)

// DefaultQueryBackoff is the fixed wait after a failed token query. It is
// deliberately independent of the configured poll interval.
const DefaultQueryBackoff = 5 * time.Second

// Monitor polls the gateway and evaluates sell triggers for every open
// position until all are closed, the run is cancelled or the timeout elapses.
// Once the timeout elapses with positions still open, every remaining one is
// liquidated unconditionally; that post-loop pass is the only timeout-driven
// sell path.
type Monitor struct {
	gateway      types.Gateway
	ledger       *ledger.Ledger
	logger       *zap.Logger
	profit       decimal.Decimal
	minBuyers    uint64
	timeout      time.Duration
	interval     time.Duration
	queryBackoff time.Duration
	slippage     decimal.Decimal
}

// MonitorConfig bundles the sell-trigger parameters.
type MonitorConfig struct {
	Gateway      types.Gateway
	Ledger       *ledger.Ledger
	Logger       *zap.Logger
	Profit       decimal.Decimal // percent
	MinBuyers    uint64
	Timeout      time.Duration
	Interval     time.Duration
	QueryBackoff time.Duration // DefaultQueryBackoff when zero
	Slippage     decimal.Decimal
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	qb := cfg.QueryBackoff
	if qb <= 0 {
		qb = DefaultQueryBackoff
	}
	return &Monitor{
		gateway:      cfg.Gateway,
		ledger:       cfg.Ledger,
		logger:       cfg.Logger.Named("monitor"),
		profit:       cfg.Profit,
		minBuyers:    cfg.MinBuyers,
		timeout:      cfg.Timeout,
		interval:     cfg.Interval,
		queryBackoff: qb,
		slippage:     cfg.Slippage,
	}
}

// Run drives the polling loop. wallets is the full wallet set for the run;
// positions reference wallets by index.
func (m *Monitor) Run(ctx context.Context, mint string, wallets []*wallet.Wallet) {
	start := time.Now()
	deadline := start.Add(m.timeout)

	m.logger.Info("📊 Monitoring for sell conditions",
		zap.String("token", mint),
		zap.String("profit_percent", m.profit.String()),
		zap.Uint64("min_buyers", m.minBuyers),
		zap.Duration("timeout", m.timeout))

	for ctx.Err() == nil && time.Now().Before(deadline) {
		info, err := m.queryToken(ctx, mint, deadline)
		if err != nil {
			// Only a cancelled run or an exhausted timeout gets here;
			// transient failures are retried inside queryToken.
			break
		}

		for _, pos := range m.ledger.OpenPositions() {
			reason, detail := m.evaluate(pos, info)
			if reason == "" {
				continue
			}
			m.sell(ctx, mint, wallets, pos, reason, detail, false)
		}

		if len(m.ledger.OpenPositions()) == 0 {
			m.logger.Info("All positions sold")
			return
		}

		select {
		case <-ctx.Done():
			m.logger.Info("Monitoring cancelled")
			return
		case <-time.After(m.interval):
		}
	}

	if ctx.Err() != nil {
		// A stop request never triggers liquidation.
		m.logger.Info("Monitoring stopped before timeout")
		return
	}

	m.forceLiquidate(ctx, mint, wallets, time.Since(start))
}

// evaluate applies the trigger precedence for one position: profit first,
// then popularity. Timeout is handled by the loop itself, not per position.
func (m *Monitor) evaluate(pos ledger.Position, info *types.TokenInfo) (ledger.CloseReason, string) {
	profit := ProfitPercent(pos.BuyPrice, info.Price)
	if profit.Cmp(m.profit) >= 0 {
		return ledger.ReasonProfit, fmt.Sprintf("profit target reached: %s%%", profit.StringFixed(2))
	}
	if info.BuyerCount >= m.minBuyers {
		return ledger.ReasonBuyers, fmt.Sprintf("buyer count target reached: %d buyers", info.BuyerCount)
	}
	return "", ""
}

// forceLiquidate sells every remaining open position exactly once, regardless
// of profit or popularity. Failures are recorded, not retried.
func (m *Monitor) forceLiquidate(ctx context.Context, mint string, wallets []*wallet.Wallet, elapsed time.Duration) {
	open := m.ledger.OpenPositions()
	if len(open) == 0 {
		return
	}

	m.logger.Info("⏰ Timeout reached, selling remaining positions",
		zap.Duration("elapsed", elapsed),
		zap.Int("open_positions", len(open)))

	detail := fmt.Sprintf("timeout reached: %ds", int(elapsed.Seconds()))
	for _, pos := range open {
		m.sell(ctx, mint, wallets, pos, ledger.ReasonTimeout, detail, true)
	}
}

// sell attempts one sell and appends its outcome atomically with the position
// state change. On failure the position stays open (unless this was the
// forced pass, which never retries).
func (m *Monitor) sell(ctx context.Context, mint string, wallets []*wallet.Wallet, pos ledger.Position, reason ledger.CloseReason, detail string, forced bool) {
	if pos.WalletIndex < 0 || pos.WalletIndex >= len(wallets) {
		m.logger.Error("Position references unknown wallet", zap.Int("wallet", pos.WalletIndex))
		return
	}
	w := wallets[pos.WalletIndex]

	m.logger.Info("💰 Selling position",
		zap.Int("wallet", pos.WalletIndex),
		zap.String("reason", string(reason)),
		zap.String("detail", detail))

	result, err := m.gateway.Sell(ctx, mint, w, pos.TokenAmount, m.slippage)
	if err != nil {
		kind := ledger.KindSellFailed
		if forced {
			kind = ledger.KindSellFailedTimeout
		}
		m.logger.Error("Sell failed", zap.Int("wallet", pos.WalletIndex), zap.Error(err))
		m.ledger.Append(ledger.Record{
			WalletIndex: pos.WalletIndex,
			Kind:        kind,
			AmountSol:   decimal.Zero,
			TokenAmount: pos.TokenAmount,
			Detail:      err.Error(),
		})
		// The forced pass iterates a snapshot and attempts each position
		// exactly once, so a failure there is final without closing it.
		return
	}

	kind := ledger.KindSell
	if forced {
		kind = ledger.KindSellTimeout
	}
	m.ledger.Append(ledger.Record{
		WalletIndex: pos.WalletIndex,
		Kind:        kind,
		AmountSol:   result.AmountSol,
		TokenAmount: pos.TokenAmount,
		Signature:   result.Signature,
		Detail:      detail,
	})
	m.ledger.ClosePosition(pos.ID, reason)

	m.logger.Info("Sell successful",
		zap.Int("wallet", pos.WalletIndex),
		zap.String("signature", result.Signature),
		zap.String("proceeds_sol", result.AmountSol.String()))
}

// queryToken fetches the token snapshot, retrying transient failures on a
// fixed backoff until it succeeds, the run is cancelled or the run deadline
// expires. A failed query is never fatal to the run.
func (m *Monitor) queryToken(ctx context.Context, mint string, deadline time.Time) (*types.TokenInfo, error) {
	queryCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	return backoff.Retry(queryCtx,
		func() (*types.TokenInfo, error) {
			return m.gateway.TokenInfo(queryCtx, mint)
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(m.queryBackoff)),
		backoff.WithMaxElapsedTime(time.Until(deadline)),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.logger.Warn("Could not get token info, retrying",
				zap.Error(err), zap.Duration("retry_in", next))
		}))
}
