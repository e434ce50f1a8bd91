// =============================
// File: internal/engine/controller.go
// =============================
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vixxnu/Pump-Fun-bot/internal/config"
	"github.com/Vixxnu/Pump-Fun-bot/internal/ledger"
	"github.com/Vixxnu/Pump-Fun-bot/internal/types"
	"github.com/Vixxnu/Pump-Fun-bot/internal/wallet"
)

var (
	// ErrAlreadyRunning is returned by Start when a run is already in flight.
	ErrAlreadyRunning = errors.New("a run is already in progress")

	// ErrInvalidToken is returned by Start when the token address is not a
	// valid base58 public key.
	ErrInvalidToken = errors.New("invalid token address")
)

// stopGracePeriod bounds how long Stop waits for the worker to wind down
// after cancellation.
const stopGracePeriod = 2 * time.Second

// Controller owns the run lifecycle: at most one worker goroutine at a time,
// driving the buy phase and then the monitor. Start, Stop and Status are safe
// to call concurrently from HTTP handlers.
type Controller struct {
	cfg     *config.Settings
	gateway types.Gateway
	ledger  *ledger.Ledger
	logger  *zap.Logger

	// loadWallets is read fresh on every Start so key rotations between
	// runs take effect without a restart.
	loadWallets func() ([]*wallet.Wallet, error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewController wires a controller over the shared ledger and gateway.
func NewController(cfg *config.Settings, gateway types.Gateway, l *ledger.Ledger, logger *zap.Logger) *Controller {
	return &Controller{
		cfg:         cfg,
		gateway:     gateway,
		ledger:      l,
		logger:      logger.Named("controller"),
		loadWallets: func() ([]*wallet.Wallet, error) { return wallet.LoadWallets(cfg.WalletsFile) },
	}
}

// Start validates the token address, loads the wallets and launches the run
// worker. It returns the wallet count as soon as the worker is spawned;
// progress is observable through Status.
func (c *Controller) Start(tokenAddress string) (int, error) {
	mint, err := solana.PublicKeyFromBase58(tokenAddress)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidToken, tokenAddress, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		select {
		case <-c.done:
			// Previous run finished; fall through and start a new one.
		default:
			return 0, ErrAlreadyRunning
		}
	}

	wallets, err := c.loadWallets()
	if err != nil {
		return 0, fmt.Errorf("failed to load wallets: %w", err)
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.cancel = cancel
	c.done = done
	c.ledger.Reset(mint.String(), runID, len(wallets))
	c.ledger.SetRunning(true)

	c.logger.Info("🚀 Starting trading run",
		zap.String("token", mint.String()),
		zap.String("run_id", runID),
		zap.Int("wallets", len(wallets)))

	go c.run(ctx, mint.String(), wallets, done)

	return len(wallets), nil
}

// run is the single worker: buy phase first, then the monitor over whatever
// positions the buys opened.
func (c *Controller) run(ctx context.Context, mint string, wallets []*wallet.Wallet, done chan struct{}) {
	defer close(done)
	defer c.ledger.SetRunning(false)

	executor := NewExecutor(ExecutorConfig{
		Gateway:   c.gateway,
		Ledger:    c.ledger,
		Logger:    c.logger,
		Slippage:  c.cfg.Slippage(),
		BuyDelay:  c.cfg.BuyDelay,
		AmountFor: c.cfg.BuyAmountFor,
	})

	created := executor.Run(ctx, mint, wallets)
	if created == 0 {
		c.logger.Warn("No positions opened, run finished", zap.String("token", mint))
		return
	}

	monitor := NewMonitor(MonitorConfig{
		Gateway:   c.gateway,
		Ledger:    c.ledger,
		Logger:    c.logger,
		Profit:    c.cfg.Profit(),
		MinBuyers: c.cfg.MinBuyers,
		Timeout:   c.cfg.Timeout,
		Interval:  c.cfg.MonitorInterval,
		Slippage:  c.cfg.Slippage(),
	})
	monitor.Run(ctx, mint, wallets)

	c.logger.Info("Trading run finished", zap.String("token", mint))
}

// Stop cancels the active run and waits briefly for the worker to exit.
// Stopping when nothing runs is a no-op. Open positions are left untouched; a
// stop never sells.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	if done != nil {
		select {
		case <-done:
		case <-time.After(stopGracePeriod):
			c.logger.Warn("Run worker did not stop within grace period")
		}
	}
}

// Status returns a point-in-time snapshot of the current (or last) run.
func (c *Controller) Status() ledger.Snapshot {
	return c.ledger.Snapshot()
}
