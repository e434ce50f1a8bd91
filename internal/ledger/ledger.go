// =============================================
// File: internal/ledger/ledger.go
// =============================================
package ledger

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MaxRecords is how many transaction records the ledger retains. Appending
// past the cap evicts the oldest record first.
const MaxRecords = 100

// Kind enumerates the kinds of transaction records a run can produce.
type Kind string

const (
	KindBuy               Kind = "BUY"
	KindBuyFailed         Kind = "BUY_FAILED"
	KindSell              Kind = "SELL"
	KindSellFailed        Kind = "SELL_FAILED"
	KindSellTimeout       Kind = "SELL_TIMEOUT"
	KindSellFailedTimeout Kind = "SELL_FAILED_TIMEOUT"
)

// CloseReason records which trigger closed a position.
type CloseReason string

const (
	ReasonProfit  CloseReason = "profit"
	ReasonBuyers  CloseReason = "buyers"
	ReasonTimeout CloseReason = "timeout"
)

// Record is one immutable ledger entry.
type Record struct {
	Timestamp   time.Time       `json:"timestamp"`
	WalletIndex int             `json:"wallet"`
	Kind        Kind            `json:"kind"`
	AmountSol   decimal.Decimal `json:"amount_sol"`
	TokenAmount decimal.Decimal `json:"token_amount"`
	Signature   string          `json:"tx_hash,omitempty"`
	Detail      string          `json:"detail,omitempty"`
}

// Position is the open exposure from one successful buy. ID is assigned by
// the ledger and is stable for the run.
type Position struct {
	ID          int             `json:"id"`
	WalletIndex int             `json:"wallet"`
	BuyPrice    decimal.Decimal `json:"buy_price"`
	TokenAmount decimal.Decimal `json:"token_amount"`
	Sold        bool            `json:"sold"`
	CloseReason CloseReason     `json:"close_reason,omitempty"`
}

// Snapshot is a point-in-time copy of the ledger and run flags, safe to hold
// after the lock is released.
type Snapshot struct {
	Running       bool      `json:"running"`
	Token         string    `json:"token,omitempty"`
	RunID         string    `json:"run_id,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	WalletCount   int       `json:"wallets"`
	OpenPositions int       `json:"open_positions"`
	Transactions  []Record  `json:"transactions"`
}

// Ledger is the single shared structure between the run worker and status
// readers. Every read and write goes through one mutex; no caller ever sees a
// partially written record.
type Ledger struct {
	mu          sync.Mutex
	records     []Record
	positions   []Position
	running     bool
	token       string
	runID       string
	startedAt   time.Time
	walletCount int
}

func New() *Ledger {
	return &Ledger{}
}

// Reset clears the ledger for a new run and stamps its identity. The previous
// run's token and timestamps are overwritten, not merely hidden.
func (l *Ledger) Reset(token, runID string, walletCount int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = nil
	l.positions = nil
	l.token = token
	l.runID = runID
	l.walletCount = walletCount
	l.startedAt = time.Now()
}

// SetRunning flips the run flag.
func (l *Ledger) SetRunning(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = v
}

// Running reports whether a run is active.
func (l *Ledger) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Append adds a record, evicting the oldest when the cap is exceeded. A zero
// timestamp is stamped with the current time.
func (l *Ledger) Append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	l.records = append(l.records, r)
	if len(l.records) > MaxRecords {
		l.records = l.records[len(l.records)-MaxRecords:]
	}
}

// OpenPosition records a successful buy and returns the position ID.
func (l *Ledger) OpenPosition(walletIndex int, buyPrice, tokenAmount decimal.Decimal) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := Position{
		ID:          len(l.positions),
		WalletIndex: walletIndex,
		BuyPrice:    buyPrice,
		TokenAmount: tokenAmount,
	}
	l.positions = append(l.positions, p)
	return p.ID
}

// OpenPositions returns copies of every position not yet sold, in ID order.
func (l *Ledger) OpenPositions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	var open []Position
	for _, p := range l.positions {
		if !p.Sold {
			open = append(open, p)
		}
	}
	return open
}

// PositionCount returns how many positions the run has opened.
func (l *Ledger) PositionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.positions)
}

// ClosePosition marks a position sold with the given reason. It returns false
// when the ID is unknown or the position was already sold; a position is
// closed at most once.
func (l *Ledger) ClosePosition(id int, reason CloseReason) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id < 0 || id >= len(l.positions) {
		return false
	}
	if l.positions[id].Sold {
		return false
	}
	l.positions[id].Sold = true
	l.positions[id].CloseReason = reason
	return true
}

// Snapshot returns a copy of the current ledger state. The returned slice is
// owned by the caller; mutating it never affects the ledger.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	open := 0
	for _, p := range l.positions {
		if !p.Sold {
			open++
		}
	}

	txs := make([]Record, len(l.records))
	copy(txs, l.records)

	return Snapshot{
		Running:       l.running,
		Token:         l.token,
		RunID:         l.runID,
		StartedAt:     l.startedAt,
		WalletCount:   l.walletCount,
		OpenPositions: open,
		Transactions:  txs,
	}
}
