// =============================
// File: internal/api/server_test.go
// =============================
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vixxnu/Pump-Fun-bot/internal/engine"
	"github.com/Vixxnu/Pump-Fun-bot/internal/ledger"
)

// fakeBot implements Bot with canned behavior.
type fakeBot struct {
	mu       sync.Mutex
	startErr error
	started  []string
	stops    int
	snapshot ledger.Snapshot
}

func (b *fakeBot) Start(tokenAddress string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startErr != nil {
		return 0, b.startErr
	}
	b.started = append(b.started, tokenAddress)
	return 2, nil
}

func (b *fakeBot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
}

func (b *fakeBot) Status() ledger.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot
}

func newTestServer(t *testing.T, bot *fakeBot) http.Handler {
	t.Helper()
	return NewServer(bot, zaptest.NewLogger(t)).Router()
}

func TestStartEndpoint(t *testing.T) {
	bot := &fakeBot{}
	router := newTestServer(t, bot)

	req := httptest.NewRequest(http.MethodPost, "/api/bot/start",
		strings.NewReader(`{"token_address": "So11111111111111111111111111111111111111112"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, bot.started, 1)
	assert.Equal(t, "So11111111111111111111111111111111111111112", bot.started[0])

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bot started", body["message"])
	assert.Equal(t, float64(2), body["wallets"])
}

func TestStartEndpointRequiresToken(t *testing.T) {
	bot := &fakeBot{}
	router := newTestServer(t, bot)

	for _, body := range []string{``, `{}`, `{"token_address": ""}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/bot/start", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %q", body)
	}
	assert.Empty(t, bot.started)
}

func TestStartEndpointConflictWhenRunning(t *testing.T) {
	bot := &fakeBot{startErr: engine.ErrAlreadyRunning}
	router := newTestServer(t, bot)

	req := httptest.NewRequest(http.MethodPost, "/api/bot/start",
		strings.NewReader(`{"token_address": "So11111111111111111111111111111111111111112"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartEndpointBadToken(t *testing.T) {
	bot := &fakeBot{startErr: fmt.Errorf("%w %q", engine.ErrInvalidToken, "xyz")}
	router := newTestServer(t, bot)

	req := httptest.NewRequest(http.MethodPost, "/api/bot/start",
		strings.NewReader(`{"token_address": "xyz"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartEndpointWalletFailureIsServerError(t *testing.T) {
	bot := &fakeBot{startErr: errors.New("failed to load wallets: no wallets found in configuration")}
	router := newTestServer(t, bot)

	req := httptest.NewRequest(http.MethodPost, "/api/bot/start",
		strings.NewReader(`{"token_address": "So11111111111111111111111111111111111111112"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStopEndpointIsIdempotent(t *testing.T) {
	bot := &fakeBot{}
	router := newTestServer(t, bot)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bot/stop", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2, bot.stops)
}

func TestStatusEndpoint(t *testing.T) {
	bot := &fakeBot{snapshot: ledger.Snapshot{
		Running:       true,
		Token:         "mint",
		RunID:         "run-1",
		StartedAt:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		WalletCount:   3,
		OpenPositions: 2,
		Transactions:  []ledger.Record{{WalletIndex: 0, Kind: ledger.KindBuy}},
	}}
	router := newTestServer(t, bot)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bot/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var snap ledger.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.Running)
	assert.Equal(t, "mint", snap.Token)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, 3, snap.WalletCount)
	assert.Equal(t, 2, snap.OpenPositions)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, ledger.KindBuy, snap.Transactions[0].Kind)
}

func TestStatusWebsocketPushes(t *testing.T) {
	bot := &fakeBot{snapshot: ledger.Snapshot{Running: true, Token: "mint"}}
	srv := httptest.NewServer(newTestServer(t, bot))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/bot/status/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// The first snapshot arrives immediately, the next on the ticker.
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var snap ledger.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		assert.True(t, snap.Running)
		assert.Equal(t, "mint", snap.Token)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(t, &fakeBot{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
