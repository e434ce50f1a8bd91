// =============================
// File: internal/pumpfun/client_test.go
// =============================
package pumpfun

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vixxnu/Pump-Fun-bot/internal/types"
	"github.com/Vixxnu/Pump-Fun-bot/internal/wallet"
)

// rpcStub answers JSON-RPC calls with canned per-method results.
func rpcStub(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected RPC method %q", req.Method)
			result = "null"
		}

		id, _ := json.Marshal(req.ID)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, id, result)
	}))
}

func curveAccountJSON(buyers, priceLamports uint64) string {
	data := make([]byte, 24)
	binary.LittleEndian.PutUint64(data[8:16], buyers)
	binary.LittleEndian.PutUint64(data[16:24], priceLamports)
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf(`{"context":{"slot":1},"value":{"data":["%s","base64"],"executable":false,"lamports":1000000,"owner":"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P","rentEpoch":0}}`, encoded)
}

func TestClientTokenInfo(t *testing.T) {
	srv := rpcStub(t, map[string]string{
		"getAccountInfo": curveAccountJSON(25, 1_500_000),
	})
	defer srv.Close()

	client := NewClient(srv.URL, zaptest.NewLogger(t))
	mint := solana.NewWallet().PublicKey().String()

	info, err := client.TokenInfo(context.Background(), mint)
	require.NoError(t, err)

	assert.Equal(t, mint, info.Mint)
	assert.Equal(t, uint64(25), info.BuyerCount)
	assert.True(t, info.Price.Equal(decimal.NewFromFloat(0.0015)))
}

func TestClientTokenInfoNotFound(t *testing.T) {
	srv := rpcStub(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":null}`,
	})
	defer srv.Close()

	client := NewClient(srv.URL, zaptest.NewLogger(t))

	_, err := client.TokenInfo(context.Background(), solana.NewWallet().PublicKey().String())
	assert.ErrorIs(t, err, types.ErrTokenNotFound)
}

func TestClientTokenInfoRejectsBadMint(t *testing.T) {
	client := NewClient("http://unused.invalid", zaptest.NewLogger(t))

	_, err := client.TokenInfo(context.Background(), "not-a-mint")
	assert.Error(t, err)
}

func TestClientBalance(t *testing.T) {
	srv := rpcStub(t, map[string]string{
		"getBalance": `{"context":{"slot":1},"value":2500000000}`,
	})
	defer srv.Close()

	client := NewClient(srv.URL, zaptest.NewLogger(t))
	w, err := wallet.New(0, "test", solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	balance, err := client.Balance(context.Background(), w)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(2.5)))
}
