// =============================
// File: internal/pumpfun/account.go
// =============================
package pumpfun

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the decimal count of every Pump.fun mint.
const TokenDecimals = 6

// curveState is the slice of the bonding curve account the bot needs:
// distinct buyer count as a u64 LE at bytes 8..16 and the current price in
// lamports as a u64 LE at bytes 16..24.
type curveState struct {
	BuyerCount    uint64
	PriceLamports uint64
}

func parseCurveState(data []byte) (*curveState, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("insufficient curve account data length: %d", len(data))
	}
	return &curveState{
		BuyerCount:    binary.LittleEndian.Uint64(data[8:16]),
		PriceLamports: binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}

// Price returns the current price in SOL per token.
func (s *curveState) Price() decimal.Decimal {
	return lamportsToSol(s.PriceLamports)
}

// globalState is the prefix of the program's global account: anchor
// discriminator (8), initialized flag (1), authority (32), fee recipient (32).
type globalState struct {
	FeeRecipient solana.PublicKey
}

func parseGlobalState(data []byte) (*globalState, error) {
	if len(data) < 73 {
		return nil, fmt.Errorf("insufficient global account data length: %d", len(data))
	}
	var fee solana.PublicKey
	copy(fee[:], data[41:73])
	return &globalState{FeeRecipient: fee}, nil
}

func lamportsToSol(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}

func solToLamports(sol decimal.Decimal) uint64 {
	return uint64(sol.Shift(9).IntPart())
}

func tokensToRaw(amount decimal.Decimal) uint64 {
	return uint64(amount.Shift(TokenDecimals).IntPart())
}

func rawToTokens(raw uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -TokenDecimals)
}
