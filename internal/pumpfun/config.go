// =============================
// File: internal/pumpfun/config.go
// =============================
package pumpfun

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Known Pump.fun protocol addresses
var (
	// Program ID for the Pump.fun bonding curve program
	ProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// Event authority for the Pump.fun program
	EventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// tokenAccounts holds every derived account needed to trade one mint.
type tokenAccounts struct {
	Mint                   solana.PublicKey
	Global                 solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
}

// deriveTokenAccounts derives the program accounts for a token mint.
func deriveTokenAccounts(mint solana.PublicKey) (*tokenAccounts, error) {
	global, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("global")},
		ProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive global account: %w", err)
	}

	bondingCurve, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint.Bytes()},
		ProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bonding curve: %w", err)
	}

	associatedCurve, _, err := solana.FindAssociatedTokenAddress(bondingCurve, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive associated bonding curve: %w", err)
	}

	return &tokenAccounts{
		Mint:                   mint,
		Global:                 global,
		BondingCurve:           bondingCurve,
		AssociatedBondingCurve: associatedCurve,
	}, nil
}
