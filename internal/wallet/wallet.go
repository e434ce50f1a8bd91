// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

// Wallet represents one funding identity. The Index is stable for the whole
// run and lines up with the configured buy amounts.
type Wallet struct {
	Index      int
	Name       string
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// New creates a wallet from a base58-encoded private key.
func New(index int, name, privateKeyBase58 string) (*Wallet, error) {
	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key for wallet %q: %w", name, err)
	}

	return &Wallet{
		Index:      index,
		Name:       name,
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
	}, nil
}

// walletsFile represents the structure of the wallets YAML file.
type walletsFile struct {
	Wallets []struct {
		Name       string `yaml:"name"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"wallets"`
}

// LoadWallets loads wallets from a YAML file. File order defines the wallet
// index, so a bad key is an error rather than a silent skip: skipping would
// shift every later wallet onto another wallet's buy amount.
func LoadWallets(path string) ([]*Wallet, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallets file: %w", err)
	}

	var file walletsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse wallets file: %w", err)
	}

	wallets := make([]*Wallet, 0, len(file.Wallets))
	for i, entry := range file.Wallets {
		if entry.PrivateKey == "" {
			return nil, fmt.Errorf("wallet %d (%q) has no private key", i, entry.Name)
		}
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("wallet_%d", i+1)
		}
		w, err := New(len(wallets), name, entry.PrivateKey)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	if len(wallets) == 0 {
		return nil, fmt.Errorf("no wallets found in configuration")
	}

	return wallets, nil
}

// SignTransaction signs the transaction with the wallet's private key.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// ATA returns the wallet's associated token account for the given mint.
func (w *Wallet) ATA(mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return ata, nil
}

// String returns the wallet's public key.
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
