// =============================================
// File: internal/config/config.go
// =============================================
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultBuyAmountSol is applied to wallets that have no configured spend amount.
const DefaultBuyAmountSol = 0.01

// Settings holds application settings loaded from config.yaml.
type Settings struct {
	RPCURL     string `mapstructure:"rpc_url"`
	ListenAddr string `mapstructure:"listen_addr"`

	SlippagePercent float64       `mapstructure:"slippage_percent"`
	BuyDelay        time.Duration `mapstructure:"-"`
	BuyDelaySeconds float64       `mapstructure:"buy_delay_seconds"`
	BuyAmountsSol   []float64     `mapstructure:"buy_amounts"`

	// Sell triggers
	ProfitPercent  float64       `mapstructure:"profit_percent"`
	Timeout        time.Duration `mapstructure:"-"`
	TimeoutSeconds float64       `mapstructure:"timeout_seconds"`
	MinBuyers      uint64        `mapstructure:"min_buyers"`

	MonitorInterval        time.Duration `mapstructure:"-"`
	MonitorIntervalSeconds float64       `mapstructure:"monitor_interval_seconds"`

	WalletsFile  string `mapstructure:"wallets_file"`
	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

// Load reads configuration from the specified file path and performs validation.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Defaults
	v.SetDefault("rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("slippage_percent", 10.0)
	v.SetDefault("buy_delay_seconds", 2.0)
	v.SetDefault("buy_amounts", []float64{0.01, 0.05, 0.001, 0.1})
	v.SetDefault("profit_percent", 50.0)
	v.SetDefault("timeout_seconds", 300.0)
	v.SetDefault("min_buyers", 10)
	v.SetDefault("monitor_interval_seconds", 5.0)
	v.SetDefault("wallets_file", "configs/wallets.yaml")
	v.SetDefault("debug_logging", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	var cfg Settings
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	// Convert seconds to Duration
	cfg.BuyDelay = time.Duration(cfg.BuyDelaySeconds * float64(time.Second))
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	cfg.MonitorInterval = time.Duration(cfg.MonitorIntervalSeconds * float64(time.Second))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks required fields and applies defaults if necessary.
func (c *Settings) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if c.SlippagePercent <= 0 || c.SlippagePercent >= 100 {
		return fmt.Errorf("slippage_percent must be in (0, 100), got %v", c.SlippagePercent)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %v", c.TimeoutSeconds)
	}
	if c.MonitorIntervalSeconds <= 0 {
		return fmt.Errorf("monitor_interval_seconds must be positive, got %v", c.MonitorIntervalSeconds)
	}
	if c.BuyDelaySeconds < 0 {
		c.BuyDelaySeconds = 0
		c.BuyDelay = 0
	}
	if c.WalletsFile == "" {
		return fmt.Errorf("wallets_file is required")
	}
	return nil
}

// BuyAmountFor returns the configured spend for the wallet at the given index,
// falling back to DefaultBuyAmountSol when fewer amounts than wallets are configured.
func (c *Settings) BuyAmountFor(walletIndex int) decimal.Decimal {
	if walletIndex >= 0 && walletIndex < len(c.BuyAmountsSol) {
		return decimal.NewFromFloat(c.BuyAmountsSol[walletIndex])
	}
	return decimal.NewFromFloat(DefaultBuyAmountSol)
}

// Slippage returns the slippage tolerance as a decimal percentage.
func (c *Settings) Slippage() decimal.Decimal {
	return decimal.NewFromFloat(c.SlippagePercent)
}

// Profit returns the profit trigger threshold as a decimal percentage.
func (c *Settings) Profit() decimal.Decimal {
	return decimal.NewFromFloat(c.ProfitPercent)
}
