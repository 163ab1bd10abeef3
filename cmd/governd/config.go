package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/asthmajoy/govcore/pkg/gov"
)

// config is the daemon's fully parsed runtime configuration.
type config struct {
	Listen   string
	LogLevel string
	LogFile  string
	DataDir  string

	// Identities. Self is the engine's own escrow address; Timelock is the
	// identity the delay queue calls back under.
	Self     common.Address
	Admin    common.Address
	Timelock common.Address

	Guardians []common.Address

	// Allow-listed 4-byte call selectors for General proposals.
	AllowedSelectors [][gov.SelectorSize]byte

	// Governance parameters.
	VotingDuration    time.Duration
	Quorum            *big.Int
	StakeAmount       *big.Int
	ProposalThreshold *big.Int
	DefeatedRefundPct uint64
	CanceledRefundPct uint64
	ExpiredRefundPct  uint64

	// Delay queue tiers.
	LowDelay           time.Duration
	MediumDelay        time.Duration
	HighDelay          time.Duration
	GracePeriod        time.Duration
	HighValueThreshold *big.Int

	// Genesis balances for the governance token, address -> amount.
	Genesis map[common.Address]*big.Int

	// Initial treasury balance held under Self.
	TreasuryBalance *big.Int
}

// setupViper creates a viper instance bound to the command's flags, the
// GOVD_* environment and an optional config file.
func setupViper(cmd *cobra.Command, configFile, dataDir string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("GOVD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("listen", "127.0.0.1:9180")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", filepath.Join(dataDir, "logs", "governd.log"))
	v.SetDefault("voting-duration", "168h")
	v.SetDefault("quorum", "1000")
	v.SetDefault("stake-amount", "100")
	v.SetDefault("proposal-threshold", "100")
	v.SetDefault("defeated-refund-pct", 50)
	v.SetDefault("canceled-refund-pct", 75)
	v.SetDefault("expired-refund-pct", 25)
	v.SetDefault("low-delay", "24h")
	v.SetDefault("medium-delay", "48h")
	v.SetDefault("high-delay", "168h")
	v.SetDefault("grace-period", "336h")
	v.SetDefault("high-value-threshold", "")
	v.SetDefault("treasury-balance", "0")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("governd")
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir)
		v.AddConfigPath(".")
		// A missing config file is fine, everything has a default.
		_ = v.ReadInConfig()
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	return v, nil
}

// loadConfig parses and validates the daemon configuration out of viper.
func loadConfig(v *viper.Viper, dataDir string) (*config, error) {
	cfg := &config{
		Listen:   v.GetString("listen"),
		LogLevel: v.GetString("log-level"),
		LogFile:  v.GetString("log-file"),
		DataDir:  dataDir,

		VotingDuration:    v.GetDuration("voting-duration"),
		DefeatedRefundPct: v.GetUint64("defeated-refund-pct"),
		CanceledRefundPct: v.GetUint64("canceled-refund-pct"),
		ExpiredRefundPct:  v.GetUint64("expired-refund-pct"),

		LowDelay:    v.GetDuration("low-delay"),
		MediumDelay: v.GetDuration("medium-delay"),
		HighDelay:   v.GetDuration("high-delay"),
		GracePeriod: v.GetDuration("grace-period"),
	}

	var err error
	if cfg.Self, err = requireAddress(v, "self"); err != nil {
		return nil, err
	}
	if cfg.Admin, err = requireAddress(v, "admin"); err != nil {
		return nil, err
	}
	if cfg.Timelock, err = requireAddress(v, "timelock"); err != nil {
		return nil, err
	}
	for _, raw := range v.GetStringSlice("guardians") {
		guardian, err := parseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("guardians: %w", err)
		}
		cfg.Guardians = append(cfg.Guardians, guardian)
	}
	for _, raw := range v.GetStringSlice("allowed-selectors") {
		selector, err := parseSelector(raw)
		if err != nil {
			return nil, fmt.Errorf("allowed-selectors: %w", err)
		}
		cfg.AllowedSelectors = append(cfg.AllowedSelectors, selector)
	}

	if cfg.Quorum, err = parseAmount(v.GetString("quorum")); err != nil {
		return nil, fmt.Errorf("quorum: %w", err)
	}
	if cfg.StakeAmount, err = parseAmount(v.GetString("stake-amount")); err != nil {
		return nil, fmt.Errorf("stake-amount: %w", err)
	}
	if cfg.ProposalThreshold, err = parseAmount(v.GetString("proposal-threshold")); err != nil {
		return nil, fmt.Errorf("proposal-threshold: %w", err)
	}
	if cfg.TreasuryBalance, err = parseAmount(v.GetString("treasury-balance")); err != nil {
		return nil, fmt.Errorf("treasury-balance: %w", err)
	}
	if raw := v.GetString("high-value-threshold"); raw != "" {
		if cfg.HighValueThreshold, err = parseAmount(raw); err != nil {
			return nil, fmt.Errorf("high-value-threshold: %w", err)
		}
	}

	cfg.Genesis = make(map[common.Address]*big.Int)
	for raw, amount := range v.GetStringMapString("genesis") {
		account, err := parseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("genesis: %w", err)
		}
		balance, err := parseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("genesis %s: %w", raw, err)
		}
		cfg.Genesis[account] = balance
	}

	return cfg, nil
}

func requireAddress(v *viper.Viper, key string) (common.Address, error) {
	raw := v.GetString(key)
	if raw == "" {
		return common.Address{}, fmt.Errorf("%s address is required", key)
	}
	addr, err := parseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", key, err)
	}
	return addr, nil
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func parseSelector(raw string) ([gov.SelectorSize]byte, error) {
	var selector [gov.SelectorSize]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return selector, fmt.Errorf("invalid selector %q: %v", raw, err)
	}
	if len(decoded) != gov.SelectorSize {
		return selector, fmt.Errorf("invalid selector %q: want %d bytes, got %d",
			raw, gov.SelectorSize, len(decoded))
	}
	copy(selector[:], decoded)
	return selector, nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}
