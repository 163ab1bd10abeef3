// governd is the governance daemon. It hosts the decision engine, its token
// ledgers, the execution delay queue and the HTTP API in a single process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/asthmajoy/govcore/pkg/api"
	"github.com/asthmajoy/govcore/pkg/events"
	"github.com/asthmajoy/govcore/pkg/gov"
	"github.com/asthmajoy/govcore/pkg/gov/store"
	"github.com/asthmajoy/govcore/pkg/metrics"
	"github.com/asthmajoy/govcore/pkg/timelock"
	"github.com/asthmajoy/govcore/pkg/token"
)

const appName = "governd"

var version = "0.2.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configFile string
		dataDir    string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Governance decision engine daemon",
		Long: appName + ` hosts a token-weighted governance engine: proposal
intake, snapshot voting, stake escrow, a risk-classified execution delay
queue and outcome-based refund settlement, exposed over a JSON HTTP API.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := setupViper(cmd, configFile, dataDir)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v, dataDir)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Config file path")
	cmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Data directory")
	cmd.Flags().String("listen", "127.0.0.1:9180", "HTTP listen address")
	cmd.Flags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "Log file path")
	cmd.Flags().String("self", "", "Engine escrow address")
	cmd.Flags().String("admin", "", "Initial admin address")
	cmd.Flags().String("timelock", "", "Delay queue callback identity")
	cmd.Flags().StringSlice("guardians", nil, "Initial guardian addresses")
	cmd.Flags().StringSlice("allowed-selectors", nil,
		"Allow-listed 4-byte call selectors for general proposals (hex, e.g. 0xa9059cbb)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, version)
		},
	})

	return cmd
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, "."+appName)
}

func run(cfg *config) error {
	initLogRotator(cfg.LogFile)
	defer logRotator.Close()
	setLogLevels(cfg.LogLevel)

	log.Infof("Version %s", version)
	log.Infof("Engine identity %s, timelock identity %s", cfg.Self, cfg.Timelock)

	// Token ledgers. The governance ledger carries voting power and stakes;
	// the treasury ledger carries the native funds moved by withdrawals.
	govToken := token.NewLedger()
	for account, balance := range cfg.Genesis {
		if err := govToken.Mint(account, balance); err != nil {
			return fmt.Errorf("mint genesis balance: %w", err)
		}
		log.Debugf("Genesis balance %s = %s", account, balance)
	}
	treasury := token.NewLedger()
	if cfg.TreasuryBalance.Sign() > 0 {
		if err := treasury.Mint(cfg.Self, cfg.TreasuryBalance); err != nil {
			return fmt.Errorf("fund treasury: %w", err)
		}
	}
	registry := token.NewRegistry()

	engine, err := gov.NewEngine(gov.Config{
		Self:  cfg.Self,
		Admin: cfg.Admin,
		Params: gov.ParamsConfig{
			VotingDuration:    cfg.VotingDuration,
			Quorum:            cfg.Quorum,
			StakeAmount:       cfg.StakeAmount,
			ProposalThreshold: cfg.ProposalThreshold,
			DefeatedRefundPct: cfg.DefeatedRefundPct,
			CanceledRefundPct: cfg.CanceledRefundPct,
			ExpiredRefundPct:  cfg.ExpiredRefundPct,
			MinVotingDuration: time.Hour,
			MaxVotingDuration: 30 * 24 * time.Hour,
		},
		AllowedSelectors: cfg.AllowedSelectors,
	}, govToken, treasury, store.NewMemoryStore())
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	for _, guardian := range cfg.Guardians {
		if err := engine.GrantRole(cfg.Admin, gov.RoleGuardian, guardian); err != nil {
			return fmt.Errorf("grant guardian %s: %w", guardian, err)
		}
	}
	engine.SetTokenResolver(func(addr common.Address) (gov.TokenLedger, error) {
		ledger, err := registry.Lookup(addr)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	})
	engine.SetCallDispatcher(logCaller{})

	// Delay queue. Governance self-callbacks are classified per proposal
	// type; anything moving value above the threshold is promoted to high.
	queue := timelock.NewQueue(timelock.Config{
		LowDelay:           cfg.LowDelay,
		MediumDelay:        cfg.MediumDelay,
		HighDelay:          cfg.HighDelay,
		GracePeriod:        cfg.GracePeriod,
		SelectorRisk:       selectorRisk(),
		HighValueThreshold: cfg.HighValueThreshold,
	})
	queue.SetDispatcher(gov.NewDispatcher(engine, cfg.Timelock))
	engine.BindDelayQueue(gov.NewQueueAdapter(queue), cfg.Timelock)

	// Observability: event history, prometheus collectors fed off it.
	manager := events.NewManager()
	engine.SetEventRecorder(manager)
	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)
	go collector.Watch(manager)

	server := api.NewServer(engine, manager, promRegistry, cfg.Listen)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("Received signal %v, shutting down", sig)
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
	log.Infof("Shutdown complete")
	return nil
}

// selectorRisk maps governance self-callback selectors to delay tiers.
// Signaling carries no effect and passes quickly; anything touching supply
// or the parameter set takes the long road.
func selectorRisk() map[[gov.SelectorSize]byte]timelock.Risk {
	return map[[gov.SelectorSize]byte]timelock.Risk{
		gov.CallSelector(gov.ProposalTypeSignaling):             timelock.RiskLow,
		gov.CallSelector(gov.ProposalTypeGeneral):               timelock.RiskMedium,
		gov.CallSelector(gov.ProposalTypeWithdrawal):            timelock.RiskMedium,
		gov.CallSelector(gov.ProposalTypeTokenTransfer):         timelock.RiskMedium,
		gov.CallSelector(gov.ProposalTypeExternalTokenTransfer): timelock.RiskMedium,
		gov.CallSelector(gov.ProposalTypeTokenMint):             timelock.RiskHigh,
		gov.CallSelector(gov.ProposalTypeTokenBurn):             timelock.RiskHigh,
		gov.CallSelector(gov.ProposalTypeGovernanceChange):      timelock.RiskHigh,
	}
}

// logCaller is the daemon's dispatcher for General proposal calls. There is
// no execution backend in a standalone deployment, so approved calls are
// recorded in the log and the event history only.
type logCaller struct{}

func (logCaller) Call(target common.Address, data []byte) error {
	log.Infof("General proposal call: target=%s data=%x", target, data)
	return nil
}
