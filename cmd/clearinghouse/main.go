// Options Clearinghouse — a collateralized-options settlement service with
// day-bucketed lots and pseudorandom fair exercise assignment.
//
// Architecture:
//
//	main.go                    — entry point: loads config, wires components, waits for SIGINT/SIGTERM
//	clearing/clearinghouse.go  — orchestrator: validates operations, moves collateral, drives the ledgers
//	ledger/ledger.go           — per-option-type settlement core: buckets, claims, custody totals
//	ledger/assign.go           — seed-driven assignment of exercised amounts across day buckets
//	ledger/position.go         — floor-rounded pro-rata split of a claim into exercised/unexercised
//	token/asset.go             — custody-side asset ledger (collateral in/out with allowances)
//	token/ownership.go         — option and claim token balances (fungible + NFT claims)
//	store/store.go             — JSON file persistence for ledger snapshots (survives restarts)
//	indexer/publisher.go       — pushes settlement events to an external indexing service
//	api/server.go              — HTTP/WebSocket surface: operations, snapshots, live event stream
//
// How settlement stays fair:
//
//	Writes aggregate into day-granularity buckets, so the cost of exercising
//	never grows with the number of individual lots. Each exercise picks its
//	starting bucket from a keccak-evolved seed, so no writer can position a
//	lot to dodge (or attract) assignment. At redemption every claim receives
//	a floor-rounded pro-rata share of each bucket it wrote into; the rounding
//	remainder accrues as dust and is swept once every claim has redeemed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"options-clearinghouse/internal/api"
	"options-clearinghouse/internal/clearing"
	"options-clearinghouse/internal/clock"
	"options-clearinghouse/internal/config"
	"options-clearinghouse/internal/indexer"
	"options-clearinghouse/internal/ledger"
	"options-clearinghouse/internal/store"
	"options-clearinghouse/internal/token"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("CLEAR_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	// Register collateral assets
	assets := token.NewAssetLedger(common.HexToAddress(cfg.Custodian))
	for _, a := range cfg.Assets {
		supply, ok := new(big.Int).SetString(a.Supply, 10)
		if !ok {
			logger.Error("invalid asset supply", "asset", a.Address, "supply", a.Supply)
			os.Exit(1)
		}
		assets.Register(common.HexToAddress(a.Address), a.Decimals, supply, common.HexToAddress(a.Treasury))
	}

	// Open persistence and restore ledgers
	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ch := clearing.New(clock.System{}, assets, token.NewOwnershipLedger(), st,
		common.HexToAddress(cfg.DustSink), logger)

	states, err := st.LoadAll()
	if err != nil {
		logger.Error("failed to load ledgers", "error", err)
		os.Exit(1)
	}
	for _, state := range states {
		l, err := ledger.FromState(state)
		if err != nil {
			logger.Error("failed to restore ledger", "error", err)
			os.Exit(1)
		}
		ch.Restore(l)
	}
	logger.Info("ledgers restored", "count", len(states))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start indexer publisher if enabled
	if cfg.Indexer.Enabled {
		pub := indexer.NewPublisher(cfg.Indexer.BaseURL, cfg.Indexer.DryRun, logger)
		go pub.Run(ctx, ch.Events())
		logger.Info("indexer publisher started", "url", cfg.Indexer.BaseURL, "dry_run", cfg.Indexer.DryRun)
	}

	// Start dashboard API server if enabled
	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		// The dashboard consumes the event stream only when the indexer
		// does not; the channel has a single consumer.
		var events = ch.Events()
		if cfg.Indexer.Enabled {
			events = nil
		}
		apiServer = api.NewServer(*cfg, ch, assets, events, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	logger.Info("options clearinghouse started",
		"custodian", cfg.Custodian,
		"assets", len(cfg.Assets),
		"types_restored", len(states),
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	// Stop dashboard first
	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}
	cancel()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
