package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"carbonmint/internal/adapter/chainrpc"
	"carbonmint/internal/adapter/httpapi"
	"carbonmint/internal/adapter/repository/postgres"
	"carbonmint/internal/adapter/wallet"
	"carbonmint/internal/chain/txbuilder"
	"carbonmint/internal/config"
	"carbonmint/internal/domain"
	"carbonmint/internal/platform/metrics"
	"carbonmint/internal/usecase/confirm"
	"carbonmint/internal/usecase/deploy"
	"carbonmint/internal/usecase/infuse"
	"carbonmint/internal/usecase/mint"
	"carbonmint/internal/usecase/pipeline"
	"carbonmint/internal/usecase/series"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 1. Chain node client
	node, err := chainrpc.New(cfg.Chain.NodeURL)
	if err != nil {
		logger.Error("failed to create chain client", "error", err)
		os.Exit(1)
	}

	// 2. Optional submission history store
	var submissions domain.SubmissionRepository
	if cfg.Database.ConnStr != "" {
		db, err := postgres.NewDB(cfg.Database.ConnStr)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure database schema", "error", err)
			os.Exit(1)
		}
		submissions = postgres.NewSubmissionRepository(db)
		logger.Info("submission history enabled")
	} else {
		logger.Warn("no database configured, submission history disabled")
	}

	// 3. Signing backend
	mnemonic := cfg.Wallet.Mnemonic
	if mnemonic == "" {
		mnemonic, err = wallet.NewMnemonic()
		if err != nil {
			logger.Error("failed to generate wallet mnemonic", "error", err)
			os.Exit(1)
		}
		logger.Warn("WALLET_MNEMONIC not set, using an ephemeral key; funds will be lost on restart")
	}
	signerBackend, err := wallet.NewLocalSigner(mnemonic, node)
	if err != nil {
		logger.Error("failed to initialize signer", "error", err)
		os.Exit(1)
	}
	logger.Info("wallet ready", "address", signerBackend.Address().Text())

	// 4. Pipeline
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)

	builder := txbuilder.New(txbuilder.Config{
		Nexus: cfg.Chain.Nexus,
		Chain: cfg.Chain.Chain,
		Fees: txbuilder.FeeConfig{
			GasPrice:        cfg.Fees.GasPrice,
			GasLimitBase:    cfg.Fees.GasLimitBase,
			GasLimitPerItem: cfg.Fees.GasLimitPerItem,
		},
		MaxPayloadBytes: cfg.Pipeline.MaxPayloadBytes,
		Expiry:          cfg.Pipeline.Expiry,
	})

	poller := confirm.New(node, logger)
	poller.MaxAttempts = cfg.Pipeline.MaxAttempts
	poller.Delay = cfg.Pipeline.Delay
	poller.FailureDetailAttempts = cfg.Pipeline.FailureDetailAttempts

	runner := &pipeline.Runner{
		Signer:      wallet.NewAdapter(signerBackend, logger),
		Confirmer:   poller,
		Submissions: submissions,
		Metrics:     recorder,
		Logger:      logger,
	}

	// 5. Orchestrators
	deployService := deploy.NewDeployService(builder, runner)
	mintService := mint.NewMintService(node, builder, runner)
	seriesService := series.NewSeriesService(node, builder, runner)
	infuseService := infuse.NewInfuseService(builder, runner)

	// 6. HTTP server
	if cfg.Server.APIToken == "" {
		logger.Warn("API_TOKEN not set, operation endpoints are unauthenticated")
	}
	api := httpapi.NewServer(
		deployService,
		mintService,
		seriesService,
		infuseService,
		node,
		submissions,
		logger,
	)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Router(cfg.Server.APIToken, registry),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(server, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts
// down the server.
func waitForShutdown(server *http.Server, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
