package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fruteira-pos/terminal/internal/backend"
	"github.com/fruteira-pos/terminal/internal/catalog"
	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/config"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/handler"
	"github.com/fruteira-pos/terminal/internal/receipt"
	"github.com/fruteira-pos/terminal/internal/router"
	"github.com/fruteira-pos/terminal/internal/scale"
	"github.com/fruteira-pos/terminal/internal/store"
	"github.com/fruteira-pos/terminal/internal/telemetry"
	"github.com/fruteira-pos/terminal/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(logger); err != nil {
		logger.Fatal("terminal stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	var (
		dir       catalog.Directory
		ledger    checkout.Ledger
		operators handler.OperatorStore
	)
	switch cfg.LedgerMode {
	case enum.LedgerModePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		if err := store.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		queries := store.New(pool)
		dir = store.NewProductStore(queries)
		ledger = store.NewSaleStore(pool, func(db store.DBTX) store.SaleWriter {
			return store.New(db)
		})
		operators = queries
		logger.Info("using local database ledger")
	default:
		client := backend.NewClient(backend.Config{
			BaseURL: cfg.BackendURL,
			Token:   cfg.BackendToken,
			Timeout: cfg.BackendTimeout,
		}, logger.Named("backend"))
		dir = client
		ledger = client
		logger.Info("using sales backend", zap.String("url", cfg.BackendURL))
	}

	loader := catalog.NewLoader(dir, logger.Named("catalog"))
	if err := loader.Load(ctx); err != nil {
		// The terminal still starts; an operator can reload once the source is back.
		logger.Warn("initial catalog load failed", zap.Error(err))
	}

	reader, err := scale.New(cfg.ScaleMode)
	if err != nil {
		return fmt.Errorf("scale: %w", err)
	}

	hub := ws.NewHub(logger.Named("display"))
	go hub.Run(ctx)

	wf := checkout.NewWorkflow(checkout.Options{
		Ledger: ledger,
		Output: receipt.NewFileOutput(cfg.ReceiptDir),
		Receipt: receipt.Options{
			Title:        cfg.ReceiptTitle,
			LinesPerPage: cfg.ReceiptLinesPerPage,
			Currency:     cfg.Currency,
			Location:     cfg.Location,
		},
		Publisher: hub.Publisher(cfg.TerminalID),
		Logger:    logger.Named("checkout"),
	})

	r := router.New(cfg, router.Deps{
		Catalog:   loader,
		Workflow:  wf,
		Scale:     reader,
		Hub:       hub,
		Operators: operators,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting terminal",
			zap.String("port", cfg.Port),
			zap.String("terminal_id", cfg.TerminalID.String()),
			zap.String("ledger_mode", cfg.LedgerMode),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
