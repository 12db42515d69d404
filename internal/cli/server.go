package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"provia-quiz-service/internal/app"
	"provia-quiz-service/internal/bank"
	"provia-quiz-service/internal/config"
	"provia-quiz-service/internal/infra/memory"
	pgstore "provia-quiz-service/internal/infra/postgres"
	redisstore "provia-quiz-service/internal/infra/redis"
	"provia-quiz-service/internal/infra/sqlite"
	transport "provia-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// loadConfig reads the file, applies env overrides and validates.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(nil)
	if logLevel == "" {
		setupLogger(cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := slog.Default()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	var loader memory.BankLoader
	switch {
	case pool != nil:
		loader = pgstore.NewQuestionLoader(pool)
	case cfg.Bank.Path != "":
		loader = bank.NewFileLoader(cfg.Bank.Path, logger)
	default:
		loader = bank.NewEmbeddedLoader(logger)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var questionBank app.QuestionBank
	if redisClient != nil {
		questionBank = redisstore.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		questionBank = memory.NewBankRepository(loader, bankTTL)
	}

	ledger, closeLedger, err := openLedger(cfg, redisClient, pool)
	if err != nil {
		return err
	}
	defer closeLedger.Close()

	// sessions own their countdown goroutine, so they live on this instance
	sessions := memory.NewSessionStore()
	var progressStore app.ProgressStore
	if redisClient != nil {
		progressStore = redisstore.NewProgressStore(redisClient)
	} else {
		progressStore = memory.NewProgressStore()
	}

	sampler := app.NewSampler(questionBank, nil)
	progress := app.NewProgressTracker(progressStore, logger)
	tick := config.TTLDuration(cfg.Session.TickInterval, app.DefaultTickInterval)
	service := app.NewQuizService(sessions, sampler, app.NewAttemptPolicy(ledger), progress, logger).
		WithSessionOptions(app.WithTickInterval(tick))
	battles := app.NewBattleService(sampler, progress, logger)

	router := transport.NewRouter(
		transport.NewAPIHandler(service, progress, battles),
		transport.NewWSHandler(service, logger),
		logger,
	)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// websocket sessions outlive any write timeout
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "addr", server.Addr, "ledger", cfg.Ledger.Backend, "redis", redisClient != nil, "postgres", pool != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openLedger builds the configured attempt ledger backend.
func openLedger(cfg config.Config, client *redis.Client, pool *pgxpool.Pool) (app.LedgerStore, io.Closer, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerMemory:
		return memory.NewLedgerStore(), nopCloser{}, nil
	case config.LedgerRedis:
		if client == nil {
			return nil, nil, errors.New("redis ledger selected without a redis client")
		}
		return redisstore.NewLedgerStore(client), nopCloser{}, nil
	case config.LedgerPostgres:
		if pool == nil {
			return nil, nil, errors.New("postgres ledger selected without a postgres pool")
		}
		return pgstore.NewLedgerStore(pool), nopCloser{}, nil
	default:
		store, err := sqlite.Open(cfg.Ledger.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, store, nil
	}
}
