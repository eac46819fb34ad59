package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/gophchat/internal/server"
	"github.com/iudanet/gophchat/internal/server/config"
	"github.com/iudanet/gophchat/internal/server/delivery"
	"github.com/iudanet/gophchat/internal/server/media"
	"github.com/iudanet/gophchat/internal/server/metrics"
	"github.com/iudanet/gophchat/internal/server/middleware"
	"github.com/iudanet/gophchat/internal/server/presence"
	"github.com/iudanet/gophchat/internal/server/realtime"
	"github.com/iudanet/gophchat/internal/server/storage"
	"github.com/iudanet/gophchat/internal/server/storage/badgerdb"
	"github.com/iudanet/gophchat/internal/server/storage/sqlite"
	"github.com/iudanet/gophchat/internal/server/token"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	envFile := flag.String("env-file", ".env", "Path to .env file (optional)")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run собирает компоненты, запускает HTTP сервер и ждет сигнала остановки
// Все defer выполняются до выхода из процесса
func run(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing SQLite...")
		_ = db.Close()
	}()

	messages, closeMessages, err := openMessageStore(cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeMessages()

	tokens, err := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	mediaStore, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL, cfg.MaxUploadBytes, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	registry := presence.NewRegistry()
	rt := realtime.NewServer(registry, m, logger, cfg.SendBuffer, realtime.DefaultTimeouts)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)
	defer limiter.Stop()

	router := server.NewRouter(server.Deps{
		Logger:       logger,
		Tokens:       tokens,
		Users:        db,
		Pipeline:     delivery.NewPipeline(db, messages, mediaStore, registry, m, logger),
		Media:        mediaStore,
		Realtime:     rt,
		DB:           db,
		Metrics:      m,
		Limiter:      limiter,
		Version:      Version,
		MaxBodyBytes: cfg.MaxBodyBytes(),
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			slog.String("address", srv.Addr),
			slog.String("version", Version),
			slog.String("message_backend", cfg.MessageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown не ждет hijacked соединения, WebSocket закрываем отдельно
	rt.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	logger.Info("Server stopped cleanly")
	return nil
}

// openMessageStore выбирает backend хранилища сообщений
func openMessageStore(cfg *config.Config, db *sqlite.Storage, logger *slog.Logger) (storage.MessageStorage, func(), error) {
	switch cfg.MessageBackend {
	case config.BackendBadger:
		store, err := badgerdb.New(cfg.BadgerPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("badger opening failed: %w", err)
		}
		return store, func() {
			logger.Info("Closing BadgerDB...")
			_ = store.Close()
		}, nil
	default:
		return db, func() {}, nil
	}
}

func printVersion() {
	fmt.Printf("GophChat Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
