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

	"github.com/joho/godotenv"

	"github.com/hongminglow/kodbank-be/internal/account"
	"github.com/hongminglow/kodbank-be/internal/auth"
	"github.com/hongminglow/kodbank-be/internal/config"
	"github.com/hongminglow/kodbank-be/internal/http/handlers"
	"github.com/hongminglow/kodbank-be/internal/ledger"
	"github.com/hongminglow/kodbank-be/internal/logger"
	"github.com/hongminglow/kodbank-be/internal/metrics"
	"github.com/hongminglow/kodbank-be/internal/server"
	"github.com/hongminglow/kodbank-be/internal/session"
	"github.com/hongminglow/kodbank-be/internal/storage"
	"github.com/hongminglow/kodbank-be/internal/storage/memory"
	"github.com/hongminglow/kodbank-be/internal/storage/postgres"
	"github.com/hongminglow/kodbank-be/internal/storage/redis"
)

// backend is an account store that also keeps session tokens.
type backend interface {
	storage.AccountStore
	storage.TokenStore
	handlers.Pinger
	Close()
}

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New("kodbank", logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)
	if envErr != nil {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("init storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	health := map[string]handlers.Pinger{"database": store}
	var tokens storage.TokenStore = store
	if cfg.SessionStore == config.SessionRedis {
		redisTokens, err := redis.NewTokenStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Error("init redis session store", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisTokens.Close()
		tokens = redisTokens
		health["sessions"] = redisTokens
	}

	m := metrics.New()
	sessions := session.NewService(auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL), tokens)
	engine := ledger.NewEngine(store, ledger.Options{
		OperationTimeout: cfg.OperationTimeout,
		Recorder:         m,
		Logger:           log,
	})

	srv := server.New(cfg, server.Deps{
		Accounts: account.NewService(store, sessions),
		Sessions: sessions,
		Engine:   engine,
		Metrics:  m,
		Health:   health,
		Logger:   log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("kodbank backend listening",
			"addr", cfg.HTTPAddress(),
			"storage", cfg.StorageDriver,
			"sessions", cfg.SessionStore,
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		log.Error("http server error", "error", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("graceful shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (backend, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on exit")
		return memory.New(
			memory.WithLockTimeout(cfg.LockTimeout),
			memory.WithAccountPrefix(cfg.AccountPrefix),
		), nil
	}
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, postgres.Options{
		LockTimeout:   cfg.LockTimeout,
		AccountPrefix: cfg.AccountPrefix,
	}, log)
	if err != nil {
		return nil, err
	}
	return store, nil
}
