package main

import (
	"KeyVault/internal/auth"
	"KeyVault/internal/config"
	"KeyVault/internal/crypto"
	"KeyVault/internal/handlers"
	"KeyVault/internal/middleware"
	"KeyVault/internal/repo"
	"KeyVault/internal/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём регистратор zap нужного уровня
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	if err := cfg.ValidateServer(); err != nil {
		sugar.Fatalw("invalid configuration", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	cipher, err := crypto.NewEnvelopeCipher(cfg.EncryptionKey)
	if err != nil {
		sugar.Fatalw("invalid ENCRYPTION_KEY", "error", err)
	}
	tokens, err := auth.NewTokenAuthority(cfg.AuthSecret, cfg.TokenTTL)
	if err != nil {
		sugar.Fatalw("invalid AUTH_SECRET", "error", err)
	}
	hasher := crypto.NewPasswordHasher(crypto.DefaultArgonParams)

	userService := service.NewUserService(repo.NewUserRepository(gormDB), hasher)
	auditService := service.NewAuditService(repo.NewAuditRepository(gormDB), sugar)

	var secrets service.SecretStore = service.NewSecretService(repo.NewSecretRepository(gormDB), cipher)
	if cfg.CacheSize > 0 {
		secrets = service.NewCachedSecretStore(secrets, cfg.CacheSize, cfg.CacheTTL)
		sugar.Infow("Secret cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}

	if err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, sugar); err != nil {
		sugar.Fatalw("failed to bootstrap admin account", "error", err)
	}

	var hopts []handlers.Option
	if cfg.TrustProxy {
		hopts = append(hopts, handlers.WithProxyHeaders())
		sugar.Infow("Client address taken from proxy headers")
	}
	h := handlers.NewHandler(userService, secrets, auditService, tokens, sugar, hopts...)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow("Starting server",
		"addr", cfg.BaseURL,
		"https", cfg.EnableHTTPS,
		"token_ttl", cfg.TokenTTL,
	)

	errCh := make(chan error, 1)
	go func() {
		if cfg.EnableHTTPS {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	case <-ctx.Done():
		sugar.Infow("Shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Graceful shutdown failed", "error", err)
		}
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLogger: debug — development-конфигурация, иначе production с заданным уровнем.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	if lvl.Level() == zap.DebugLevel {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}
