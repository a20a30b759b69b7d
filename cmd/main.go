/*
Package main is the entry point for the video SDK session server.

It loads configuration, initializes the global logger, builds the session token
issuer and the optional backends (issuance ledger, recording archive), starts
the status relay and the HTTP server, and shuts everything down on SIGINT or
SIGTERM.
*/
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

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"videosdk/internal/app/db"
	"videosdk/internal/app/ledger"
	"videosdk/internal/app/relay"
	"videosdk/internal/app/storage"
	"videosdk/internal/configs"
	"videosdk/internal/handler"
	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/limiter"
	"videosdk/internal/pkg/logx"
	"videosdk/internal/pkg/pow"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Dur("token_validity", cfg.TokenValidity).
		Bool("ledger_enabled", cfg.LedgerEnabled()).
		Bool("archive_enabled", cfg.ArchiveEnabled()).
		Bool("host_issuance_enabled", cfg.HostIssuanceEnabled()).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := jwt.NewIssuer(cfg.IssuerCredentials(),
		jwt.WithClockSkew(cfg.TokenSkew),
		jwt.WithValidity(cfg.TokenValidity),
	)
	if err != nil {
		logx.Fatal(err, "Failed to create session token issuer")
	}

	gate := pow.NewGate(cfg.PowDifficulty)

	var (
		pool     *pgxpool.Pool
		recorder ledger.Recorder = ledger.NopRecorder{}
	)
	if cfg.LedgerEnabled() {
		pool, err = db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to initialize issuance ledger")
		}
		recorder = ledger.NewPostgresRecorder(pool)
	}

	var archive storage.RecordingArchive
	if cfg.ArchiveEnabled() {
		archive, err = storage.NewRecordingArchive(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize recording archive")
		}
	}

	manager := relay.NewManager(issuer)

	tokenLimiter := limiter.NewIPRateLimiter(rate.Limit(handler.TokenRate), handler.TokenBurst)
	wsLimiter := limiter.NewIPRateLimiter(rate.Limit(handler.JoinRate), handler.JoinBurst)

	router := handler.Router(&handler.AppDeps{
		Config:       cfg,
		Issuer:       issuer,
		Gate:         gate,
		Ledger:       recorder,
		Relay:        manager,
		Archive:      archive,
		TokenLimiter: tokenLimiter,
		WSLimiter:    wsLimiter,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Video SDK session server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	manager.Shutdown()
	gate.Close()
	tokenLimiter.Close()
	wsLimiter.Close()
	if pool != nil {
		pool.Close()
	}

	logx.Info("Server gracefully stopped.")
}
