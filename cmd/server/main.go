// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package main is the entry point for the Nestling server.
//
// Nestling is a backend for tracking a child's daily activities, growth,
// diary entries, and milestones, shared between guardians. Parents sign in
// with Google or Kakao (or email and password), and the mobile app talks to
// the REST API under /api/v1.
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config file, then environment (Koanf v2)
//  2. Logging: zerolog global logger with credential redaction
//  3. Database: embedded DuckDB with the full schema applied
//  4. OAuth state store: BadgerDB-backed anti-CSRF state persistence
//  5. Auth: JWT manager, identity service, and provider clients
//  6. Optional features: S3 presigned uploads, Gemini assistant proxy
//  7. Supervision tree: HTTP server plus housekeeping jobs under suture
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, drains in-flight requests within the shutdown
// timeout, then closes the state store and database.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nestling-app/nestling/internal/api"
	"github.com/nestling-app/nestling/internal/assistant"
	"github.com/nestling-app/nestling/internal/auth"
	"github.com/nestling-app/nestling/internal/config"
	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/notify"
	"github.com/nestling-app/nestling/internal/supervisor"
	"github.com/nestling-app/nestling/internal/supervisor/services"
	"github.com/nestling-app/nestling/internal/uploads"
)

// outboxInterval is how often queued notifications are handed off.
const outboxInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	states, err := auth.NewStateStore(cfg.OAuth.StatePath, cfg.OAuth.StateTTL)
	if err != nil {
		return fmt.Errorf("open oauth state store: %w", err)
	}
	defer func() {
		if err := states.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close state store")
		}
	}()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("init jwt manager: %w", err)
	}
	identity := auth.NewIdentity(db, jwtManager)

	oauthClients := make(map[string]*auth.OAuthClient)
	if cfg.OAuth.Google.ClientID != "" {
		oauthClients["google"] = auth.NewOAuthClient("google", cfg.OAuth.Google)
	}
	if cfg.OAuth.Kakao.ClientID != "" {
		oauthClients["kakao"] = auth.NewOAuthClient("kakao", cfg.OAuth.Kakao)
	}
	if len(oauthClients) == 0 {
		logging.Warn().Msg("No OAuth providers configured; only password login is available")
	}

	notifySvc := notify.NewService(db)

	var uploadsSvc *uploads.Service
	if cfg.Uploads.Endpoint != "" && cfg.Uploads.Bucket != "" {
		uploadsSvc, err = uploads.NewService(ctx, &cfg.Uploads)
		if err != nil {
			return fmt.Errorf("init uploads service: %w", err)
		}
		logging.Info().Str("bucket", cfg.Uploads.Bucket).Msg("Uploads enabled")
	} else {
		logging.Info().Msg("Uploads not configured; presign endpoints disabled")
	}

	var assistantSvc *assistant.Service
	if cfg.Assistant.Enabled {
		assistantSvc, err = assistant.NewService(ctx, &cfg.Assistant)
		if err != nil {
			return fmt.Errorf("init assistant service: %w", err)
		}
		logging.Info().Str("model", cfg.Assistant.Model).Msg("Assistant enabled")
	}

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		DB:        db,
		JWT:       jwtManager,
		Identity:  identity,
		States:    states,
		OAuth:     oauthClients,
		Uploads:   uploadsSvc,
		Notify:    notifySvc,
		Assistant: assistantSvc,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(
		slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		treeCfg,
	)
	tree.AddAPIService(services.NewHTTPServerService(httpServer, treeCfg.ShutdownTimeout))
	tree.AddHousekeepingService(services.NewStateSweepService(states, cfg.OAuth.SweepInterval))
	tree.AddHousekeepingService(services.NewOutboxService(notifySvc, outboxInterval))

	logging.Info().
		Str("addr", addr).
		Str("environment", cfg.Server.Environment).
		Msg("Nestling server starting")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services did not stop before timeout")
	}

	logging.Info().Msg("Nestling server stopped")
	return nil
}
