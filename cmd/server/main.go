package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/goal-service/internal/app"
	"github.com/focusnest/goal-service/internal/config"
	"github.com/focusnest/goal-service/internal/httpapi"
	"github.com/focusnest/goal-service/internal/metrics"
	"github.com/focusnest/goal-service/pkg/auth"
	"github.com/focusnest/goal-service/pkg/logging"
	sharedserver "github.com/focusnest/goal-service/pkg/server"
)

const serviceName = "goal-service"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.New(serviceName, logging.Options{
		Level:     cfg.LogLevel,
		SentryDSN: cfg.Sentry.DSN,
		Release:   cfg.Version,
	})
	defer logging.Flush(2 * time.Second)

	services, cleanup, err := app.New(ctx, cfg, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	api := httpapi.Services{
		Goals:        services.Goals,
		Habits:       services.Habits,
		Achievements: services.Achievements,
	}

	router := sharedserver.NewRouter(serviceName, sharedserver.RouterOptions{
		Version:    cfg.Version,
		Datastore:  string(cfg.DataStore),
		Middleware: []func(http.Handler) http.Handler{metrics.Middleware},
	}, func(r chi.Router) {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
		httpapi.RegisterInternalRoutes(r, api, cfg.Events.Token, logger)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))
			httpapi.RegisterRoutes(r, api, cfg.DayKey.Location, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("goal service configured",
		"datastore", cfg.DataStore,
		"authMode", cfg.Auth.Mode,
		"dayKeyTimeZone", cfg.DayKey.TimeZone,
	)

	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
	}
}
