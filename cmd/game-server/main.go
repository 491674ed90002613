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

	"lane-games/internal/app/session"
	"lane-games/internal/config"
	"lane-games/internal/entitlement"
	"lane-games/internal/identity"
	"lane-games/internal/logging"
	"lane-games/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, "init logging:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Server.StoreDriver).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("store ping failed")
	}

	opts, err := serviceOptions(cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("entitlement init failed")
	}
	svc := session.NewService(st, opts...)

	sweeper, err := session.NewSweeper(svc, cfg.Server.SweepInterval, cfg.Server.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("sweeper init failed")
	}
	sweeper.Start()
	defer func() {
		if err := sweeper.Stop(); err != nil {
			log.Error().Err(err).Msg("sweeper stop")
		}
	}()

	r := newRouter(svc, cfg.Server, identity.NewRoles(cfg.Server.AdminUIDs, cfg.Server.SuperUIDs))
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("store", cfg.Server.StoreDriver).Msg("http listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
}

func openStore(ctx context.Context, cfg config.ServerConfig) (store.DocumentStore, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := store.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case config.StoreRedis:
		rs, err := store.NewRedis(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return store.NewMemory(), nil
	}
}

func serviceOptions(cfg config.ServerConfig) ([]session.Option, error) {
	if cfg.EntitlementSecret == "" {
		return nil, nil
	}
	signer, err := entitlement.NewSigner(cfg.EntitlementSecret)
	if err != nil {
		return nil, err
	}
	return []session.Option{session.WithEntitlements(signer, cfg.RequireEntitlement)}, nil
}
