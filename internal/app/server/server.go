package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"engagement-engine/internal/api"
	"engagement-engine/internal/capstore"
	"engagement-engine/internal/catalog"
	"engagement-engine/internal/config"
	"engagement-engine/internal/listener"
	"engagement-engine/internal/render"
	"engagement-engine/internal/storage"
)

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Frequency-cap store
	caps, err := newCapStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.CapStore.Backend).Msg("init cap store")
	}
	defer caps.Close()

	// Catalog
	cat := catalog.New()
	src, store := newCatalogSource(rootCtx, cfg)
	if store != nil {
		defer store.Close()
	}
	if err := cat.Refresh(rootCtx, src); err != nil {
		// Fail-open: serve an empty set until a refresh succeeds.
		log.Error().Err(err).Msg("initial catalog refresh failed; serving nothing until retry")
	}

	// HTTP
	h := api.NewHandler(cat, caps, render.New())
	r := api.Router(h)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Change feed (LISTEN/NOTIFY) and periodic fallback refresh
	if store != nil {
		go listener.ListenAndRefresh(rootCtx, store, cat, cfg.Listener.Channel, cfg.Backoff())
	}
	go refreshLoop(rootCtx, cat, src, cfg.RefreshInterval())

	// Server goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	// Wait for signal
	waitForSignal()
	log.Info().Msg("shutdown...")

	// Graceful shutdown
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background goroutines
	_ = srv.Shutdown(shCtx)
}

func newCapStore(cfg config.Config) (capstore.Store, error) {
	switch cfg.CapStore.Backend {
	case "redis":
		return capstore.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			capstore.WithSessionTTL(cfg.SessionTTL())), nil
	case "bolt":
		return capstore.NewBolt(cfg.CapStore.Path)
	default:
		return capstore.NewMemory(), nil
	}
}

func newCatalogSource(ctx context.Context, cfg config.Config) (catalog.Source, *storage.Store) {
	if cfg.Catalog.Source == "file" {
		return catalog.NewFileSource(cfg.Catalog.FixturePath), nil
	}
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init storage")
	}
	return store, store
}

func refreshLoop(ctx context.Context, cat *catalog.Catalog, src catalog.Source, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := cat.Refresh(ctx, src); err != nil {
				log.Error().Err(err).Msg("periodic catalog refresh failed")
			}
		}
	}
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
