package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saama143/ping-tree/internal/api"
	"github.com/saama143/ping-tree/internal/config"
	"github.com/saama143/ping-tree/internal/engine"
	"github.com/saama143/ping-tree/internal/quota"
	"github.com/saama143/ping-tree/internal/storage"
)

const version = "1.0.0"

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init store")
	}
	defer kv.Close()

	repo := storage.NewTargetRepo(kv)
	tracker := quota.NewTracker(kv)

	var sink engine.DecisionSink
	if cfg.AuditEnabled() {
		audit, err := storage.NewAuditLog(rootCtx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init audit log")
		}
		defer audit.Close()
		sink = audit
		log.Info().Str("host", cfg.Postgres.Host).Msg("decision audit log enabled")
	}

	sel := engine.NewSelector(repo, tracker, sink)
	h := api.NewHandler(repo, sel, kv.Ping, version)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Driver).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	waitForSignal()
	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel()
	_ = srv.Shutdown(shCtx)
}

func newStore(cfg config.Config) (storage.KV, error) {
	switch cfg.Store.Driver {
	case "memory":
		return storage.NewMemory(), nil
	default:
		return storage.NewRedis(cfg)
	}
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
