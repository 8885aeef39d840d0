package main

import (
	"log"

	"custodia/internal/config"
	"custodia/internal/infra/db"
	httpinfra "custodia/internal/infra/http"
	"custodia/internal/logging"
)

func main() {
	cfg := config.FromEnv()

	if err := logging.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}
	defer logging.Sync()

	store, err := db.NewStore(cfg)
	if err != nil {
		logging.L().Fatalw("failed to init store", "err", err)
	}

	srv, err := httpinfra.NewServer(cfg, store)
	if err != nil {
		logging.L().Fatalw("failed to init server", "err", err)
	}
	logging.L().Infow("custodiad listening", "addr", cfg.HTTPAddr)
	if err := srv.Run(); err != nil {
		logging.L().Fatalw("server exited", "err", err)
	}
}
