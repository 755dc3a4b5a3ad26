package main

import (
	"github.com/rs/zerolog/log"

	"foodshare/internal/api"
	"foodshare/internal/config"
	"foodshare/internal/database"
	"foodshare/internal/expiry"
	"foodshare/internal/notify"
	"foodshare/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	hub := websocket.NewHub()
	go hub.Run()

	notifier := notify.New(db, hub)

	scanner := expiry.NewScanner(db, notifier)
	cronRunner, err := scanner.Start()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start expiry scanner")
	}
	defer cronRunner.Stop()

	router := api.SetupRouter(db, cfg, hub, notifier)

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
