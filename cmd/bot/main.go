// Package main is the entry point for the chat game bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chat-game-bot/internal/bot"
	"chat-game-bot/internal/config"
	"chat-game-bot/internal/game"
	"chat-game-bot/internal/game/pet"
	"chat-game-bot/internal/game/slider"
	"chat-game-bot/internal/pkg/db"
	"chat-game-bot/internal/repository"
	"chat-game-bot/internal/snapshot"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	scores := repository.NewScoreRepository(dbPool.Pool)

	deps := &game.Deps{Log: log.Logger}
	reg := game.NewRegistry()

	snaps := snapshot.NewStore(cfg.Snapshots.Dir, deps)
	snaps.RegisterKind(pet.Kind, func() game.Storeable { return &pet.Pet{} })
	snaps.RegisterKind(slider.Kind, func() game.Storeable { return &slider.Game{} })

	loaded, failed := snaps.Load(reg)
	log.Info().
		Int("loaded", loaded).
		Int("failed", failed).
		Msg("Restored game snapshots")

	telegramBot, err := bot.New(&bot.Dependencies{
		Config: cfg,
		Reg:    reg,
		Snaps:  snaps,
		Deps:   deps,
		Scores: scores,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()

	// Persist every durable session so a restart resumes where we
	// left off.
	flushed := snaps.Flush(reg)
	log.Info().Int("flushed", flushed).Msg("Flushed game snapshots")

	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations for the score ledger.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scoreboard (
			id BIGSERIAL PRIMARY KEY,
			score INT NOT NULL,
			user_id BIGINT NOT NULL,
			state INT NOT NULL,
			turns INT NOT NULL,
			username VARCHAR(255) NOT NULL DEFAULT '',
			channel VARCHAR(255) NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_scoreboard_score ON scoreboard(score DESC);
		CREATE INDEX IF NOT EXISTS idx_scoreboard_user_date ON scoreboard(user_id, date DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: scoreboard table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
