// Package main is the entry point for the Emojirades bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"emojirades-bot/internal/bot"
	"emojirades-bot/internal/config"
	"emojirades-bot/internal/pkg/db"
	"emojirades-bot/internal/pkg/lock"
	"emojirades-bot/internal/repository"
	"emojirades-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Int("scott_factor", cfg.Game.ScottFactor).
		Int("edit_window_seconds", cfg.Game.EditWindowSeconds).
		Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	stateRepo := repository.NewGameStateRepository(dbPool.Pool)
	scoreRepo := repository.NewScoreRepository(dbPool.Pool)

	// Initialize services
	gameService := service.NewGameService(stateRepo, cfg.Game.ScottFactor)
	scoreService := service.NewScoreService(scoreRepo)

	// Initialize per-channel lock
	channelLock := lock.NewChannelLock()

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:       cfg,
		GameService:  gameService,
		ScoreService: scoreService,
		ChannelLock:  channelLock,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create game_states table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_states (
			channel_id BIGINT PRIMARY KEY,
			step VARCHAR(20) NOT NULL,
			previous_winner BIGINT NOT NULL DEFAULT 0,
			current_winner BIGINT NOT NULL DEFAULT 0,
			variants TEXT[] NOT NULL DEFAULT '{}',
			raw_variants TEXT[] NOT NULL DEFAULT '{}',
			first_guess BOOLEAN NOT NULL DEFAULT FALSE,
			admins BIGINT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_game_states_waiting ON game_states(current_winner) WHERE step = 'waiting';
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: game_states table created")

	// Migration 2: Create scores table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scores (
			channel_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			score BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (channel_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_scores_leaderboard ON scores(channel_id, score DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: scores table created")

	// Migration 3: Create score_events table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS score_events (
			id BIGSERIAL PRIMARY KEY,
			channel_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			operation VARCHAR(20) NOT NULL,
			previous_value BIGINT NOT NULL,
			new_value BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_score_events_channel_time ON score_events(channel_id, created_at ASC);
		CREATE INDEX IF NOT EXISTS idx_score_events_user ON score_events(channel_id, user_id, created_at ASC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: score_events table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
