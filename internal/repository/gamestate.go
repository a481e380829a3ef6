// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emojirades-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrStateNotFound = errors.New("game state not found")
)

// GameStateRepository handles per-channel game state persistence.
type GameStateRepository struct {
	pool *pgxpool.Pool
}

// NewGameStateRepository creates a new GameStateRepository instance.
func NewGameStateRepository(pool *pgxpool.Pool) *GameStateRepository {
	return &GameStateRepository{pool: pool}
}

// Get retrieves the game state for a channel.
// Returns ErrStateNotFound if the channel has never been seen.
func (r *GameStateRepository) Get(ctx context.Context, channelID int64) (*model.GameState, error) {
	const query = `
		SELECT channel_id, step, previous_winner, current_winner,
		       variants, raw_variants, first_guess, admins, created_at, updated_at
		FROM game_states
		WHERE channel_id = $1
	`

	var state model.GameState
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&state.ChannelID,
		&state.Step,
		&state.PreviousWinner,
		&state.CurrentWinner,
		&state.Variants,
		&state.RawVariants,
		&state.FirstGuess,
		&state.Admins,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}

	return &state, nil
}

// Save upserts the game state for a channel. Channels are created lazily on
// first save and never deleted.
func (r *GameStateRepository) Save(ctx context.Context, state *model.GameState) error {
	const query = `
		INSERT INTO game_states (channel_id, step, previous_winner, current_winner,
		                         variants, raw_variants, first_guess, admins, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (channel_id) DO UPDATE SET
			step = EXCLUDED.step,
			previous_winner = EXCLUDED.previous_winner,
			current_winner = EXCLUDED.current_winner,
			variants = EXCLUDED.variants,
			raw_variants = EXCLUDED.raw_variants,
			first_guess = EXCLUDED.first_guess,
			admins = EXCLUDED.admins,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		state.ChannelID,
		state.Step,
		state.PreviousWinner,
		state.CurrentWinner,
		state.Variants,
		state.RawVariants,
		state.FirstGuess,
		state.Admins,
	)
	if err != nil {
		return fmt.Errorf("failed to save game state: %w", err)
	}

	return nil
}

// FindWaitingForWinner returns the channels that are waiting for the given
// user's phrase. Used to route a privately submitted emojirade to the right
// channel.
func (r *GameStateRepository) FindWaitingForWinner(ctx context.Context, userID int64) ([]*model.GameState, error) {
	const query = `
		SELECT channel_id, step, previous_winner, current_winner,
		       variants, raw_variants, first_guess, admins, created_at, updated_at
		FROM game_states
		WHERE step = 'waiting' AND current_winner = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting channels: %w", err)
	}
	defer rows.Close()

	var states []*model.GameState
	for rows.Next() {
		var state model.GameState
		err := rows.Scan(
			&state.ChannelID,
			&state.Step,
			&state.PreviousWinner,
			&state.CurrentWinner,
			&state.Variants,
			&state.RawVariants,
			&state.FirstGuess,
			&state.Admins,
			&state.CreatedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game state: %w", err)
		}
		states = append(states, &state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game states: %w", err)
	}

	return states, nil
}
