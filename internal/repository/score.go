package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emojirades-bot/internal/model"
)

// Score-related errors.
var (
	ErrUnknownOperation = errors.New("unknown score operation")
)

// ScoreRepository handles score tallies and the append-only score history.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository instance.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Get retrieves the current score for a (channel, user) pair.
// A never-seen pair reads as zero rather than an error.
func (r *ScoreRepository) Get(ctx context.Context, channelID, userID int64) (*model.Score, error) {
	const query = `
		SELECT channel_id, user_id, score, created_at, updated_at
		FROM scores
		WHERE channel_id = $1 AND user_id = $2
	`

	var score model.Score
	err := r.pool.QueryRow(ctx, query, channelID, userID).Scan(
		&score.ChannelID,
		&score.UserID,
		&score.Score,
		&score.CreatedAt,
		&score.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.Score{ChannelID: channelID, UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get score: %w", err)
	}

	return &score, nil
}

// Apply performs one ledger operation: it appends the history event and
// updates the current tally in a single database transaction, creating a
// zero-score row for never-seen pairs. The value argument is only used by
// the set operation. Returns the appended event.
func (r *ScoreRepository) Apply(ctx context.Context, channelID, userID int64, operation string, value int64) (*model.ScoreEvent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const ensureQuery = `
		INSERT INTO scores (channel_id, user_id, score, created_at, updated_at)
		VALUES ($1, $2, 0, NOW(), NOW())
		ON CONFLICT (channel_id, user_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, ensureQuery, channelID, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure score row: %w", err)
	}

	var previous int64
	const lockQuery = `
		SELECT score FROM scores
		WHERE channel_id = $1 AND user_id = $2
		FOR UPDATE
	`
	if err := tx.QueryRow(ctx, lockQuery, channelID, userID).Scan(&previous); err != nil {
		return nil, fmt.Errorf("failed to read score: %w", err)
	}

	var newValue int64
	switch operation {
	case model.OpIncrement:
		newValue = previous + 1
	case model.OpDecrement:
		newValue = previous - 1
	case model.OpSet:
		newValue = value
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}

	var event model.ScoreEvent
	const appendQuery = `
		INSERT INTO score_events (channel_id, user_id, operation, previous_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, channel_id, user_id, operation, previous_value, new_value, created_at
	`
	err = tx.QueryRow(ctx, appendQuery, channelID, userID, operation, previous, newValue).Scan(
		&event.ID,
		&event.ChannelID,
		&event.UserID,
		&event.Operation,
		&event.PreviousValue,
		&event.NewValue,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append score event: %w", err)
	}

	const updateQuery = `
		UPDATE scores SET score = $3, updated_at = NOW()
		WHERE channel_id = $1 AND user_id = $2
	`
	if _, err := tx.Exec(ctx, updateQuery, channelID, userID, newValue); err != nil {
		return nil, fmt.Errorf("failed to update score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit score operation: %w", err)
	}

	return &event, nil
}

// ListByChannel retrieves all scores for a channel ordered by score
// descending, with ties broken by insertion order so leaderboard output is
// deterministic across calls.
func (r *ScoreRepository) ListByChannel(ctx context.Context, channelID int64) ([]*model.Score, error) {
	const query = `
		SELECT channel_id, user_id, score, created_at, updated_at
		FROM scores
		WHERE channel_id = $1
		ORDER BY score DESC, created_at ASC, user_id ASC
	`

	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []*model.Score
	for rows.Next() {
		var score model.Score
		err := rows.Scan(
			&score.ChannelID,
			&score.UserID,
			&score.Score,
			&score.CreatedAt,
			&score.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, &score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}

	return scores, nil
}

// History retrieves score events for a channel in ascending time order.
// Pass a nil userID for all users; limit <= 0 means no limit. A positive
// limit keeps the NEWEST events, still returned ascending for display.
// An empty channel yields an empty slice, not an error.
func (r *ScoreRepository) History(ctx context.Context, channelID int64, userID *int64, limit int) ([]*model.ScoreEvent, error) {
	query := `
		SELECT id, channel_id, user_id, operation, previous_value, new_value, created_at
		FROM score_events
		WHERE channel_id = $1
	`
	args := []any{channelID}
	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}
	if limit > 0 {
		// Take the newest window, then flip it back to ascending order.
		query = fmt.Sprintf(`
			SELECT id, channel_id, user_id, operation, previous_value, new_value, created_at
			FROM (%s ORDER BY created_at DESC, id DESC LIMIT %d) recent
			ORDER BY created_at ASC, id ASC
		`, query, limit)
	} else {
		query += ` ORDER BY created_at ASC, id ASC`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}
	defer rows.Close()

	events := []*model.ScoreEvent{}
	for rows.Next() {
		var event model.ScoreEvent
		err := rows.Scan(
			&event.ID,
			&event.ChannelID,
			&event.UserID,
			&event.Operation,
			&event.PreviousValue,
			&event.NewValue,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score events: %w", err)
	}

	return events, nil
}
