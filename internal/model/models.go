// Package model defines the persisted data models for the emojirades bot.
package model

import "time"

// GameState is the persisted form of a channel's game. The in-memory state
// machine lives in internal/game; this row mirrors it one-to-one.
type GameState struct {
	ChannelID      int64     `db:"channel_id"`
	Step           string    `db:"step"`
	PreviousWinner int64     `db:"previous_winner"`
	CurrentWinner  int64     `db:"current_winner"`
	Variants       []string  `db:"variants"`
	RawVariants    []string  `db:"raw_variants"`
	FirstGuess     bool      `db:"first_guess"`
	Admins         []int64   `db:"admins"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Score is a user's current tally in one channel.
type Score struct {
	ChannelID int64     `db:"channel_id"`
	UserID    int64     `db:"user_id"`
	Score     int64     `db:"score"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ScoreEvent is one immutable entry of the append-only score history.
// The current tally for a (channel, user) pair always equals the NewValue
// of that pair's most recent event.
type ScoreEvent struct {
	ID            int64     `db:"id"`
	ChannelID     int64     `db:"channel_id"`
	UserID        int64     `db:"user_id"`
	Operation     string    `db:"operation"`
	PreviousValue int64     `db:"previous_value"`
	NewValue      int64     `db:"new_value"`
	CreatedAt     time.Time `db:"created_at"`
}

// Score ledger operations.
const (
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpSet       = "set"
)

// ScoreOperations returns the valid ledger operation names.
func ScoreOperations() []string {
	return []string{OpIncrement, OpDecrement, OpSet}
}
