// Package game implements the per-channel emojirade state machine.
//
// One State instance exists per channel. The round cycles through four
// steps: a fresh channel starts in StepNewGame, a started game waits for
// the winner's secret phrase in StepWaiting, moves to StepProvided once the
// phrase is in, and to StepGuessing once the winner posts their emoji.
// A correct guess rotates the winners and returns to StepWaiting.
//
// All mutations of one channel's State must be serialized by the caller
// (see internal/pkg/lock); the State itself holds no mutex.
package game

import (
	"fmt"

	"emojirades-bot/internal/match"
)

// Step identifies where a channel's round currently is.
type Step string

const (
	StepNewGame  Step = "new_game"
	StepWaiting  Step = "waiting"
	StepProvided Step = "provided"
	StepGuessing Step = "guessing"
)

// State holds one channel's game.
//
// A zero user ID means "unset". Variants and RawVariants are non-nil exactly
// while the step is StepProvided or StepGuessing.
type State struct {
	ChannelID      int64
	Step           Step
	PreviousWinner int64
	CurrentWinner  int64

	// Variants are the normalized accepted answers; RawVariants the
	// pre-normalization originals, kept for display when the round ends.
	Variants    []string
	RawVariants []string

	// FirstGuess is true only between the winner's emoji post and the
	// first guess attempt of the round.
	FirstGuess bool

	// Admins is the channel admin allow-list. An empty list means every
	// user is an admin; the list only restricts once someone is promoted.
	Admins []int64
}

// NewState returns a fresh channel state in StepNewGame.
func NewState(channelID int64) *State {
	return &State{ChannelID: channelID, Step: StepNewGame}
}

// InProgress reports whether a game has been started in this channel.
func (s *State) InProgress() bool {
	return s.Step != StepNewGame
}

// NotInProgress reports whether no round is actively being played.
func (s *State) NotInProgress() bool {
	return s.Step == StepNewGame || s.Step == StepWaiting
}

// IsGuessing reports whether the channel is in the guessing phase.
func (s *State) IsGuessing() bool {
	return s.Step == StepGuessing
}

// IsAdmin reports whether the user may perform admin operations in this
// channel. An empty admin list grants everyone admin rights so a new
// channel can bootstrap itself.
func (s *State) IsAdmin(userID int64) bool {
	if len(s.Admins) == 0 {
		return true
	}
	for _, id := range s.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// AddAdmin adds a user to the channel admin list.
// Returns false if the user was already an admin.
func (s *State) AddAdmin(userID int64) bool {
	for _, id := range s.Admins {
		if id == userID {
			return false
		}
	}
	s.Admins = append(s.Admins, userID)
	return true
}

// RemoveAdmin removes a user from the channel admin list.
// Returns false if the user was not on the list.
func (s *State) RemoveAdmin(userID int64) bool {
	for i, id := range s.Admins {
		if id == userID {
			s.Admins = append(s.Admins[:i], s.Admins[i+1:]...)
			return true
		}
	}
	return false
}

// StartNewGame seeds the channel with its first pair of round participants
// and moves to StepWaiting. It is legal from StepNewGame, and from
// StepWaiting when an admin restarts a stuck game; once a phrase is in play
// the round has to be resolved before a new game can start.
func (s *State) StartNewGame(actor, previousWinner, currentWinner int64) error {
	switch s.Step {
	case StepNewGame:
		// Always legal on a fresh channel.
	case StepWaiting:
		if !s.IsAdmin(actor) {
			return fmt.Errorf("%w: only admins may restart a started game", ErrPermissionDenied)
		}
	default:
		return fmt.Errorf("%w: a phrase is already in play, currently %s", ErrWrongStep, s.Step)
	}

	s.Step = StepWaiting
	s.PreviousWinner = previousWinner
	s.CurrentWinner = currentWinner
	s.clearEmojirade()
	return nil
}

// ProvideEmojirade stores the winner's secret phrase and moves to
// StepProvided. The phrase may contain alternatives separated by "|"; each
// is normalized independently and any one matching is sufficient.
func (s *State) ProvideEmojirade(phrase string) error {
	if s.Step != StepWaiting {
		return fmt.Errorf("%w: expected %s, currently %s", ErrWrongStep, StepWaiting, s.Step)
	}

	raw, normalized := match.ParseVariants(phrase)
	if len(normalized) == 0 {
		return fmt.Errorf("%w: phrase is empty after normalization", ErrWrongStep)
	}

	s.RawVariants = raw
	s.Variants = normalized
	s.Step = StepProvided
	return nil
}

// WinnerPosted records that the current winner posted their emoji encoding
// and opens the guessing phase. The post must come from the current winner
// and contain at least one :shortcode: emoji token.
func (s *State) WinnerPosted(poster int64, text string) error {
	if s.Step != StepProvided {
		return fmt.Errorf("%w: expected %s, currently %s", ErrWrongStep, StepProvided, s.Step)
	}
	if poster != s.CurrentWinner {
		return ErrNotWinner
	}
	if !ContainsEmojiToken(text) {
		return ErrNoEmoji
	}

	s.Step = StepGuessing
	s.FirstGuess = true
	return nil
}

// RegisterCorrectGuess rotates the winners after a correct guess and
// returns the channel to StepWaiting for the new winner's phrase.
func (s *State) RegisterCorrectGuess(guesser int64) error {
	if s.Step != StepGuessing {
		return fmt.Errorf("%w: expected %s, currently %s", ErrWrongStep, StepGuessing, s.Step)
	}

	s.PreviousWinner = s.CurrentWinner
	s.CurrentWinner = guesser
	s.Step = StepWaiting
	s.clearEmojirade()
	return nil
}

// FixWinner replaces the current winner without advancing the round, for
// when the wrong guesser was credited. Only an admin or the previous winner
// may fix, and never while guessing is underway. The corresponding score
// adjustments are the caller's responsibility.
func (s *State) FixWinner(actor, newWinner int64) error {
	if !s.IsAdmin(actor) && actor != s.PreviousWinner {
		return ErrPermissionDenied
	}
	if s.Step == StepGuessing {
		return fmt.Errorf("%w: cannot fix the winner while guessing is underway", ErrWrongStep)
	}
	if s.Step == StepNewGame {
		return fmt.Errorf("%w: no game in progress", ErrWrongStep)
	}

	s.CurrentWinner = newWinner
	return nil
}

func (s *State) clearEmojirade() {
	s.Variants = nil
	s.RawVariants = nil
	s.FirstGuess = false
}
