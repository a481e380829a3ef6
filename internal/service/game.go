// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"emojirades-bot/internal/game"
	"emojirades-bot/internal/model"
	"emojirades-bot/internal/repository"
)

// GameService drives the per-channel state machine and persists every
// mutation. Callers must hold the channel lock around any mutating call so
// a channel's events are handled one at a time.
type GameService struct {
	stateRepo   *repository.GameStateRepository
	scottFactor int
}

// NewGameService creates a new GameService instance.
func NewGameService(stateRepo *repository.GameStateRepository, scottFactor int) *GameService {
	return &GameService{
		stateRepo:   stateRepo,
		scottFactor: scottFactor,
	}
}

// GetOrCreate loads a channel's state, lazily creating a fresh one on first
// reference. The fresh state is not persisted until its first mutation.
func (s *GameService) GetOrCreate(ctx context.Context, channelID int64) (*game.State, error) {
	stored, err := s.stateRepo.Get(ctx, channelID)
	if err != nil {
		if err == repository.ErrStateNotFound {
			return game.NewState(channelID), nil
		}
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	return fromModel(stored), nil
}

// save persists the state after a mutation. Save failures are surfaced to
// the caller; the in-memory mutation has already happened.
func (s *GameService) save(ctx context.Context, state *game.State) error {
	if err := s.stateRepo.Save(ctx, toModel(state)); err != nil {
		return fmt.Errorf("failed to persist game state: %w", err)
	}
	return nil
}

// StartGame starts (or, for admins, restarts) a game in a channel.
func (s *GameService) StartGame(ctx context.Context, channelID, actor, previousWinner, currentWinner int64) error {
	state, err := s.GetOrCreate(ctx, channelID)
	if err != nil {
		return err
	}
	if err := state.StartNewGame(actor, previousWinner, currentWinner); err != nil {
		return err
	}
	return s.save(ctx, state)
}

// ProvideEmojirade stores a privately submitted phrase in every channel
// currently waiting for this user's emojirade. Returns the channel IDs the
// phrase was applied to; an empty slice means no channel was waiting.
func (s *GameService) ProvideEmojirade(ctx context.Context, userID int64, phrase string) ([]int64, error) {
	waiting, err := s.stateRepo.FindWaitingForWinner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting channels: %w", err)
	}

	var applied []int64
	for _, stored := range waiting {
		state := fromModel(stored)
		if err := state.ProvideEmojirade(phrase); err != nil {
			return applied, err
		}
		if err := s.save(ctx, state); err != nil {
			return applied, err
		}
		applied = append(applied, state.ChannelID)
	}
	return applied, nil
}

// HandleMessage runs inference on a plain chat message and applies the
// implied transition. The first-guess flag is cleared after any guess
// attempt, correct or not. Returns the inference so the caller can award
// points and reply.
func (s *GameService) HandleMessage(ctx context.Context, channelID int64, msg game.Message, editWindow time.Duration) (game.Inference, *game.State, error) {
	state, err := s.GetOrCreate(ctx, channelID)
	if err != nil {
		return game.Inference{}, nil, err
	}

	inf := state.Infer(msg, s.scottFactor, editWindow)
	switch inf.Kind {
	case game.InferenceWinnerPosted:
		if err := state.WinnerPosted(msg.SenderID, msg.Text); err != nil {
			return inf, state, err
		}
		if err := s.save(ctx, state); err != nil {
			return inf, state, err
		}

	case game.InferenceCorrectGuess:
		if err := state.RegisterCorrectGuess(inf.Guesser); err != nil {
			return inf, state, err
		}
		if err := s.save(ctx, state); err != nil {
			return inf, state, err
		}

	case game.InferenceWrongGuess, game.InferenceGuessTooLong:
		if state.FirstGuess {
			state.FirstGuess = false
			if err := s.save(ctx, state); err != nil {
				return inf, state, err
			}
		}
		log.Debug().
			Int64("channel_id", channelID).
			Int64("user_id", msg.SenderID).
			Str("outcome", inf.Kind.String()).
			Msg("Guess attempt did not match")
	}

	return inf, state, nil
}

// FixWinner replaces a channel's current winner. Returns the replaced
// winner so the caller can move the point from the old winner to the new
// one; the state machine itself does not touch scores.
func (s *GameService) FixWinner(ctx context.Context, channelID, actor, newWinner int64) (int64, error) {
	state, err := s.GetOrCreate(ctx, channelID)
	if err != nil {
		return 0, err
	}
	oldWinner := state.CurrentWinner
	if err := state.FixWinner(actor, newWinner); err != nil {
		return 0, err
	}
	if err := s.save(ctx, state); err != nil {
		return 0, err
	}
	return oldWinner, nil
}

// Promote adds a user to a channel's admin list. Only admins of the
// channel may promote; on a fresh channel everyone is an admin.
func (s *GameService) Promote(ctx context.Context, channelID, actor, target int64) error {
	state, err := s.GetOrCreate(ctx, channelID)
	if err != nil {
		return err
	}
	if !state.IsAdmin(actor) {
		return game.ErrPermissionDenied
	}
	if !state.AddAdmin(target) {
		return nil // already an admin, nothing to persist
	}
	return s.save(ctx, state)
}

// Demote removes a user from a channel's admin list.
func (s *GameService) Demote(ctx context.Context, channelID, actor, target int64) error {
	state, err := s.GetOrCreate(ctx, channelID)
	if err != nil {
		return err
	}
	if !state.IsAdmin(actor) {
		return game.ErrPermissionDenied
	}
	if !state.RemoveAdmin(target) {
		return nil
	}
	return s.save(ctx, state)
}

// IsAdmin reports whether the user may perform admin actions in the channel.
func (s *GameService) IsAdmin(ctx context.Context, channelID, userID int64) (bool, error) {
	state, err := s.GetOrCreate(ctx, channelID)
	if err != nil {
		return false, err
	}
	return state.IsAdmin(userID), nil
}

// toModel converts the in-memory state machine to its persisted form.
func toModel(state *game.State) *model.GameState {
	return &model.GameState{
		ChannelID:      state.ChannelID,
		Step:           string(state.Step),
		PreviousWinner: state.PreviousWinner,
		CurrentWinner:  state.CurrentWinner,
		Variants:       state.Variants,
		RawVariants:    state.RawVariants,
		FirstGuess:     state.FirstGuess,
		Admins:         state.Admins,
	}
}

// fromModel restores the in-memory state machine from its persisted form.
func fromModel(stored *model.GameState) *game.State {
	return &game.State{
		ChannelID:      stored.ChannelID,
		Step:           game.Step(stored.Step),
		PreviousWinner: stored.PreviousWinner,
		CurrentWinner:  stored.CurrentWinner,
		Variants:       stored.Variants,
		RawVariants:    stored.RawVariants,
		FirstGuess:     stored.FirstGuess,
		Admins:         stored.Admins,
	}
}
