package service

import (
	"context"
	"fmt"

	"emojirades-bot/internal/model"
	"emojirades-bot/internal/repository"
)

// ScoreService maintains the per-channel score ledger: every mutation is
// recorded in the append-only history, and displayed ranks are tie-aware.
type ScoreService struct {
	scoreRepo *repository.ScoreRepository
}

// NewScoreService creates a new ScoreService instance.
func NewScoreService(scoreRepo *repository.ScoreRepository) *ScoreService {
	return &ScoreService{scoreRepo: scoreRepo}
}

// Increment adds one point to a user's score in a channel.
func (s *ScoreService) Increment(ctx context.Context, channelID, userID int64) (*model.ScoreEvent, error) {
	return s.scoreRepo.Apply(ctx, channelID, userID, model.OpIncrement, 0)
}

// Decrement removes one point from a user's score in a channel.
func (s *ScoreService) Decrement(ctx context.Context, channelID, userID int64) (*model.ScoreEvent, error) {
	return s.scoreRepo.Apply(ctx, channelID, userID, model.OpDecrement, 0)
}

// Set sets a user's score in a channel to an exact value.
func (s *ScoreService) Set(ctx context.Context, channelID, userID, value int64) (*model.ScoreEvent, error) {
	return s.scoreRepo.Apply(ctx, channelID, userID, model.OpSet, value)
}

// Current returns a user's score and tie-aware displayed rank. The rank is
// zero (and ranked false) for users with no score row in the channel.
func (s *ScoreService) Current(ctx context.Context, channelID, userID int64) (int64, int, bool, error) {
	scores, err := s.scoreRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return 0, 0, false, err
	}

	ranks := ComputeRanks(scores)
	for i, sc := range scores {
		if sc.UserID == userID {
			return sc.Score, ranks[i], true, nil
		}
	}
	return 0, 0, false, nil
}

// TopN returns the channel's top n scores together with their tie-aware
// displayed ranks. Equal scores share a rank and the following distinct
// score skips the tied slots: scores 168,120,118,100,81,81,81,24 rank as
// 1,2,3,4,5,5,5,8.
func (s *ScoreService) TopN(ctx context.Context, channelID int64, n int) ([]*model.Score, []int, error) {
	scores, err := s.scoreRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}

	ranks := ComputeRanks(scores)
	if n > 0 && len(scores) > n {
		scores = scores[:n]
		ranks = ranks[:n]
	}
	return scores, ranks, nil
}

// History returns a channel's ledger events in ascending time order,
// optionally filtered by user. A positive limit keeps the newest events.
func (s *ScoreService) History(ctx context.Context, channelID int64, userID *int64, limit int) ([]*model.ScoreEvent, error) {
	return s.scoreRepo.History(ctx, channelID, userID, limit)
}

// Drift describes a (channel, user) pair whose stored tally disagrees with
// the tally replayed from the history log.
type Drift struct {
	UserID   int64
	Stored   int64
	Replayed int64
}

// Audit replays a channel's full event history and compares the result
// against the stored tallies. A clean ledger returns an empty slice.
func (s *ScoreService) Audit(ctx context.Context, channelID int64) ([]Drift, error) {
	events, err := s.scoreRepo.History(ctx, channelID, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for audit: %w", err)
	}
	scores, err := s.scoreRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for audit: %w", err)
	}

	replayed := ReplayEvents(events)

	var drifts []Drift
	seen := make(map[int64]bool)
	for _, sc := range scores {
		seen[sc.UserID] = true
		if replayed[sc.UserID] != sc.Score {
			drifts = append(drifts, Drift{UserID: sc.UserID, Stored: sc.Score, Replayed: replayed[sc.UserID]})
		}
	}
	for userID, value := range replayed {
		if !seen[userID] && value != 0 {
			drifts = append(drifts, Drift{UserID: userID, Stored: 0, Replayed: value})
		}
	}
	return drifts, nil
}

// ComputeRanks computes standard competition ranks for scores already
// ordered by score descending. Equal scores share the same displayed rank;
// the next distinct score takes rank position+1, skipping the tied slots.
func ComputeRanks(scores []*model.Score) []int {
	ranks := make([]int, len(scores))
	for i := range scores {
		if i > 0 && scores[i].Score == scores[i-1].Score {
			ranks[i] = ranks[i-1]
		} else {
			ranks[i] = i + 1
		}
	}
	return ranks
}

// ReplayEvents folds an ordered event log into per-user tallies. Replaying
// the same log always reproduces the same tallies; the ledger audit relies
// on this.
func ReplayEvents(events []*model.ScoreEvent) map[int64]int64 {
	tallies := make(map[int64]int64)
	for _, event := range events {
		switch event.Operation {
		case model.OpIncrement:
			tallies[event.UserID]++
		case model.OpDecrement:
			tallies[event.UserID]--
		case model.OpSet:
			tallies[event.UserID] = event.NewValue
		}
	}
	return tallies
}
