package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"emojirades-bot/internal/config"
	"emojirades-bot/internal/game"
	"emojirades-bot/internal/pkg/lock"
	"emojirades-bot/internal/service"
)

// AdminHandler handles admin commands: winner fixes, admin roster changes
// and the operator-only ledger audit.
type AdminHandler struct {
	cfg          *config.Config
	gameService  *service.GameService
	scoreService *service.ScoreService
	channelLock  *lock.ChannelLock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	cfg *config.Config,
	gameService *service.GameService,
	scoreService *service.ScoreService,
	channelLock *lock.ChannelLock,
) *AdminHandler {
	return &AdminHandler{
		cfg:          cfg,
		gameService:  gameService,
		scoreService: scoreService,
		channelLock:  channelLock,
	}
}

// authorizeDirectives checks that directive overrides are exercised by an
// admin of the target channel. The operation's own guard still applies; this
// gate only covers the redirection itself.
func (h *AdminHandler) authorizeDirectives(ctx context.Context, d Directives, channelID, senderID int64) (bool, error) {
	if !d.RequiresAdmin() {
		return true, nil
	}
	return h.gameService.IsAdmin(ctx, channelID, senderID)
}

// HandleFixWinner handles the /fixwinner command.
// Format: /fixwinner <user_id>, with optional channel= directive.
// Moves the round win (and its point) from the mistakenly credited player
// to the right one.
func (h *AdminHandler) HandleFixWinner(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	d, remaining := ParseDirectives(c.Message().Payload)
	channelID := d.Channel(chat.ID)

	if ok, err := h.authorizeDirectives(ctx, d, channelID, sender.ID); err != nil || !ok {
		if err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("Failed to check directive permissions")
			return c.Reply("❌ Something went wrong, try again later")
		}
		return c.Reply("❌ Only admins of the target channel can use directives")
	}

	newWinner, ok := d.PlayerID, d.HasPlayer
	if !ok {
		args := strings.Fields(remaining)
		if len(args) < 1 {
			return c.Reply("❌ Usage: /fixwinner <user_id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Reply("❌ The new winner must be a numeric user ID")
		}
		newWinner = id
	}

	var oldWinner int64
	var pointMoveFailed bool
	err := h.channelLock.WithLockContext(ctx, channelID, lockTimeout, func() error {
		var err error
		oldWinner, err = h.gameService.FixWinner(ctx, channelID, sender.ID, newWinner)
		if err != nil {
			return err
		}
		if oldWinner == newWinner {
			return nil
		}

		// Move the point from the mistakenly credited player to the right one.
		if _, err := h.scoreService.Decrement(ctx, channelID, oldWinner); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Int64("user_id", oldWinner).Msg("Failed to revoke point")
			pointMoveFailed = true
			return nil
		}
		if _, err := h.scoreService.Increment(ctx, channelID, newWinner); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Int64("user_id", newWinner).Msg("Failed to award point")
			pointMoveFailed = true
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrLockTimeout):
			return c.Reply("⏳ The channel is busy, try again in a moment")
		case errors.Is(err, game.ErrPermissionDenied):
			return c.Reply("❌ Only a game admin or the previous winner can fix the winner")
		case errors.Is(err, game.ErrWrongStep):
			return c.Reply("❌ Can't fix the winner right now: either no game is running or guessing is in full swing")
		}
		log.Error().Err(err).Int64("channel_id", channelID).Msg("Failed to fix winner")
		return c.Reply("❌ Something went wrong, try again later")
	}

	if oldWinner == newWinner {
		return c.Reply("🤷 That's already the recorded winner")
	}
	if pointMoveFailed {
		return c.Reply("⚠️ Winner updated but the point move failed, an operator should /audit")
	}

	log.Info().
		Int64("channel_id", channelID).
		Int64("actor", sender.ID).
		Int64("old_winner", oldWinner).
		Int64("new_winner", newWinner).
		Msg("Winner fixed")

	return c.Reply(fmt.Sprintf(
		"🔧 Winner fixed: the round now belongs to User%d (was User%d), point moved along with it",
		newWinner, oldWinner,
	))
}

// HandlePromote handles the /promote command.
// Format: /promote <user_id>
func (h *AdminHandler) HandlePromote(c tele.Context) error {
	return h.handleRosterChange(c, "promote")
}

// HandleDemote handles the /demote command.
// Format: /demote <user_id>
func (h *AdminHandler) HandleDemote(c tele.Context) error {
	return h.handleRosterChange(c, "demote")
}

// handleRosterChange applies a promote or demote to the channel admin list.
func (h *AdminHandler) handleRosterChange(c tele.Context, action string) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	d, remaining := ParseDirectives(c.Message().Payload)
	channelID := d.Channel(chat.ID)

	if ok, err := h.authorizeDirectives(ctx, d, channelID, sender.ID); err != nil || !ok {
		if err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("Failed to check directive permissions")
			return c.Reply("❌ Something went wrong, try again later")
		}
		return c.Reply("❌ Only admins of the target channel can use directives")
	}

	target, ok := d.PlayerID, d.HasPlayer
	if !ok {
		args := strings.Fields(remaining)
		if len(args) < 1 {
			return c.Reply(fmt.Sprintf("❌ Usage: /%s <user_id>", action))
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Reply("❌ The target must be a numeric user ID")
		}
		target = id
	}

	err := h.channelLock.WithLockContext(ctx, channelID, lockTimeout, func() error {
		if action == "promote" {
			return h.gameService.Promote(ctx, channelID, sender.ID, target)
		}
		return h.gameService.Demote(ctx, channelID, sender.ID, target)
	})
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrLockTimeout):
			return c.Reply("⏳ The channel is busy, try again in a moment")
		case errors.Is(err, game.ErrPermissionDenied):
			return c.Reply("❌ Only a game admin can change the admin roster")
		}
		log.Error().Err(err).Int64("channel_id", channelID).Str("action", action).Msg("Failed to change admin roster")
		return c.Reply("❌ Something went wrong, try again later")
	}

	log.Info().
		Int64("channel_id", channelID).
		Int64("actor", sender.ID).
		Int64("target", target).
		Str("action", action).
		Msg("Admin roster changed")

	if action == "promote" {
		return c.Reply(fmt.Sprintf("⭐ User%d is now a game admin", target))
	}
	return c.Reply(fmt.Sprintf("👋 User%d is no longer a game admin", target))
}

// HandleAudit handles the /audit command. Operator-only: replays the
// channel's score history and reports any tally that drifted from it.
func (h *AdminHandler) HandleAudit(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	if !h.cfg.IsOperator(sender.ID) {
		return c.Reply("❌ Only bot operators can run an audit")
	}

	d, _ := ParseDirectives(c.Message().Payload)
	channelID := d.Channel(chat.ID)

	drifts, err := h.scoreService.Audit(ctx, channelID)
	if err != nil {
		log.Error().Err(err).Int64("channel_id", channelID).Msg("Audit failed")
		return c.Reply("❌ Audit failed, see logs")
	}
	if len(drifts) == 0 {
		return c.Reply("✅ Ledger is clean: every tally matches its history")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚠️ Ledger drift in %d tallies:\n", len(drifts)))
	for _, drift := range drifts {
		b.WriteString(fmt.Sprintf(
			"User%d: stored %d, history says %d\n",
			drift.UserID, drift.Stored, drift.Replayed,
		))
	}

	log.Warn().
		Int64("channel_id", channelID).
		Int("drift_count", len(drifts)).
		Msg("Ledger audit found drift")

	return c.Reply(b.String())
}
