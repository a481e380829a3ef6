package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"emojirades-bot/internal/config"
	"emojirades-bot/internal/model"
	"emojirades-bot/internal/service"
)

// historyDefaultLimit bounds /history output so a busy channel's full ledger
// doesn't land in chat.
const historyDefaultLimit = 15

// ScoreHandler handles leaderboard and score query commands.
type ScoreHandler struct {
	cfg          *config.Config
	gameService  *service.GameService
	scoreService *service.ScoreService
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(cfg *config.Config, gameService *service.GameService, scoreService *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{
		cfg:          cfg,
		gameService:  gameService,
		scoreService: scoreService,
	}
}

// authorizeDirectives checks that directive overrides are exercised by an
// admin of the target channel. Commands without directives pass through.
func (h *ScoreHandler) authorizeDirectives(ctx context.Context, d Directives, channelID, senderID int64) (bool, error) {
	if !d.RequiresAdmin() {
		return true, nil
	}
	return h.gameService.IsAdmin(ctx, channelID, senderID)
}

// HandleScoreboard handles the /scoreboard command. Tied scores share a
// displayed rank and the next distinct score skips the tied slots.
func (h *ScoreHandler) HandleScoreboard(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	d, _ := ParseDirectives(c.Message().Payload)
	channelID := d.Channel(chat.ID)

	if ok, err := h.authorizeDirectives(ctx, d, channelID, sender.ID); err != nil || !ok {
		if err != nil {
			return c.Reply("❌ Couldn't load the scoreboard, try again later")
		}
		return c.Reply("❌ Only admins of the target channel can use directives")
	}

	scores, ranks, err := h.scoreService.TopN(ctx, channelID, h.cfg.Game.LeaderboardSize)
	if err != nil {
		return c.Reply("❌ Couldn't load the scoreboard, try again later")
	}
	if len(scores) == 0 {
		return c.Reply("📊 No points on the board yet, win a round!")
	}

	medals := map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

	var b strings.Builder
	b.WriteString("📊 Scoreboard\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")
	for i, score := range scores {
		prefix := fmt.Sprintf("%d.", ranks[i])
		if medal, ok := medals[ranks[i]]; ok {
			prefix = medal
		}
		b.WriteString(fmt.Sprintf("%s User%d: %d\n", prefix, score.UserID, score.Score))
	}
	b.WriteString("━━━━━━━━━━━━━━━")

	return c.Reply(b.String())
}

// HandleScore handles the /score command. Supports player= and channel=
// directives for querying someone else's standing.
func (h *ScoreHandler) HandleScore(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	d, _ := ParseDirectives(c.Message().Payload)
	channelID := d.Channel(chat.ID)
	playerID := d.Player(sender.ID)

	if ok, err := h.authorizeDirectives(ctx, d, channelID, sender.ID); err != nil || !ok {
		if err != nil {
			return c.Reply("❌ Couldn't load the score, try again later")
		}
		return c.Reply("❌ Only admins of the target channel can use directives")
	}

	score, rank, ranked, err := h.scoreService.Current(ctx, channelID, playerID)
	if err != nil {
		return c.Reply("❌ Couldn't load the score, try again later")
	}
	if !ranked {
		return c.Reply(fmt.Sprintf("🤷 User%d hasn't scored in this channel yet", playerID))
	}

	return c.Reply(fmt.Sprintf("💯 User%d: %d points, rank %d", playerID, score, rank))
}

// HandleHistory handles the /history command. Supports player= and channel=
// directives; without player= the whole channel's recent events are shown.
func (h *ScoreHandler) HandleHistory(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	d, remaining := ParseDirectives(c.Message().Payload)
	channelID := d.Channel(chat.ID)

	if ok, err := h.authorizeDirectives(ctx, d, channelID, sender.ID); err != nil || !ok {
		if err != nil {
			return c.Reply("❌ Couldn't load the history, try again later")
		}
		return c.Reply("❌ Only admins of the target channel can use directives")
	}

	var playerID *int64
	if d.HasPlayer {
		playerID = &d.PlayerID
	} else if args := strings.Fields(remaining); len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Reply("❌ Usage: /history [user_id]")
		}
		playerID = &id
	}

	events, err := h.scoreService.History(ctx, channelID, playerID, historyDefaultLimit)
	if err != nil {
		return c.Reply("❌ Couldn't load the history, try again later")
	}
	if len(events) == 0 {
		return c.Reply("📜 No score history here yet")
	}

	var b strings.Builder
	b.WriteString("📜 Score history\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")
	for _, event := range events {
		b.WriteString(fmt.Sprintf(
			"%s User%d %s: %d → %d\n",
			event.CreatedAt.Format("Jan 02 15:04"),
			event.UserID,
			describeOperation(event.Operation),
			event.PreviousValue,
			event.NewValue,
		))
	}
	b.WriteString("━━━━━━━━━━━━━━━")

	return c.Reply(b.String())
}

// describeOperation renders a ledger operation for chat output.
func describeOperation(operation string) string {
	switch operation {
	case model.OpIncrement:
		return "➕"
	case model.OpDecrement:
		return "➖"
	case model.OpSet:
		return "📝"
	default:
		return operation
	}
}
