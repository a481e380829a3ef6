package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"emojirades-bot/internal/config"
	"emojirades-bot/internal/game"
	"emojirades-bot/internal/pkg/lock"
	"emojirades-bot/internal/service"
)

// lockTimeout bounds how long a handler waits on a busy channel before
// giving up instead of tying up a poller worker.
const lockTimeout = 5 * time.Second

// GameHandler handles game lifecycle commands and guess inference on plain
// chat messages.
type GameHandler struct {
	cfg          *config.Config
	gameService  *service.GameService
	scoreService *service.ScoreService
	channelLock  *lock.ChannelLock
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(
	cfg *config.Config,
	gameService *service.GameService,
	scoreService *service.ScoreService,
	channelLock *lock.ChannelLock,
) *GameHandler {
	return &GameHandler{
		cfg:          cfg,
		gameService:  gameService,
		scoreService: scoreService,
		channelLock:  channelLock,
	}
}

// HandleStart handles the /start command.
func (h *GameHandler) HandleStart(c tele.Context) error {
	return c.Reply(
		"👋 Emojirades!\n\n" +
			"One player describes a secret phrase using only emoji, everyone else guesses it in chat. " +
			"The first correct guesser wins the round and sets the next emojirade.\n\n" +
			"🎮 Commands:\n" +
			"/newgame <previous_winner_id> <current_winner_id> - start a game\n" +
			"/emojirade <phrase> - (DM only) set your secret phrase, use | for alternatives\n" +
			"/scoreboard - channel leaderboard\n" +
			"/score - your score and rank\n" +
			"/history - recent score changes\n" +
			"/fixwinner <user_id> - move the last win to the right person\n" +
			"/promote <user_id> and /demote <user_id> - manage game admins",
	)
}

// HandleNewGame handles the /newgame command.
// Format: /newgame <previous_winner_id> <current_winner_id>
func (h *GameHandler) HandleNewGame(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("❌ Games are played in group chats, not DMs")
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ Usage: /newgame <previous_winner_id> <current_winner_id>")
	}
	previousWinner, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Reply("❌ Previous winner must be a numeric user ID")
	}
	currentWinner, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return c.Reply("❌ Current winner must be a numeric user ID")
	}

	err = h.channelLock.WithLockContext(ctx, chat.ID, lockTimeout, func() error {
		return h.gameService.StartGame(ctx, chat.ID, sender.ID, previousWinner, currentWinner)
	})
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrLockTimeout):
			return c.Reply("⏳ The channel is busy, try again in a moment")
		case errors.Is(err, game.ErrPermissionDenied):
			return c.Reply("❌ Only a game admin can restart a game in progress")
		case errors.Is(err, game.ErrWrongStep):
			return c.Reply("❌ A round is already underway, finish it first")
		}
		log.Error().Err(err).Int64("channel_id", chat.ID).Msg("Failed to start game")
		return c.Reply("❌ Something went wrong, try again later")
	}

	log.Info().
		Int64("channel_id", chat.ID).
		Int64("actor", sender.ID).
		Int64("current_winner", currentWinner).
		Msg("New game started")

	return c.Reply(fmt.Sprintf(
		"🎉 New game! Waiting for the current winner (ID %d) to DM me their emojirade with /emojirade <phrase>",
		currentWinner,
	))
}

// HandleEmojirade handles the /emojirade command. The phrase is secret, so
// the command only works in a DM; it is routed to every channel waiting on
// this user.
func (h *GameHandler) HandleEmojirade(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	if chat.Type != tele.ChatPrivate {
		// Don't echo the phrase back into the group.
		return c.Reply("🤫 Emojirades are secret! DM me /emojirade <phrase> instead")
	}

	phrase := c.Message().Payload
	if phrase == "" {
		return c.Reply("❌ Usage: /emojirade <phrase>\nUse | to accept alternatives, e.g. /emojirade big ben|the big ben")
	}

	applied, err := h.gameService.ProvideEmojirade(ctx, sender.ID, phrase)
	if err != nil {
		if errors.Is(err, game.ErrWrongStep) {
			return c.Reply("❌ That phrase normalizes to nothing guessable, try another")
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to store emojirade")
		return c.Reply("❌ Something went wrong, try again later")
	}
	if len(applied) == 0 {
		return c.Reply("🤔 No channel is waiting for your emojirade right now")
	}

	if len(applied) == 1 {
		return c.Reply("✅ Got it! Now post your emoji in the channel to kick off the round")
	}
	return c.Reply(fmt.Sprintf(
		"✅ Got it! Applied to %d channels waiting on you. Post your emoji in each to kick off the rounds",
		len(applied),
	))
}

// HandleText runs guess inference on every plain group message.
func (h *GameHandler) HandleText(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Sender == nil {
		return nil
	}
	return h.inferMessage(c, game.Message{
		SenderID: msg.Sender.ID,
		Text:     msg.Text,
		SentAt:   msg.Time(),
	})
}

// HandleEdited runs guess inference on edited group messages. Stale edits
// are discarded by the inference itself.
func (h *GameHandler) HandleEdited(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Sender == nil {
		return nil
	}
	return h.inferMessage(c, game.Message{
		SenderID: msg.Sender.ID,
		Text:     msg.Text,
		SentAt:   msg.Time(),
		EditedAt: msg.LastEdited(),
	})
}

// inferMessage applies guess inference to one message and reacts to the
// outcome. Wrong guesses stay silent so chatter doesn't trigger the bot.
func (h *GameHandler) inferMessage(c tele.Context, msg game.Message) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil || chat.Type == tele.ChatPrivate {
		return nil
	}

	var (
		inf   game.Inference
		state *game.State
	)
	err := h.channelLock.WithLockContext(ctx, chat.ID, lockTimeout, func() error {
		var err error
		inf, state, err = h.gameService.HandleMessage(ctx, chat.ID, msg, h.cfg.Game.EditWindow())
		return err
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			log.Warn().Int64("channel_id", chat.ID).Msg("Channel busy, dropping message inference")
			return nil
		}
		log.Error().Err(err).Int64("channel_id", chat.ID).Msg("Failed to handle message")
		return nil
	}

	switch inf.Kind {
	case game.InferenceWinnerPosted:
		return c.Reply("🎨 The emojirade is up, start guessing!")

	case game.InferenceCorrectGuess:
		event, err := h.scoreService.Increment(ctx, chat.ID, inf.Guesser)
		if err != nil {
			log.Error().Err(err).
				Int64("channel_id", chat.ID).
				Int64("user_id", inf.Guesser).
				Msg("Failed to award point")
			return c.Reply("🎉 Correct! (but I couldn't record the point, an operator should /audit)")
		}

		answer := ""
		if len(state.RawVariants) > 0 {
			answer = state.RawVariants[0]
		}
		name := displayName(sender)

		reply := fmt.Sprintf("🎉 %s got it! The answer was \"%s\"\n💯 Score: %d", name, answer, event.NewValue)
		if inf.FirstGuess {
			reply = "⚡ First guess! " + reply
		}
		reply += "\n📨 DM me your next emojirade with /emojirade <phrase>"

		log.Info().
			Int64("channel_id", chat.ID).
			Int64("winner", inf.Guesser).
			Bool("first_guess", inf.FirstGuess).
			Msg("Round won")

		return c.Reply(reply)

	case game.InferenceGuessTooLong:
		// Deliberately silent in chat; rejecting paragraphs with a reply
		// would be noisier than the paragraphs themselves.
		return nil
	}

	return nil
}

// displayName picks the friendliest available name for a user.
func displayName(user *tele.User) string {
	if user == nil {
		return "someone"
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return strconv.FormatInt(user.ID, 10)
}
