// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"emojirades-bot/internal/config"
	"emojirades-bot/internal/handler"
	"emojirades-bot/internal/pkg/lock"
	"emojirades-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot          *tele.Bot
	cfg          *config.Config
	gameService  *service.GameService
	scoreService *service.ScoreService
	channelLock  *lock.ChannelLock

	// Handlers
	gameHandler  *handler.GameHandler
	scoreHandler *handler.ScoreHandler
	adminHandler *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config       *config.Config
	GameService  *service.GameService
	ScoreService *service.ScoreService
	ChannelLock  *lock.ChannelLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:          teleBot,
		cfg:          deps.Config,
		gameService:  deps.GameService,
		scoreService: deps.ScoreService,
		channelLock:  deps.ChannelLock,
	}

	b.gameHandler = handler.NewGameHandler(deps.Config, deps.GameService, deps.ScoreService, deps.ChannelLock)
	b.scoreHandler = handler.NewScoreHandler(deps.Config, deps.GameService, deps.ScoreService)
	b.adminHandler = handler.NewAdminHandler(deps.Config, deps.GameService, deps.ScoreService, deps.ChannelLock)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and message handlers.
func (b *Bot) registerHandlers() {
	// Game lifecycle
	b.bot.Handle("/start", b.gameHandler.HandleStart)
	b.bot.Handle("/newgame", b.gameHandler.HandleNewGame)
	b.bot.Handle("/emojirade", b.gameHandler.HandleEmojirade)

	// Scores
	b.bot.Handle("/scoreboard", b.scoreHandler.HandleScoreboard)
	b.bot.Handle("/score", b.scoreHandler.HandleScore)
	b.bot.Handle("/history", b.scoreHandler.HandleHistory)

	// Admin
	b.bot.Handle("/fixwinner", b.adminHandler.HandleFixWinner)
	b.bot.Handle("/promote", b.adminHandler.HandlePromote)
	b.bot.Handle("/demote", b.adminHandler.HandleDemote)
	b.bot.Handle("/audit", b.adminHandler.HandleAudit)

	// Every other message runs through guess inference. Edits count too,
	// as long as they land inside the recency window.
	b.bot.Handle(tele.OnText, b.gameHandler.HandleText)
	b.bot.Handle(tele.OnEdited, b.gameHandler.HandleEdited)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
