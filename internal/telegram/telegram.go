package telegram

import (
	"context"
	"time"

	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/telegram/bot"
	"github.com/futig/traffic-law-assistant/internal/telegram/handlers"
	"github.com/futig/traffic-law-assistant/internal/telegram/keyboard"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// Deps are the collaborators shared by all handlers
type Deps struct {
	Usecase      handlers.AssistantUsecase
	Validator    handlers.Validator
	Formatters   handlers.FormatterFactory
	MaxQuestions int
	PollInterval time.Duration
}

// NewBot authorizes the token and registers all handlers
func NewBot(cfg *config.TelegramConfig, deps Deps, logger *zap.Logger) (Bot, error) {
	api, err := bot.NewAPI(cfg, logger)
	if err != nil {
		return nil, err
	}

	sender := handlers.NewMessageSender(api, logger)
	b := bot.New(api, cfg, sender, logger)
	RegisterHandlers(b, api, sender, cfg, deps, logger)

	logger.Info("telegram bot initialized successfully")
	return b, nil
}

// RegisterHandlers wires every command, the free-text chat and the callbacks
func RegisterHandlers(b *bot.Bot, api handlers.Sender, sender *handlers.MessageSender, cfg *config.TelegramConfig, deps Deps, logger *zap.Logger) {
	tests := handlers.NewTestCache(cfg.ExportTTL)
	kb := keyboard.NewBuilder()

	testHandler := handlers.NewTestHandler(api, sender, deps.Usecase, deps.Validator, tests, kb, deps.MaxQuestions, deps.PollInterval, logger)

	b.RegisterHandler(handlers.NewStartHandler(sender))
	b.RegisterHandler(handlers.NewHelpHandler(sender))
	b.RegisterHandler(handlers.NewArticleHandler(sender, deps.Usecase, deps.Validator))
	b.RegisterHandler(handlers.NewChatHandler(api, sender, deps.Usecase, deps.Validator, logger))
	b.RegisterHandler(testHandler)
	b.RegisterHandler(handlers.NewCallbackHandler(sender, testHandler, deps.Validator, tests, deps.Formatters))

	logger.Info("telegram handlers registered", zap.Int("handler_count", 6))
}
