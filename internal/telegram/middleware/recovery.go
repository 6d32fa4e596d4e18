package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/futig/traffic-law-assistant/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Responder is implemented by *tgbotapi.BotAPI
type Responder interface {
	Sender
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RecoveryMiddleware turns a handler panic into an error reply
type RecoveryMiddleware struct {
	logger *zap.Logger
	bot    Responder
}

func NewRecoveryMiddleware(logger *zap.Logger, bot Responder) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logger,
		bot:    bot,
	}
}

func (m *RecoveryMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		userID, chatID := updateIDs(update)
		m.logger.Error("panic recovered in telegram handler",
			zap.String("panic", fmt.Sprint(r)),
			zap.String("stack", string(debug.Stack())),
			zap.Int("update_id", update.UpdateID),
			zap.String("type", updateType(update)),
			zap.Int64("user_id", userID),
		)

		// a pending callback keeps its button spinning until answered
		if update.CallbackQuery != nil {
			if _, err := m.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, render.ErrInvalidCallback)); err != nil {
				m.logger.Warn("failed to answer callback after panic", zap.Error(err))
			}
		}

		if chatID == 0 {
			return
		}
		if _, err := m.bot.Send(tgbotapi.NewMessage(chatID, render.ErrGeneric)); err != nil {
			m.logger.Error("failed to send error message",
				zap.Error(err),
				zap.Int64("chat_id", chatID),
			)
		}
	}()

	next(update)
}
