package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram clears the typing action after 5 seconds
const typingInterval = 4 * time.Second

// TypingNotifier keeps the "typing" action visible while a slow call runs
type TypingNotifier struct {
	bot    Sender
	chatID int64
	action string
	done   chan struct{}
	stop   sync.Once
	logger *zap.Logger
}

// NewTypingNotifier creates a notifier for chatID. action is one of the tgbotapi.Chat* actions.
func NewTypingNotifier(bot Sender, chatID int64, action string, logger *zap.Logger) *TypingNotifier {
	return &TypingNotifier{
		bot:    bot,
		chatID: chatID,
		action: action,
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start sends the action now and then every typingInterval until Stop or ctx is done
func (t *TypingNotifier) Start(ctx context.Context) {
	t.notify()

	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.notify()
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop is safe to call more than once
func (t *TypingNotifier) Stop() {
	t.stop.Do(func() { close(t.done) })
}

func (t *TypingNotifier) notify() {
	if _, err := t.bot.Request(tgbotapi.NewChatAction(t.chatID, t.action)); err != nil {
		t.logger.Warn("failed to send chat action",
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}
