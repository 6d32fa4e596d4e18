package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/telegram/handlers"
	"github.com/futig/traffic-law-assistant/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []string
	updates chan tgbotapi.Update
	stopped bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type recordingHandler struct {
	route string

	mu   sync.Mutex
	msgs []*handlers.Message
}

func (h *recordingHandler) Route() string { return h.route }

func (h *recordingHandler) Handle(ctx context.Context, msg *handlers.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return nil
}

func (h *recordingHandler) received() []*handlers.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*handlers.Message(nil), h.msgs...)
}

func newTestBot(api *fakeAPI) *Bot {
	cfg := &config.TelegramConfig{UpdateTimeout: 60, RateLimitPerMinute: 600, RateLimitBurst: 100, ShutdownTimeout: 1}
	logger := zap.NewNop()
	return New(api, cfg, handlers.NewMessageSender(api, logger), logger)
}

func command(text string, length int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: 1},
		Chat:      &tgbotapi.Chat{ID: 2},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}}
}

func TestRouting(t *testing.T) {
	api := newFakeAPI()
	b := newTestBot(api)

	test := &recordingHandler{route: handlers.RouteTest}
	text := &recordingHandler{route: handlers.RouteText}
	callback := &recordingHandler{route: handlers.RouteCallback}
	b.RegisterHandler(test)
	b.RegisterHandler(text)
	b.RegisterHandler(callback)

	ctx := context.Background()

	b.HandleUpdate(ctx, command("/test 10", 5))
	require.Len(t, test.received(), 1)
	assert.Equal(t, "10", test.received()[0].Args)
	assert.Equal(t, int64(2), test.received()[0].ChatID)

	b.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 2},
		Text: "¿Qué dice el artículo 12?",
	}})
	require.Len(t, text.received(), 1)
	assert.Equal(t, "¿Qué dice el artículo 12?", text.received()[0].Text)

	b.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{MessageID: 11, Chat: &tgbotapi.Chat{ID: 2}},
		Data:    "export:abc",
	}})
	require.Len(t, callback.received(), 1)
	assert.Equal(t, "export:abc", callback.received()[0].CallbackData)
	assert.Equal(t, "cb1", callback.received()[0].CallbackID)

	b.HandleUpdate(ctx, command("/project", 8))
	assert.Equal(t, []string{render.ErrUnknownCommand}, api.texts())
}

func TestRegisterHandlerKeepsLatest(t *testing.T) {
	b := newTestBot(newFakeAPI())

	first := &recordingHandler{route: handlers.RouteHelp}
	second := &recordingHandler{route: handlers.RouteHelp}
	b.RegisterHandler(first)
	b.RegisterHandler(second)

	b.HandleUpdate(context.Background(), command("/help", 5))
	assert.Empty(t, first.received())
	assert.Len(t, second.received(), 1)
}

func TestStartStop(t *testing.T) {
	api := newFakeAPI()
	b := newTestBot(api)
	text := &recordingHandler{route: handlers.RouteText}
	b.RegisterHandler(text)

	require.NoError(t, b.Start(context.Background()))

	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 2},
		Text: "hola",
	}}
	require.Eventually(t, func() bool { return len(text.received()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Stop())
	require.NoError(t, b.Stop())

	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}
