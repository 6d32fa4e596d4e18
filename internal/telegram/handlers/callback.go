package handlers

import (
	"context"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/pkg/formatter"
	"github.com/futig/traffic-law-assistant/internal/telegram/keyboard"
	"github.com/futig/traffic-law-assistant/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type FormatterFactory interface {
	Create(format entity.ResultFormat) (formatter.Formatter, error)
}

// CallbackHandler handles inline keyboard button presses
type CallbackHandler struct {
	BaseHandler
	testHandler *TestHandler
	validator   Validator
	tests       *TestCache
	formatters  FormatterFactory
}

func NewCallbackHandler(
	sender *MessageSender,
	testHandler *TestHandler,
	validator Validator,
	tests *TestCache,
	formatters FormatterFactory,
) *CallbackHandler {
	return &CallbackHandler{
		BaseHandler: BaseHandler{route: RouteCallback, messageSender: sender},
		testHandler: testHandler,
		validator:   validator,
		tests:       tests,
		formatters:  formatters,
	}
}

func (h *CallbackHandler) Handle(ctx context.Context, msg *Message) error {
	data, err := keyboard.ParseCallback(msg.CallbackData)
	if err != nil {
		ctxzap.Warn(ctx, "invalid callback data", zap.Error(err))
		h.messageSender.AnswerCallback(msg.CallbackID, render.ErrInvalidCallback)
		return nil
	}

	switch data.Action {
	case keyboard.ActionTest:
		n, err := h.validator.QuestionCount(data.Value)
		if err != nil {
			h.messageSender.AnswerCallback(msg.CallbackID, render.ErrInvalidCallback)
			return nil
		}
		// Answer right away so Telegram does not expire the query while the test is generated
		h.messageSender.AnswerCallback(msg.CallbackID, render.CallbackProcessing)
		return h.testHandler.Deliver(ctx, msg.ChatID, n)

	case keyboard.ActionExport:
		h.messageSender.AnswerCallback(msg.CallbackID, render.CallbackProcessing)
		return h.export(ctx, msg.ChatID, data.Value)

	default:
		ctxzap.Warn(ctx, "unknown callback action", zap.String("action", data.Action))
		h.messageSender.AnswerCallback(msg.CallbackID, render.ErrInvalidCallback)
		return nil
	}
}

func (h *CallbackHandler) export(ctx context.Context, chatID int64, testID string) error {
	test, ok := h.tests.Get(testID)
	if !ok {
		return h.sendMessage(chatID, render.MsgExportExpired, nil)
	}

	f, err := h.formatters.Create(entity.FormatPDF)
	if err != nil {
		h.HandleError(ctx, chatID, err)
		return nil
	}

	data, err := f.Format(test)
	if err != nil {
		h.HandleError(ctx, chatID, err)
		return nil
	}

	ctxzap.Info(ctx, "test exported", zap.String("test_id", testID), zap.Int("bytes", len(data)))

	return h.messageSender.SendDocument(chatID, formatter.FileName(test, f), data)
}
