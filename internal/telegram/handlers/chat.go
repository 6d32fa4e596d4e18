package handlers

import (
	"context"
	"errors"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ChatHandler answers free text with the RAG pipeline
type ChatHandler struct {
	BaseHandler
	bot       Sender
	usecase   AssistantUsecase
	validator Validator
	logger    *zap.Logger
}

func NewChatHandler(bot Sender, sender *MessageSender, usecase AssistantUsecase, validator Validator, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: BaseHandler{route: RouteText, messageSender: sender},
		bot:         bot,
		usecase:     usecase,
		validator:   validator,
		logger:      logger,
	}
}

func (h *ChatHandler) Handle(ctx context.Context, msg *Message) error {
	query, maxArticles, err := h.validator.ValidateChat(&entity.ChatRequest{Query: msg.Text})
	if errors.Is(err, entity.ErrMissingField) {
		return h.sendMessage(msg.ChatID, render.ErrEmptyQuery, nil)
	}
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	typing := NewTypingNotifier(h.bot, msg.ChatID, tgbotapi.ChatTyping, h.logger)
	typing.Start(ctx)
	defer typing.Stop()

	resp, err := h.usecase.GenerateChatResponse(ctx, query, maxArticles)
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	ctxzap.Info(ctx, "chat answered",
		zap.Int("articles_consulted", resp.ArticlesConsulted),
		zap.Float64("confidence", resp.Confidence),
		zap.Bool("failed", resp.Error != ""),
	)

	return h.sendMessage(msg.ChatID, render.ChatAnswer(resp), nil)
}
