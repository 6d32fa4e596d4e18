package handlers

import (
	"context"
	"errors"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/telegram/render"
)

// ArticleHandler serves /article <id>
type ArticleHandler struct {
	BaseHandler
	usecase   AssistantUsecase
	validator Validator
}

func NewArticleHandler(sender *MessageSender, usecase AssistantUsecase, validator Validator) *ArticleHandler {
	return &ArticleHandler{
		BaseHandler: BaseHandler{route: RouteArticle, messageSender: sender},
		usecase:     usecase,
		validator:   validator,
	}
}

func (h *ArticleHandler) Handle(ctx context.Context, msg *Message) error {
	id, err := h.validator.ArticleID(msg.Args)
	if err != nil {
		return h.sendMessage(msg.ChatID, render.MsgArticleUsage, nil)
	}

	article, err := h.usecase.GetArticle(ctx, id)
	if errors.Is(err, entity.ErrArticleNotFound) {
		err = articleNotFoundError{id: id, err: err}
	}
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	return h.sendMessage(msg.ChatID, render.Article(article), nil)
}
