package handlers

import (
	"context"

	"github.com/futig/traffic-law-assistant/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AssistantUsecase is the subset of the assistant used by the bot
type AssistantUsecase interface {
	GenerateChatResponse(ctx context.Context, query string, maxArticles int) (entity.RAGResponse, error)
	GetArticle(ctx context.Context, id string) (*entity.Article, error)
	GenerateTestDocument(ctx context.Context, n int) (*entity.GeneratedTest, error)
}

// Sender is implemented by *tgbotapi.BotAPI
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Validator interface {
	ValidateChat(req *entity.ChatRequest) (string, int, error)
	QuestionCount(raw string) (int, error)
	ArticleID(raw string) (string, error)
}
