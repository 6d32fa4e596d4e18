// Package generation wraps single chat-completion calls with the decoding
// settings of each pipeline mode.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/usecase/prompt"
)

// Decoding settings per mode
const (
	AnswerTemperature   = 0.3
	AnswerMaxTokens     = 1000
	QuestionTemperature = 0.7
	QuestionMaxTokens   = 800
)

// Completer performs one chat completion
type Completer interface {
	Complete(ctx context.Context, req entity.CompletionRequest) (string, error)
}

type Generator struct {
	completer Completer
	model     string
	timeout   time.Duration
}

func New(completer Completer, model string, timeout time.Duration) *Generator {
	return &Generator{
		completer: completer,
		model:     model,
		timeout:   timeout,
	}
}

func (g *Generator) Model() string {
	return g.model
}

// Answer asks the model for a grounded answer to query using articles as context
func (g *Generator) Answer(ctx context.Context, query string, articles []entity.Article) (string, error) {
	return g.complete(ctx, entity.CompletionRequest{
		Model: g.model,
		Messages: []entity.ChatMessage{
			{Role: entity.RoleSystem, Content: prompt.ChatSystemPrompt()},
			{Role: entity.RoleUser, Content: prompt.ChatUserPrompt(query, articles)},
		},
		Temperature: AnswerTemperature,
		MaxTokens:   AnswerMaxTokens,
	})
}

// Question asks the model for one multiple-choice question about article.
// index is the 1-based position of the question in the test.
func (g *Generator) Question(ctx context.Context, example string, article entity.Article, index int) (string, error) {
	return g.complete(ctx, entity.CompletionRequest{
		Model: g.model,
		Messages: []entity.ChatMessage{
			{Role: entity.RoleSystem, Content: prompt.TestSystemPrompt(example)},
			{Role: entity.RoleUser, Content: prompt.TestUserPrompt(article, index)},
		},
		Temperature: QuestionTemperature,
		MaxTokens:   QuestionMaxTokens,
	})
}

func (g *Generator) complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.completer.Complete(callCtx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", entity.ErrGenerationTimeout, g.timeout, err)
		}
		return "", err
	}

	if text == "" {
		return "", entity.ErrEmptyCompletion
	}

	return text, nil
}
