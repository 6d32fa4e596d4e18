package generation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/usecase/generation"
	"github.com/futig/traffic-law-assistant/internal/usecase/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCompleter struct {
	reply string
	err   error
	block bool
	reqs  []entity.CompletionRequest
}

func (c *recordingCompleter) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	c.reqs = append(c.reqs, req)
	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.reply, c.err
}

func TestGenerator_AnswerMode(t *testing.T) {
	c := &recordingCompleter{reply: "Según el Artículo 3..."}
	g := generation.New(c, "mistral-small-latest", time.Second)

	articles := []entity.Article{{ID: "3", Content: "texto"}}
	text, err := g.Answer(context.Background(), "¿Qué dice?", articles)
	require.NoError(t, err)
	assert.Equal(t, "Según el Artículo 3...", text)

	require.Len(t, c.reqs, 1)
	req := c.reqs[0]
	assert.Equal(t, "mistral-small-latest", req.Model)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, 1000, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, entity.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, prompt.ChatSystemPrompt(), req.Messages[0].Content)
	assert.Equal(t, prompt.ChatUserPrompt("¿Qué dice?", articles), req.Messages[1].Content)
}

func TestGenerator_QuestionMode(t *testing.T) {
	c := &recordingCompleter{reply: "1-¿Pregunta?"}
	g := generation.New(c, "m", time.Second)

	article := entity.Article{ID: "7", Content: "contenido"}
	_, err := g.Question(context.Background(), "", article, 2)
	require.NoError(t, err)

	req := c.reqs[0]
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 800, req.MaxTokens)
	assert.Equal(t, prompt.TestSystemPrompt(prompt.DefaultExampleFormat), req.Messages[0].Content)
	assert.Equal(t, prompt.TestUserPrompt(article, 2), req.Messages[1].Content)
}

func TestGenerator_Timeout(t *testing.T) {
	c := &recordingCompleter{block: true}
	g := generation.New(c, "m", 10*time.Millisecond)

	_, err := g.Answer(context.Background(), "q", nil)
	assert.ErrorIs(t, err, entity.ErrGenerationTimeout)
}

func TestGenerator_CallerCancellationIsNotTimeout(t *testing.T) {
	c := &recordingCompleter{block: true}
	g := generation.New(c, "m", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Answer(ctx, "q", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, entity.ErrGenerationTimeout)
}

func TestGenerator_ErrorsPassThroughWithoutRetry(t *testing.T) {
	boom := errors.New("HTTP 500")
	c := &recordingCompleter{err: boom}
	g := generation.New(c, "m", time.Second)

	_, err := g.Answer(context.Background(), "q", nil)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, c.reqs, 1)
}

func TestGenerator_EmptyReply(t *testing.T) {
	g := generation.New(&recordingCompleter{}, "m", time.Second)

	_, err := g.Question(context.Background(), "", entity.Article{ID: "1", Content: "x"}, 1)
	assert.ErrorIs(t, err, entity.ErrEmptyCompletion)
}
