package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", Truncate("corto", 10))

	got := Truncate("señalización vial", 8)
	assert.Equal(t, 8, utf8.RuneCountInString(got))
	assert.Equal(t, "señaliz…", got)
}

func TestChatAnswer(t *testing.T) {
	resp := entity.RAGResponse{
		Response: "Según el Artículo 12, la velocidad máxima es 50 km/h.",
		Sources: []entity.Source{
			{ID: "12", SimilarityScore: 0.834, Relevance: entity.RelevanceHigh},
			{ID: "7", SimilarityScore: 0.41, Relevance: entity.RelevanceLow},
		},
	}

	text := ChatAnswer(resp)
	assert.True(t, strings.HasPrefix(text, resp.Response))
	assert.Contains(t, text, "• Artículo 12 (alta, 0.83)")
	assert.Contains(t, text, "• Artículo 7 (baja, 0.41)")

	noSources := ChatAnswer(entity.RAGResponse{Response: "Lo siento"})
	assert.Equal(t, "Lo siento", noSources)
}

func TestChatAnswer_FitsMessageLimit(t *testing.T) {
	text := ChatAnswer(entity.RAGResponse{Response: strings.Repeat("á", MaxMessageLength+50)})
	assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(text))
}

func TestPollRendering(t *testing.T) {
	q := entity.TestQuestion{
		Question:       strings.Repeat("¿", 400),
		Options:        []string{"corta", strings.Repeat("x", 150)},
		ArticleID:      "40",
		ArticleContent: strings.Repeat("contenido ", 50),
	}

	assert.Equal(t, MaxPollQuestion, utf8.RuneCountInString(PollQuestion(0, q)))
	assert.True(t, strings.HasPrefix(PollQuestion(2, q), "3. "))

	opts := PollOptions(q)
	assert.Equal(t, "corta", opts[0])
	assert.Equal(t, MaxPollOption, utf8.RuneCountInString(opts[1]))

	expl := PollExplanation(q)
	assert.True(t, strings.HasPrefix(expl, "Artículo 40: "))
	assert.LessOrEqual(t, utf8.RuneCountInString(expl), MaxPollExplanation)
}
