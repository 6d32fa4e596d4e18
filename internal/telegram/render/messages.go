package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/traffic-law-assistant/internal/entity"
)

// Telegram limits, in characters
const (
	MaxMessageLength   = 4096
	MaxPollQuestion    = 300
	MaxPollOption      = 100
	MaxPollExplanation = 200
	maxSourcePreview   = 160
	ellipsis           = "…"
)

const (
	MsgWelcome = `👋 ¡Hola! Soy tu asistente de la Ley 109, Código de Seguridad Vial.

Puedo:
• Responder preguntas sobre la ley citando los artículos
• Mostrarte un artículo concreto
• Prepararte exámenes de práctica

Escribe tu pregunta o usa /help para ver los comandos.`

	MsgHelp = `🤖 Comandos:

/start - Presentación
/help - Mostrar esta ayuda
/test [n] - Examen de práctica de n preguntas
/article <id> - Mostrar un artículo

También puedes escribir cualquier pregunta sobre la Ley 109.`

	MsgChooseQuestionCount = "📝 ¿Cuántas preguntas quieres en el examen?"
	MsgGeneratingTest      = "⏳ Preparando un examen de %d preguntas. Puede tardar unos minutos..."
	MsgTestIntro           = "📋 Examen de práctica: %d preguntas. ¡Suerte!"
	MsgTestDone            = "✅ Eso es todo. ¿Quieres descargar el examen con las respuestas?"
	MsgExportExpired       = "⌛ Este examen ya no está disponible. Genera uno nuevo con /test."
	MsgArticleUsage        = "Uso: /article <id>, por ejemplo /article 12"
	MsgRateLimited         = "⚠️ Demasiadas solicitudes. Espera un momento antes de continuar."

	ErrGeneric         = "❌ Ocurrió un error. Inténtalo de nuevo más tarde."
	ErrUnknownCommand  = "❌ Comando desconocido. Usa /help"
	ErrUnavailable     = "🛠 El servicio no está disponible en este momento. Inténtalo más tarde."
	ErrArticleNotFound = "🔍 No encontré el artículo %s."
	ErrInvalidCount    = "❌ El número de preguntas debe estar entre 1 y %d."
	ErrNoQuestions     = "😕 No pude generar preguntas esta vez. Inténtalo de nuevo."
	ErrEmptyQuery      = "✏️ Escribe una pregunta sobre la Ley 109."
	ErrInvalidCallback = "❌ Opción no válida"
	ErrInvalidValue    = "❌ Valor no válido. Usa /help para ver el formato de los comandos."
	ErrTimeout         = "⌛ La operación tardó demasiado. Inténtalo de nuevo."
	CallbackProcessing = "⏳ Procesando..."
)

// Truncate cuts s to at most limit characters, marking the cut with an ellipsis
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-utf8.RuneCountInString(ellipsis)]) + ellipsis
}

// ChatAnswer renders an answer followed by its sources
func ChatAnswer(resp entity.RAGResponse) string {
	var b strings.Builder
	b.WriteString(resp.Response)

	if len(resp.Sources) > 0 {
		b.WriteString("\n\n📚 Fuentes:")
		for _, s := range resp.Sources {
			fmt.Fprintf(&b, "\n• Artículo %s (%s, %.2f)", s.ID, relevanceLabel(s.Relevance), s.SimilarityScore)
		}
	}

	return Truncate(b.String(), MaxMessageLength)
}

func relevanceLabel(r entity.Relevance) string {
	switch r {
	case entity.RelevanceHigh:
		return "alta"
	case entity.RelevanceMedium:
		return "media"
	default:
		return "baja"
	}
}

// Article renders a full article
func Article(a *entity.Article) string {
	return Truncate(fmt.Sprintf("📖 Artículo %s\n\n%s", a.ID, a.Content), MaxMessageLength)
}

// PollQuestion renders the numbered question of a quiz poll
func PollQuestion(i int, q entity.TestQuestion) string {
	return Truncate(fmt.Sprintf("%d. %s", i+1, q.Question), MaxPollQuestion)
}

// PollOptions truncates every option to the poll limit
func PollOptions(q entity.TestQuestion) []string {
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		opts[i] = Truncate(o, MaxPollOption)
	}
	return opts
}

// PollExplanation is shown after answering a quiz poll
func PollExplanation(q entity.TestQuestion) string {
	text := fmt.Sprintf("Artículo %s", q.ArticleID)
	if q.ArticleContent != "" {
		text += ": " + Truncate(q.ArticleContent, maxSourcePreview)
	}
	return Truncate(text, MaxPollExplanation)
}
