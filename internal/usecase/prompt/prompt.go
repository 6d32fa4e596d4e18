// Package prompt builds the instructions sent to the language model.
// All builders are deterministic: the same input always yields the same text.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/futig/traffic-law-assistant/internal/entity"
)

const chatSystemPrompt = `Eres un asistente especializado en la Ley 109 - Código de Seguridad Vial de Cuba.

Tu función es ayudar a los usuarios respondiendo preguntas sobre esta legislación de tránsito de manera clara, precisa y útil.

INSTRUCCIONES IMPORTANTES:
1. Responde ÚNICAMENTE basándote en los artículos proporcionados como contexto
2. Si la información no está en los artículos proporcionados, indícalo claramente
3. Cita siempre el número de los artículos en los que se basa tu respuesta
4. Responde siempre en español
5. Usa un lenguaje profesional pero accesible
6. Estructura tu respuesta de manera organizada
7. Si hay múltiples artículos relevantes, organiza la información lógicamente

FORMATO DE RESPUESTA:
- Responde en texto plano sin usar formato Markdown
- NO uses asteriscos (*), guiones bajos (_) ni otros símbolos de formato
- Comienza con una respuesta directa a la pregunta
- Luego explica de manera natural y detallada
- Incluye los detalles específicos de los artículos
- Si es necesario, proporciona contexto adicional

Recuerda: Tu objetivo es ser un consultor legal confiable y preciso para temas de tránsito en Cuba.`

const testSystemPromptTemplate = `Eres un experto en crear preguntas de examen de tránsito basadas en la Ley 109 - Código de Seguridad Vial de Cuba.

INSTRUCCIONES CRÍTICAS:
1. Para cada artículo proporcionado, crea UNA pregunta de opción múltiple
2. La pregunta debe ser clara, específica y basada directamente en el contenido del artículo
3. Proporciona exactamente 3 opciones de respuesta numeradas (1, 2, 3)
4. Una opción debe ser la correcta y las otras dos deben ser plausibles pero incorrectas
5. DEBES seguir EXACTAMENTE el formato mostrado en los ejemplos
6. NO agregues texto adicional, explicaciones o comentarios
7. SIEMPRE incluye la línea RESPUESTA_CORRECTA: después de cada pregunta

FORMATO OBLIGATORIO (copia este formato exactamente):
1-[PREGUNTA]
1-[OPCIÓN 1]
2-[OPCIÓN 2]
3-[OPCIÓN 3]
RESPUESTA_CORRECTA:1

2-[PREGUNTA]
1-[OPCIÓN 1]
2-[OPCIÓN 2]
3-[OPCIÓN 3]
RESPUESTA_CORRECTA:2

EJEMPLOS DE REFERENCIA (usa este estilo exacto):
%s

IMPORTANTE: Responde ÚNICAMENTE con las preguntas en el formato mostrado, sin texto adicional. Usa el estilo y formato de los ejemplos proporcionados.`

// DefaultExampleFormat is used when the exemplar file cannot be read.
const DefaultExampleFormat = `1-A que distancia de la línea férrea el conductor está obligado a detener la marcha.
1-A menos de 10 metros.
2-En la vertical correspondiente.
3-A no menos de 3 metros de la primera línea.

2-¿Cuál es la distancia que debe existir entre dos vehículos en marcha?
1-Mantener 5 metros por cada 15 km/hora.
2-Mantener 2 metros por cada 10 km/hora.
3-Mantener 6 metros por cada 20 km/hora.`

// ChatSystemPrompt returns the instruction for grounded answers.
func ChatSystemPrompt() string {
	return chatSystemPrompt
}

// ChatUserPrompt labels every article and appends the user's question.
func ChatUserPrompt(query string, articles []entity.Article) string {
	var b strings.Builder
	b.WriteString("CONTEXTO (Artículos de la Ley 109):\n")
	b.WriteString(ArticleBlocks(articles))
	b.WriteString("\n\nPREGUNTA DEL USUARIO:\n")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\n\nPor favor, responde basándote únicamente en los artículos proporcionados arriba.")
	return b.String()
}

// ArticleBlocks renders "Artículo <id>: <content>" blocks separated by blank lines.
func ArticleBlocks(articles []entity.Article) string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, fmt.Sprintf("Artículo %s: %s", a.ID, strings.TrimSpace(a.Content)))
	}
	return strings.Join(blocks, "\n\n")
}

// TestSystemPrompt returns the question-generation instruction with the given style exemplar.
func TestSystemPrompt(example string) string {
	example = strings.TrimSpace(example)
	if example == "" {
		example = DefaultExampleFormat
	}
	return fmt.Sprintf(testSystemPromptTemplate, example)
}

// TestUserPrompt asks for exactly one question about a single article.
// index is the 1-based position of the question in the test.
func TestUserPrompt(article entity.Article, index int) string {
	return fmt.Sprintf(`Basándote en el siguiente artículo de la Ley 109, genera UNA pregunta de examen siguiendo exactamente el formato de los ejemplos:

ARTÍCULO %s:
%s

Genera la pregunta número %d siguiendo exactamente el formato mostrado en los ejemplos. La pregunta debe ser sobre el contenido específico de este artículo.`,
		article.ID, strings.TrimSpace(article.Content), index)
}

// LoadExampleFormat reads the style exemplar from path and falls back to
// DefaultExampleFormat when the file cannot be read or is blank.
// fromFile reports which one was used.
func LoadExampleFormat(path string) (example string, fromFile bool) {
	if path == "" {
		return DefaultExampleFormat, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultExampleFormat, false
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return DefaultExampleFormat, false
	}

	return text, true
}
