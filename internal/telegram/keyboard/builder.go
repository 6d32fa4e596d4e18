package keyboard

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// QuestionCounts are offered when /test is sent without a count
var QuestionCounts = []int{5, 10, 20}

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// QuestionCountKeyboard offers the preset test sizes
func (b *Builder) QuestionCountKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(QuestionCounts))
	for _, n := range QuestionCounts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("📝 %d preguntas", n),
			TestCallback(n),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// ExportKeyboard offers the PDF export of a delivered test
func (b *Builder) ExportKeyboard(testID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 Descargar PDF", ExportCallback(testID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Otro examen", TestCallback(QuestionCounts[1])),
		),
	)
}
