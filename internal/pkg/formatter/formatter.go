package formatter

import (
	"fmt"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
)

const (
	baseTitle       = "Examen de práctica - Ley 109"
	answerKeyTitle  = "Respuestas correctas"
	generatedAtFmt  = "02/01/2006 15:04 MST"
	fileNamePattern = "examen-ley109-%s%s"
)

// Formatter renders a generated test into a downloadable document
type Formatter interface {
	Format(test *entity.GeneratedTest) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %s", entity.ErrInvalidFormat, format)
	}
}

// FileName builds the attachment name for a test export
func FileName(test *entity.GeneratedTest, f Formatter) string {
	id := test.TestID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf(fileNamePattern, id, f.FileExtension())
}

func summaryLine(test *entity.GeneratedTest) string {
	return fmt.Sprintf("%d preguntas · generado el %s", test.TotalQuestions, test.GeneratedAt.UTC().Format(generatedAtFmt))
}

func questionTitle(i int, q entity.TestQuestion) string {
	return fmt.Sprintf("%d. %s", i+1, q.Question)
}

func optionLine(j int, option string) string {
	return fmt.Sprintf("%d) %s", j+1, option)
}

func answerLine(i int, q entity.TestQuestion) string {
	return fmt.Sprintf("%d: opción %d (Artículo %s)", i+1, q.CorrectAnswer, q.ArticleID)
}

// zero GeneratedAt renders as now
func normalized(test *entity.GeneratedTest) *entity.GeneratedTest {
	if !test.GeneratedAt.IsZero() {
		return test
	}
	clone := *test
	clone.GeneratedAt = time.Now()
	return &clone
}
