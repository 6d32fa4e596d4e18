package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/traffic-law-assistant/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(test *entity.GeneratedTest) ([]byte, error) {
	test = normalized(test)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n_%s_\n\n", baseTitle, summaryLine(test))

	for i, q := range test.Questions {
		fmt.Fprintf(&buf, "## %s\n\n", questionTitle(i, q))
		for j, opt := range q.Options {
			fmt.Fprintf(&buf, "- %s\n", optionLine(j, opt))
		}
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "## %s\n\n", answerKeyTitle)
	for i, q := range test.Questions {
		fmt.Fprintf(&buf, "- %s\n", answerLine(i, q))
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
