package formatter

import (
	"bytes"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(test *entity.GeneratedTest) ([]byte, error) {
	test = normalized(test)

	doc := document.New()
	defer doc.Close()

	heading(doc, "Heading1", baseTitle)
	paragraph(doc, summaryLine(test))
	doc.AddParagraph()

	for i, q := range test.Questions {
		heading(doc, "Heading2", questionTitle(i, q))
		for j, opt := range q.Options {
			paragraph(doc, optionLine(j, opt))
		}
		doc.AddParagraph()
	}

	heading(doc, "Heading2", answerKeyTitle)
	for i, q := range test.Questions {
		paragraph(doc, answerLine(i, q))
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func heading(doc *document.Document, style, text string) {
	par := doc.AddParagraph()
	par.SetStyle(style)
	par.AddRun().AddText(text)
}

func paragraph(doc *document.Document, text string) {
	doc.AddParagraph().AddRun().AddText(text)
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
