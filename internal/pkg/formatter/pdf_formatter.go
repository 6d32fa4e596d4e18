package formatter

import (
	"bytes"
	"os"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	// In Docker runtime fonts are copied to /app/ttf
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

// resolveFontPath looks for DejaVuSans next to the binary, then in the source tree
func resolveFontPath() string {
	for _, p := range []string{pdfFontRuntimePath, pdfFontSourcePath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (mf *PDFFormatter) Format(test *entity.GeneratedTest) ([]byte, error) {
	test = normalized(test)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	fontName := "Arial"
	// Core fonts are cp1252, which still covers Spanish accents
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
		tr = func(s string) string { return s }
	}

	pdf.SetFont(fontName, "B", 18)
	pdf.Cell(0, 10, tr(baseTitle))
	pdf.Ln(10)

	pdf.SetFont(fontName, "", 10)
	pdf.Cell(0, 6, tr(summaryLine(test)))
	pdf.Ln(10)

	for i, q := range test.Questions {
		pdf.SetFont(fontName, "B", 12)
		pdf.MultiCell(0, 6, tr(questionTitle(i, q)), "", "", false)

		pdf.SetFont(fontName, "", 11)
		for j, opt := range q.Options {
			pdf.MultiCell(0, 6, tr("    "+optionLine(j, opt)), "", "", false)
		}
		pdf.Ln(4)
	}

	pdf.AddPage()
	pdf.SetFont(fontName, "B", 14)
	pdf.Cell(0, 8, tr(answerKeyTitle))
	pdf.Ln(10)

	pdf.SetFont(fontName, "", 11)
	for i, q := range test.Questions {
		pdf.MultiCell(0, 6, tr(answerLine(i, q)), "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
