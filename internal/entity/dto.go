package entity

type ResultFormat string

const (
	FormatJSON     ResultFormat = "json"
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

// ChatRequest is the body of POST /api/chat.
// MaxArticles is a pointer so an explicit zero can be rejected.
type ChatRequest struct {
	Query       string `json:"query"`
	MaxArticles *int   `json:"max_articles,omitempty"`
}

type SearchRequest struct {
	Query    string `json:"query"`
	NResults *int   `json:"n_results,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type GenerateTestRequest struct {
	NumQuestions *int `json:"num_questions,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
