package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/entity"
)

// Validator checks request parameters before any work starts
type Validator struct {
	rag  config.RAGConfig
	test config.TestConfig
}

func NewValidator(rag config.RAGConfig, test config.TestConfig) *Validator {
	return &Validator{rag: rag, test: test}
}

// ValidateChat returns the trimmed query and the number of articles to retrieve
func (v *Validator) ValidateChat(req *entity.ChatRequest) (string, int, error) {
	query, err := v.query(req.Query)
	if err != nil {
		return "", 0, err
	}

	n, err := v.bounded("max_articles", req.MaxArticles, v.rag.DefaultArticles, v.rag.MaxArticles)
	if err != nil {
		return "", 0, err
	}

	return query, n, nil
}

// ValidateSearch returns the trimmed query and the number of results
func (v *Validator) ValidateSearch(req *entity.SearchRequest) (string, int, error) {
	query, err := v.query(req.Query)
	if err != nil {
		return "", 0, err
	}

	n, err := v.bounded("n_results", req.NResults, v.rag.DefaultArticles, v.rag.MaxArticles)
	if err != nil {
		return "", 0, err
	}

	return query, n, nil
}

// ValidateGenerateTest returns the number of questions to generate. A nil request uses the default.
func (v *Validator) ValidateGenerateTest(req *entity.GenerateTestRequest) (int, error) {
	var requested *int
	if req != nil {
		requested = req.NumQuestions
	}
	return v.bounded("num_questions", requested, v.test.DefaultQuestions, v.test.MaxQuestions)
}

// QuestionCount parses a free-form question count, as typed after /test
func (v *Validator) QuestionCount(raw string) (int, error) {
	n, err := optionalInt("num_questions", raw)
	if err != nil {
		return 0, err
	}
	return v.bounded("num_questions", n, v.test.DefaultQuestions, v.test.MaxQuestions)
}

// ResultsParam parses the n_results query parameter
func (v *Validator) ResultsParam(raw string) (int, error) {
	n, err := optionalInt("n_results", raw)
	if err != nil {
		return 0, err
	}
	return v.bounded("n_results", n, v.rag.DefaultArticles, v.rag.MaxArticles)
}

// ArticleID normalizes an article id taken from a path or a command argument
func (v *Validator) ArticleID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: article id", entity.ErrMissingField)
	}
	return id, nil
}

// ParseFormat reads the export format. Empty means JSON.
func ParseFormat(raw string) (entity.ResultFormat, error) {
	if raw == "" {
		return entity.FormatJSON, nil
	}

	format := entity.ResultFormat(strings.ToLower(strings.TrimSpace(raw)))
	if !format.IsValid() {
		return "", fmt.Errorf("%w: format must be one of json, markdown, docx, pdf, got %q", entity.ErrInvalidFormat, raw)
	}
	return format, nil
}

func (v *Validator) query(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", fmt.Errorf("%w: query", entity.ErrMissingField)
	}
	return query, nil
}

func (v *Validator) bounded(name string, value *int, def, upper int) (int, error) {
	if value == nil {
		return def, nil
	}
	if *value < 1 || *value > upper {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d, got %d", entity.ErrInvalidParameter, name, upper, *value)
	}
	return *value, nil
}

func optionalInt(name, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", entity.ErrInvalidParameter, name, raw)
	}
	return &n, nil
}
