package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Article is a single article of the traffic-law corpus.
type Article struct {
	ID      string `json:"id"`
	Content string `json:"contenido"`
}

// UnmarshalJSON accepts both numeric and string article ids.
func (a *Article) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      json.RawMessage `json:"id"`
		Content string          `json:"contenido"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := articleIDFromJSON(raw.ID)
	if err != nil {
		return err
	}

	a.ID = id
	a.Content = raw.Content
	return nil
}

func articleIDFromJSON(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: id", ErrMissingField)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: id must be a string or a number", ErrInvalidFormat)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

// SearchResult is one hit of a similarity query.
// SimilarityScore is always derived from Distance.
type SearchResult struct {
	ID              string  `json:"id"`
	Content         string  `json:"contenido"`
	SimilarityScore float64 `json:"similarity_score"`
	Distance        float64 `json:"distance"`
}

// CollectionStats describes the vector collection backing the index.
type CollectionStats struct {
	CollectionName   string `json:"collection_name"`
	TotalDocuments   int    `json:"total_documents"`
	ModelName        string `json:"model_name"`
	PersistDirectory string `json:"persist_directory"`
}

// SimilarArticles lists the neighbours of an indexed article.
type SimilarArticles struct {
	QueryArticle    *Article       `json:"query_article"`
	SimilarArticles []SearchResult `json:"similar_articles"`
}

// IndexReport summarizes a corpus indexing run.
type IndexReport struct {
	Indexed  int  `json:"indexed"`
	Existing int  `json:"existing"`
	Skipped  bool `json:"skipped"`
}

// TestQuestion is a multiple-choice question generated from one article.
type TestQuestion struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswer  int      `json:"correct_answer"`
	ArticleID      string   `json:"article_id"`
	ArticleContent string   `json:"article_content"`
}

// GeneratedTest is a practice test assembled from sampled articles.
type GeneratedTest struct {
	TestID         string         `json:"test_id"`
	TotalQuestions int            `json:"total_questions"`
	Questions      []TestQuestion `json:"questions"`
	GeneratedAt    time.Time      `json:"generated_at"`
	ArticlesUsed   int            `json:"articles_used"`
}
