package entity

// Relevance is a coarse bucket derived from a similarity score.
type Relevance string

const (
	RelevanceHigh   Relevance = "High"
	RelevanceMedium Relevance = "Medium"
	RelevanceLow    Relevance = "Low"
)

// RelevanceFor buckets a similarity score. Both thresholds are strict.
func RelevanceFor(score float64) Relevance {
	switch {
	case score > 0.7:
		return RelevanceHigh
	case score > 0.5:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}

type Source struct {
	ID              string    `json:"id"`
	Content         string    `json:"contenido"`
	SimilarityScore float64   `json:"similarity_score"`
	Relevance       Relevance `json:"relevance"`
}

// RAGResponse is the answer to a chat query.
// Error is set only when generation failed.
type RAGResponse struct {
	Query             string   `json:"query"`
	Response          string   `json:"response"`
	Sources           []Source `json:"sources"`
	Confidence        float64  `json:"confidence"`
	ModelUsed         string   `json:"model_used,omitempty"`
	ArticlesConsulted int      `json:"articles_consulted"`
	Error             string   `json:"error,omitempty"`
}

type ServiceInfo struct {
	ServiceType    string   `json:"service_type"`
	LLMProvider    string   `json:"llm_provider"`
	Model          string   `json:"model"`
	EmbeddingModel string   `json:"embedding_model"`
	TotalArticles  int      `json:"total_articles"`
	Capabilities   []string `json:"capabilities"`
}

type Health struct {
	Status        string `json:"status"`
	DatabaseReady bool   `json:"database_ready"`
	TotalArticles int    `json:"total_articles"`
	RAGEnabled    bool   `json:"rag_enabled"`
	LLMProvider   string `json:"llm_provider"`
	Error         string `json:"error,omitempty"`
}
