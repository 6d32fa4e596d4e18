package assistant

import "github.com/futig/traffic-law-assistant/internal/entity"

// toSearchResponse keeps results non-nil so an empty hit list encodes as []
func toSearchResponse(query string, results []entity.SearchResult) *entity.SearchResponse {
	if results == nil {
		results = []entity.SearchResult{}
	}
	return &entity.SearchResponse{
		Query:   query,
		Results: results,
	}
}

func toSimilarResponse(s entity.SimilarArticles) entity.SimilarArticles {
	if s.SimilarArticles == nil {
		s.SimilarArticles = []entity.SearchResult{}
	}
	return s
}
