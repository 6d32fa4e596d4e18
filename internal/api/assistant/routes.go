package assistant

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers assistant routes under /api
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/chat", h.Chat)
		r.Post("/search", h.Search)
		r.Get("/articles/{article_id}", h.GetArticle)
		r.Get("/similar/{article_id}", h.SimilarArticles)
		r.Get("/stats", h.Stats)
		r.Get("/rag/info", h.ServiceInfo)
		r.Post("/generate-test", h.GenerateTest)
	})
}
