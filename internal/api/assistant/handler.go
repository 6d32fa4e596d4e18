package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/pkg/formatter"
	"github.com/futig/traffic-law-assistant/internal/pkg/logger"
	"github.com/futig/traffic-law-assistant/internal/pkg/response"
	"github.com/futig/traffic-law-assistant/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxBodySize = 64 << 10

type Handler struct {
	usecase    AssistantUsecase
	formatters FormatterFactory
	validator  *validator.Validator
}

func NewHandler(
	usecase AssistantUsecase,
	formatters FormatterFactory,
	validator *validator.Validator,
) *Handler {
	return &Handler{
		usecase:    usecase,
		formatters: formatters,
		validator:  validator,
	}
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Health")

	health := h.usecase.Health(ctx)
	if health.Error != "" {
		ctxzap.Warn(ctx, "assistant is degraded", zap.String("reason", health.Error))
	}

	response.Success(w, health)
}

// Chat handles POST /api/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	query, maxArticles, err := h.validator.ValidateChat(&req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "answering chat query",
		zap.Int("query_length", len(query)),
		zap.Int("max_articles", maxArticles),
	)

	resp, err := h.usecase.GenerateChatResponse(ctx, query, maxArticles)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if resp.Error != "" {
		ctxzap.Warn(ctx, "chat answered with an apology", zap.String("reason", resp.Error))
	}

	response.Success(w, resp)
}

// Search handles POST /api/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Search")

	var req entity.SearchRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	query, n, err := h.validator.ValidateSearch(&req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	results, err := h.usecase.SearchSimilar(ctx, query, n)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "search completed", zap.Int("count", len(results)))

	response.Success(w, toSearchResponse(query, results))
}

// GetArticle handles GET /api/articles/{article_id}
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	articleID, err := h.validator.ArticleID(chi.URLParam(r, "article_id"))

	ctx = logger.AddFields(ctx,
		zap.String("article_id", articleID),
		zap.String("action", "GetArticle"),
	)

	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	article, err := h.usecase.GetArticle(ctx, articleID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, article)
}

// SimilarArticles handles GET /api/similar/{article_id}
func (h *Handler) SimilarArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	articleID, err := h.validator.ArticleID(chi.URLParam(r, "article_id"))

	ctx = logger.AddFields(ctx,
		zap.String("article_id", articleID),
		zap.String("action", "SimilarArticles"),
	)

	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	n, err := h.validator.ResultsParam(r.URL.Query().Get("n_results"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	similar, err := h.usecase.SimilarArticles(ctx, articleID, n)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, toSimilarResponse(similar))
}

// Stats handles GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Stats")

	stats, err := h.usecase.CollectionStats(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, stats)
}

// ServiceInfo handles GET /api/rag/info
func (h *Handler) ServiceInfo(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ServiceInfo")

	info, err := h.usecase.ServiceInfo(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, info)
}

// GenerateTest handles POST /api/generate-test
func (h *Handler) GenerateTest(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateTest")

	format, err := validator.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	// An empty body means defaults
	var req *entity.GenerateTestRequest
	var body entity.GenerateTestRequest
	switch err := decodeBody(r, &body); {
	case errors.Is(err, io.EOF):
	case err != nil:
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	default:
		req = &body
	}

	n, err := h.validator.ValidateGenerateTest(req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctx = logger.AddFields(ctx,
		zap.Int("num_questions", n),
		zap.String("format", string(format)),
	)
	ctxzap.Info(ctx, "generating test")

	test, err := h.usecase.GenerateTestDocument(ctx, n)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "test generated",
		zap.String("test_id", test.TestID),
		zap.Int("total_questions", test.TotalQuestions),
	)

	if format == entity.FormatJSON {
		response.Success(w, test)
		return
	}

	f, err := h.formatters.Create(format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	data, err := f.Format(test)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to export test", err)
		return
	}

	response.Attachment(w, f.ContentType(), formatter.FileName(test, f), data)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	return dec.Decode(dst)
}

// Helper methods
func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrServiceUnavailable):
		h.respondError(ctx, w, http.StatusServiceUnavailable, "assistant service is not available", err)
	case errors.Is(err, entity.ErrArticleNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "article not found", err)
	case errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, entity.ErrNoQuestionsGenerated):
		h.respondError(ctx, w, http.StatusInternalServerError,
			"no questions could be generated, the language model did not return parsable questions", err)
	case errors.Is(err, entity.ErrNoArticlesAvailable):
		h.respondError(ctx, w, http.StatusInternalServerError, "the article collection is empty", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
