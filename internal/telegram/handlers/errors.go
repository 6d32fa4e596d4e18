package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// classifyHandlerError analyzes an error and returns a HandlerError with appropriate severity and messages
func classifyHandlerError(err error) *HandlerError {
	warn := func(user, log string) *HandlerError {
		return &HandlerError{Err: err, UserMessage: user, LogMessage: log, Severity: SeverityWarning}
	}
	fail := func(user, log string) *HandlerError {
		return &HandlerError{Err: err, UserMessage: user, LogMessage: log, Severity: SeverityError}
	}

	switch {
	case errors.Is(err, entity.ErrServiceUnavailable):
		return fail(render.ErrUnavailable, "assistant unavailable")
	case errors.Is(err, entity.ErrArticleNotFound):
		return warn(render.ErrGeneric, "article not found")
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		return warn(render.ErrInvalidValue, "invalid user input")
	case errors.Is(err, entity.ErrNoQuestionsGenerated), errors.Is(err, entity.ErrNoArticlesAvailable):
		return fail(render.ErrNoQuestions, "test generation produced nothing")
	case errors.Is(err, entity.ErrGenerationTimeout), errors.Is(err, context.DeadlineExceeded):
		return fail(render.ErrTimeout, "operation timed out")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fail(render.ErrTimeout, "network timeout")
	}

	return fail(render.ErrGeneric, "handler error")
}

// HandleError logs err with its severity and tells the user what went wrong
func (h *BaseHandler) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err)

	fields := []zap.Field{zap.Error(handlerErr.Err), zap.Int64("chat_id", chatID)}
	if handlerErr.Severity == SeverityWarning {
		ctxzap.Warn(ctx, handlerErr.LogMessage, fields...)
	} else {
		ctxzap.Error(ctx, handlerErr.LogMessage, fields...)
	}

	userMessage := handlerErr.UserMessage
	var notFound articleNotFoundError
	if errors.As(err, &notFound) {
		userMessage = fmt.Sprintf(render.ErrArticleNotFound, notFound.id)
	}

	_ = h.sendMessage(chatID, userMessage, nil)
}

// articleNotFoundError carries the requested id to the user message
type articleNotFoundError struct {
	id  string
	err error
}

func (e articleNotFoundError) Error() string { return e.err.Error() }
func (e articleNotFoundError) Unwrap() error { return e.err }
