package entity

import "errors"

// Domain errors
var (
	// Index errors
	ErrArticleNotFound     = errors.New("article not found")
	ErrNoArticlesAvailable = errors.New("no articles available in the collection")
	ErrDimensionMismatch   = errors.New("embedding dimension does not match the collection")
	ErrEmptyEmbedding      = errors.New("embedding model returned no vectors")

	// Generation errors
	ErrEmptyCompletion      = errors.New("language model returned an empty completion")
	ErrGenerationTimeout    = errors.New("language model call timed out")
	ErrNoQuestionsGenerated = errors.New("no test questions could be generated")

	// Service errors
	ErrServiceUnavailable = errors.New("assistant service unavailable")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
