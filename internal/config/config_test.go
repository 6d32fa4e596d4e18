package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseVars(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parseVars(map[string]string{"LLM_TOKEN": "secret"})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, VectorStoreQdrant, cfg.VectorStoreCfg.Backend)
	assert.Equal(t, "articulos_ley_109", cfg.VectorStoreCfg.CollectionName)
	assert.Equal(t, 6334, cfg.QdrantCfg.Port)
	assert.Equal(t, "paraphrase-multilingual", cfg.EmbeddingCfg.Model)
	assert.Equal(t, "mistral-small-latest", cfg.LLMCfg.Model)
	assert.Equal(t, "https://api.mistral.ai", cfg.LLMCfg.Url)
	assert.Equal(t, "secret", cfg.LLMCfg.Token)
	assert.Equal(t, 60*time.Second, cfg.LLMCfg.CallTimeout)
	assert.Equal(t, 5, cfg.RAGCfg.DefaultArticles)
	assert.Equal(t, 20, cfg.TestCfg.DefaultQuestions)
	assert.Equal(t, 50, cfg.TestCfg.MaxQuestions)
	assert.Equal(t, 1, cfg.TestCfg.Concurrency)
	assert.Equal(t, uint(3), cfg.EmbeddingCfg.Retry.Attempts)
}

func TestParse_OverridesAndNormalization(t *testing.T) {
	cfg, err := parseVars(map[string]string{
		"VECTOR_STORE_BACKEND":  " PgVector ",
		"DATABASE_URL":          "postgres://u:p@localhost:5432/law",
		"LLM_PROVIDER":          "OLLAMA",
		"TEST_CONCURRENCY":      "4",
		"EMBEDDING_RETRY_DELAY": "1s",
	})
	require.NoError(t, err)

	assert.Equal(t, VectorStorePgvector, cfg.VectorStoreCfg.Backend)
	assert.Equal(t, LLMProviderOllama, cfg.LLMCfg.Provider)
	assert.Equal(t, 4, cfg.TestCfg.Concurrency)
	assert.Equal(t, time.Second, cfg.EmbeddingCfg.Retry.Delay)
}

func TestParse_MistralWithoutTokenAllowedWithMocks(t *testing.T) {
	_, err := parseVars(map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_TOKEN")

	_, err = parseVars(map[string]string{"ENABLE_MOCKS": "true"})
	assert.NoError(t, err)
}

func TestParse_ValidationCollectsAllErrors(t *testing.T) {
	_, err := parseVars(map[string]string{
		"ENABLE_MOCKS":         "true",
		"VECTOR_STORE_BACKEND": "chroma",
		"TEST_CONCURRENCY":     "0",
		"RAG_DEFAULT_ARTICLES": "30",
	})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "VECTOR_STORE_BACKEND")
	assert.Contains(t, msg, "TEST_CONCURRENCY")
	assert.Contains(t, msg, "RAG_DEFAULT_ARTICLES")
}

func TestParse_PgvectorRequiresDatabaseURL(t *testing.T) {
	_, err := parseVars(map[string]string{
		"ENABLE_MOCKS":         "true",
		"VECTOR_STORE_BACKEND": "pgvector",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.staging", getEnvFile("staging"))
}
