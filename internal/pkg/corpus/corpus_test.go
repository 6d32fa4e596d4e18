package corpus_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/pkg/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_MixedIDTypes(t *testing.T) {
	articles, err := corpus.Decode(strings.NewReader(`[
		{"id": 1, "contenido": "Primer artículo."},
		{"id": "2", "contenido": "Segundo artículo."},
		{"id": " 3a ", "contenido": "Tercero."}
	]`))
	require.NoError(t, err)

	require.Len(t, articles, 3)
	assert.Equal(t, "1", articles[0].ID)
	assert.Equal(t, "2", articles[1].ID)
	assert.Equal(t, "3a", articles[2].ID)
	assert.Equal(t, "Primer artículo.", articles[0].Content)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `{`, entity.ErrInvalidFormat},
		{"missing id", `[{"contenido": "x"}]`, entity.ErrMissingField},
		{"blank content", `[{"id": 1, "contenido": "  "}]`, entity.ErrMissingField},
		{"duplicate id", `[{"id": 1, "contenido": "a"}, {"id": "1", "contenido": "b"}]`, entity.ErrInvalidFormat},
		{"bad id type", `[{"id": true, "contenido": "a"}]`, entity.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := corpus.Decode(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articulos.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 10, "contenido": "Texto."}]`), 0o600))

	articles, err := corpus.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []entity.Article{{ID: "10", Content: "Texto."}}, articles)

	_, err = corpus.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
