// Package corpus loads the article collection from its JSON source file.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/futig/traffic-law-assistant/internal/entity"
)

// LoadFile reads a JSON array of {"id": ..., "contenido": ...} objects.
func LoadFile(path string) ([]entity.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	articles, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return articles, nil
}

// Decode parses the corpus and rejects blank content and duplicate ids.
func Decode(r io.Reader) ([]entity.Article, error) {
	var articles []entity.Article
	if err := json.NewDecoder(r).Decode(&articles); err != nil {
		return nil, fmt.Errorf("%w: decode articles: %v", entity.ErrInvalidFormat, err)
	}

	seen := make(map[string]struct{}, len(articles))
	for i, a := range articles {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: id of article #%d", entity.ErrMissingField, i)
		}
		if strings.TrimSpace(a.Content) == "" {
			return nil, fmt.Errorf("%w: contenido of article %s", entity.ErrMissingField, a.ID)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate article id %s", entity.ErrInvalidFormat, a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	return articles, nil
}
