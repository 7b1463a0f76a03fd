package recipe

import (
	"io"
	"os"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
	"gopkg.in/yaml.v3"
)

type YAMLLoader struct {
	reader io.Reader
}

func NewYAMLLoader(reader io.Reader) *YAMLLoader {
	return &YAMLLoader{
		reader: reader,
	}
}

// Load decodes the recipe, expanding ${VAR} references from the environment first.
func (l *YAMLLoader) Load(validate bool) (*Recipe, error) {
	raw, err := io.ReadAll(l.reader)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(raw))

	var r Recipe
	if err := yaml.Unmarshal([]byte(expanded), &r); err != nil {
		return nil, apperr.NewValidationWrap("invalid recipe", err)
	}
	if validate {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
