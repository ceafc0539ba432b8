// Package quizzes holds the bundled quiz content and its YAML format.
package quizzes

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"spurs-trivia-service/internal/domain"
)

//go:embed *.yaml
var bundled embed.FS

type file struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// Decode parses a quiz file. Content is not validated here.
func Decode(data []byte) ([]domain.Quiz, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode quiz file: %w", err)
	}
	return f.Quizzes, nil
}

// Bundled returns every quiz shipped with the service, keyed by ID.
func Bundled() (map[string]domain.Quiz, error) {
	names, err := fs.Glob(bundled, "*.yaml")
	if err != nil {
		return nil, err
	}
	all := make(map[string]domain.Quiz)
	for _, name := range names {
		data, err := bundled.ReadFile(name)
		if err != nil {
			return nil, err
		}
		decoded, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, q := range decoded {
			all[q.ID] = q
		}
	}
	return all, nil
}
