// Package credentials stores the session credential used by remote services.
// Only its presence matters to the practice engine.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type record struct {
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// FileStore keeps a bearer token in a yaml file; an environment variable,
// when set, takes precedence over the file.
type FileStore struct {
	path     string
	tokenEnv string
}

func NewFileStore(path, tokenEnv string) *FileStore {
	return &FileStore{path: path, tokenEnv: tokenEnv}
}

func (s *FileStore) Token(_ context.Context) (string, bool) {
	if s.tokenEnv != "" {
		if token := strings.TrimSpace(os.Getenv(s.tokenEnv)); token != "" {
			return token, true
		}
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	rec := record{}
	if err := yaml.Unmarshal(b, &rec); err != nil {
		return "", false
	}
	token := strings.TrimSpace(rec.Token)
	return token, token != ""
}

func (s *FileStore) Authenticated(ctx context.Context) bool {
	_, ok := s.Token(ctx)
	return ok
}

func (s *FileStore) Save(_ context.Context, token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	payload, err := yaml.Marshal(record{Token: token, SavedAt: now})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
