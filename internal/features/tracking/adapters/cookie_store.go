package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

// FileCookieStore persists the cookie jar as pretty-printed JSON on disk,
// surviving process restarts. Implements ports.CookieStore.
type FileCookieStore struct {
	path string
}

// NewFileCookieStore creates a store writing to path.
func NewFileCookieStore(path string) *FileCookieStore {
	return &FileCookieStore{path: path}
}

// Load reads the persisted jar. A missing file is an empty jar, not an
// error; a corrupt file is reported so the caller can decide to start cold.
func (s *FileCookieStore) Load() ([]domain.Cookie, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cookie jar: %w", err)
	}

	var cookies []domain.Cookie
	if err := json.Unmarshal(raw, &cookies); err != nil {
		return nil, fmt.Errorf("failed to decode cookie jar: %w", err)
	}
	return cookies, nil
}

// Save overwrites the persisted jar.
func (s *FileCookieStore) Save(cookies []domain.Cookie) error {
	raw, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookie jar: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write cookie jar: %w", err)
	}
	return nil
}
