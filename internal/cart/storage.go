package cart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"meta-checkout/internal/model"

	"github.com/rs/zerolog"
)

// Storage persists a cart between sessions, keyed per locale.
type Storage interface {
	// Load returns the stored entries for a locale, or nil when nothing
	// usable is stored. Malformed stored data is discarded, not an error.
	Load(locale string) ([]model.CartEntry, error)

	// Save replaces the stored entries for a locale.
	Save(locale string, entries []model.CartEntry) error
}

// fileStorage implements Storage on top of per-locale JSON files.
type fileStorage struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStorage creates a file-backed cart storage rooted at dir.
func NewFileStorage(dir string, logger zerolog.Logger) (Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart storage dir %s: %w", dir, err)
	}
	return &fileStorage{
		dir:    dir,
		logger: logger.With().Str("component", "cart-storage").Logger(),
	}, nil
}

func (s *fileStorage) path(locale string) string {
	return filepath.Join(s.dir, fmt.Sprintf("pricing-cart-%s.json", locale))
}

// Load reads the stored cart for a locale. Corrupt files are discarded
// silently so a bad persisted state can never break checkout.
func (s *fileStorage) Load(locale string) ([]model.CartEntry, error) {
	data, err := os.ReadFile(s.path(locale))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}

	var entries []model.CartEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn().
			Str("locale", locale).
			Err(err).
			Msg("discarding malformed stored cart")
		return nil, nil
	}

	return entries, nil
}

// Save writes the cart for a locale.
func (s *fileStorage) Save(locale string, entries []model.CartEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := os.WriteFile(s.path(locale), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cart file: %w", err)
	}
	return nil
}
