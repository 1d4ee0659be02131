package email

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// TemplateLoader resolves a template name to its raw HTML source.
type TemplateLoader interface {
	Load(ctx context.Context, name string) (string, error)
}

// embeddedLoader serves the templates compiled into the binary.
type embeddedLoader struct{}

// NewEmbeddedLoader creates a loader for the built-in templates.
func NewEmbeddedLoader() TemplateLoader {
	return embeddedLoader{}
}

func (embeddedLoader) Load(_ context.Context, name string) (string, error) {
	data, err := embeddedTemplates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("unknown template %s: %w", name, err)
	}
	return string(data), nil
}

// fileLoader reads templates from a directory, one <name>.html per
// template. Used when operators override the built-in set.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a directory-based template loader.
func NewFileLoader(dir string, logger zerolog.Logger) TemplateLoader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "template-loader").Logger(),
	}
}

func (l *fileLoader) Load(_ context.Context, name string) (string, error) {
	path := filepath.Join(l.dir, name+".html")

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read template file")
		return "", fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	return string(data), nil
}

// fallbackLoader tries a primary loader and falls back when it fails.
// Lets deployments source templates from S3 or a local directory while
// keeping the embedded set as a safety net.
type fallbackLoader struct {
	primary  TemplateLoader
	fallback TemplateLoader
	logger   zerolog.Logger
}

// NewFallbackLoader chains two loaders, preferring the primary.
func NewFallbackLoader(primary, fallback TemplateLoader, logger zerolog.Logger) TemplateLoader {
	return &fallbackLoader{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "template-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, name string) (string, error) {
	raw, err := l.primary.Load(ctx, name)
	if err == nil {
		return raw, nil
	}

	l.logger.Warn().
		Err(err).
		Str("template", name).
		Msg("primary template source failed, using fallback")

	return l.fallback.Load(ctx, name)
}
