package email

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var (
	eachBlockPattern   = regexp.MustCompile(`(?s)\{\{#each\s+([A-Za-z_][A-Za-z0-9_]*)\}\}(.*?)\{\{/each\}\}`)
	placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)
)

// Renderer renders named templates with {{key}} substitution and
// {{#each key}}...{{/each}} repetition over list values. Scalar values
// are HTML-escaped; unknown keys render empty.
type Renderer struct {
	loader TemplateLoader
	logger zerolog.Logger
}

// NewRenderer creates a renderer reading templates through the given
// loader.
func NewRenderer(loader TemplateLoader, logger zerolog.Logger) *Renderer {
	return &Renderer{
		loader: loader,
		logger: logger.With().Str("component", "email-renderer").Logger(),
	}
}

// Render loads the named template and substitutes the given data.
// List values under a key drive the matching {{#each key}} block, with
// each element's fields available as placeholders inside the block.
func (r *Renderer) Render(ctx context.Context, name string, data map[string]any) (string, error) {
	raw, err := r.loader.Load(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", name, err)
	}

	out := eachBlockPattern.ReplaceAllStringFunc(raw, func(block string) string {
		match := eachBlockPattern.FindStringSubmatch(block)
		key, body := match[1], match[2]

		items, ok := data[key].([]map[string]string)
		if !ok {
			return ""
		}

		var sb strings.Builder
		for _, item := range items {
			sb.WriteString(substitute(body, item))
		}
		return sb.String()
	})

	scalars := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			scalars[key] = v
		case []map[string]string:
			// consumed by the each block above
		default:
			scalars[key] = fmt.Sprint(v)
		}
	}

	return substitute(out, scalars), nil
}

func substitute(text string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(placeholder string) string {
		key := placeholderPattern.FindStringSubmatch(placeholder)[1]
		value, ok := values[key]
		if !ok {
			return ""
		}
		return html.EscapeString(value)
	})
}
