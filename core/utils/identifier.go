package utils

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s_]+`)
)

// Slugify lower-cases text, drops punctuation and joins words with hyphens.
// "Richard & Claude's Song!" becomes "richard-claudes-song".
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = nonWord.ReplaceAllString(slug, "")
	slug = separators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// GenerateIdentifier returns a URL-safe identifier for text that exists
// reports as unused. On a collision a short random suffix is appended.
func GenerateIdentifier(ctx context.Context, text string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := Slugify(text)
	if base == "" {
		base = "item"
	}

	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check identifier %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:8]
	}
	return "", fmt.Errorf("no free identifier for %q", text)
}
