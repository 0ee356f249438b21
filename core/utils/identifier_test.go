package utils

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Sunset":                   "sunset",
		"Richard & Claude's Song!": "richard-claudes-song",
		"  Road   Trip -- Demo ":   "road-trip-demo",
		"snake_case_title":         "snake-case-title",
		"???":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestGenerateIdentifier(t *testing.T) {
	ctx := context.Background()
	taken := map[string]bool{"sunset": true}
	exists := func(_ context.Context, id string) (bool, error) { return taken[id], nil }

	id, err := GenerateIdentifier(ctx, "Road Trip", exists)
	require.NoError(t, err)
	assert.Equal(t, "road-trip", id)

	id, err = GenerateIdentifier(ctx, "Sunset", exists)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "sunset-"))
	assert.Len(t, id, len("sunset-")+8)

	id, err = GenerateIdentifier(ctx, "!!!", exists)
	require.NoError(t, err)
	assert.Equal(t, "item", id)

	boom := errors.New("db down")
	_, err = GenerateIdentifier(ctx, "x", func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}
