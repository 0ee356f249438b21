package validate

import (
	"errors"
	"testing"

	"hastingtx/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vote struct {
	Score  int    `json:"score" validate:"min=1,max=10"`
	Origin string `json:"origin" validate:"required"`
}

type listing struct {
	Order string `json:"sortOrder" validate:"sortorder"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantMsg   string
	}{
		{"valid", &vote{Score: 10, Origin: "::1"}, "", ""},
		{"score too low", &vote{Score: 0, Origin: "::1"}, "score", "must be at least 1"},
		{"score too high", &vote{Score: 11, Origin: "::1"}, "score", "must be at most 10"},
		{"missing origin", &vote{Score: 3}, "origin", "is required"},
		{"bad sort order", &listing{Order: "random"}, "sortOrder", "must be one of: manual, title, album"},
		{"good sort order", &listing{Order: "album"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)

			var ve *model.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}
