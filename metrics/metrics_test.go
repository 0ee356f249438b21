package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"hastingtx/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{model.NewValidation("score", "bad"), "validation"},
		{fmt.Errorf("wrapped: %w", model.NewNotFound("song", 1)), "not_found"},
		{&model.DuplicateError{Entity: "genre"}, "duplicate"},
		{&model.CycleError{GenreID: 1, ParentID: 1}, "cycle"},
		{&model.ConflictError{Message: "x"}, "conflict"},
		{errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestRecordOperationCountsErrorsByKind(t *testing.T) {
	before := testutil.ToFloat64(OperationErrors.WithLabelValues("test_op", "cycle"))
	RecordOperation("test_op", time.Millisecond, nil)
	RecordOperation("test_op", time.Millisecond, &model.CycleError{GenreID: 1, ParentID: 2})
	after := testutil.ToFloat64(OperationErrors.WithLabelValues("test_op", "cycle"))
	assert.Equal(t, before+1, after)
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(RatingCacheLookups.WithLabelValues("hit"))
	RecordCacheLookup(true)
	assert.Equal(t, hits+1, testutil.ToFloat64(RatingCacheLookups.WithLabelValues("hit")))
}
