package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/foodgram-go/apperror"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *apperror.AppError
		want int
	}{
		{"validation", apperror.NewValidationError("bad", nil), http.StatusBadRequest},
		{"edge conflict", apperror.NewConflictError("dup", nil), http.StatusBadRequest},
		{"account conflict", apperror.NewDuplicateAccountError("dup", nil), http.StatusConflict},
		{"not found", apperror.NewNotFoundError("nope", nil), http.StatusNotFound},
		{"forbidden", apperror.NewUnauthorizedError("no", nil), http.StatusForbidden},
		{"unauthenticated", apperror.NewAuthError("who", nil), http.StatusUnauthorized},
		{"database", apperror.NewDatabaseError("db", nil), http.StatusInternalServerError},
		{"unknown", apperror.NewAppError(apperror.UnknownError, "?", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestCodedErrorsMatchByCode(t *testing.T) {
	sentinel := apperror.Coded(apperror.ConflictError, "already_added", "", "recipe is already added")
	other := apperror.Coded(apperror.ConflictError, "not_added", "", "recipe is not added")

	wrapped := fmt.Errorf("favorite: %w", sentinel)
	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, other)

	// Uncoded errors never match each other by accident.
	assert.False(t, errors.Is(apperror.NewValidationError("a", nil), apperror.NewValidationError("a", nil)))
}

func TestWithFieldDoesNotMutateSentinel(t *testing.T) {
	sentinel := apperror.Coded(apperror.ValidationError, "empty_tags", "tags", "at least one tag is required")
	derived := sentinel.WithField("tags", "second message")

	assert.Len(t, sentinel.Fields["tags"], 1)
	assert.Equal(t, []string{"at least one tag is required", "second message"}, derived.Fields["tags"])
	assert.ErrorIs(t, derived, sentinel)
}

func TestToResponseHidesUnderlyingError(t *testing.T) {
	err := apperror.NewDatabaseError("failed to load recipe", errors.New("pq: connection refused"))
	resp := err.ToResponse()
	assert.Equal(t, "failed to load recipe", resp.Error)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFromErrorFindsWrapped(t *testing.T) {
	inner := apperror.NewNotFoundError("recipe not found", nil)
	ae, ok := apperror.FromError(fmt.Errorf("get: %w", inner))
	require.True(t, ok)
	assert.Same(t, inner, ae)

	_, ok = apperror.FromError(errors.New("plain"))
	assert.False(t, ok)
	assert.True(t, apperror.IsNotFound(inner))
}
