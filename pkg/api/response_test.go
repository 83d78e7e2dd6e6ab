package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/types"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.NewValidationError(types.ErrCodeInvalidInput, "bad", nil), http.StatusBadRequest},
		{types.NewFormatError(types.ErrCodeMalformedBackup, "bad", nil), http.StatusBadRequest},
		{types.NewNotFoundError(types.ErrCodeNotFound, "gone"), http.StatusNotFound},
		{types.NewConflictError(types.ErrCodeInvalidTransition, "no", nil), http.StatusConflict},
		{types.NewAuthenticationError(types.ErrCodeUnauthorized, "who"), http.StatusUnauthorized},
		{types.NewAuthorizationError(types.ErrCodeForbidden, "no"), http.StatusForbidden},
		{types.NewRateLimitedError(types.ErrCodeTooManyAttempts, "wait"), http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, logger.Discard(), types.NewInternalError(types.ErrCodePersistenceFailed, "save failed", errors.New("disk full")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, types.ErrCodePersistenceFailed, body.Code)
	assert.NotContains(t, body.Error, "disk full")
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{not json"))
	err := DecodeJSON(req, &v)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()
	_, ok := ClaimsFrom(ctx)
	assert.False(t, ok)
	assert.Equal(t, "system", ActorID(ctx))

	ctx = WithClaims(ctx, &types.UserClaims{UserID: "u1", Role: types.RoleAdmin})
	claims, ok := ClaimsFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, types.RoleAdmin, claims.Role)
	assert.Equal(t, "u1", ActorID(ctx))
}
