package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosdk/internal/pkg/auth/jwt"
)

func TestNewError(t *testing.T) {
	t.Run("known code keeps status", func(t *testing.T) {
		err := NewError(ErrRateLimitExceeded)
		assert.Equal(t, ErrRateLimitExceeded, err.Code)
		assert.Equal(t, http.StatusTooManyRequests, err.Status)
	})

	t.Run("missing status defaults to 200", func(t *testing.T) {
		err := NewError(ErrStatusMessageInvalid)
		assert.Equal(t, http.StatusOK, err.Status)
	})

	t.Run("unknown code falls back", func(t *testing.T) {
		err := NewError(424242)
		assert.Equal(t, ErrUnknown, err.Code)
		assert.Equal(t, http.StatusInternalServerError, err.Status)
	})

	t.Run("details fill template", func(t *testing.T) {
		err := NewError(ErrTokenRequestInvalid, "session name must not be empty")
		assert.Equal(t, "Invalid token request: session name must not be empty.", err.Message)
	})

	t.Run("template is not mutated", func(t *testing.T) {
		_ = NewError(ErrTokenRequestInvalid, "x")
		assert.Equal(t, "Invalid token request: %s.", errorMap[ErrTokenRequestInvalid].Message)
	})
}

func TestFromIssuance(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"configuration", &jwt.ConfigurationError{Field: "app secret"}, ErrIssuerMisconfigured},
		{"validation", &jwt.ValidationError{Field: "session name", Reason: "must not be empty"}, ErrTokenRequestInvalid},
		{"signing", &jwt.SigningError{Err: errors.New("boom")}, ErrTokenSigningFailed},
		{"wrapped validation", fmt.Errorf("issue: %w", &jwt.ValidationError{Field: "role", Reason: "bad"}), ErrTokenRequestInvalid},
		{"expired", jwt.ErrTokenExpired, ErrUnauthorized},
		{"bad signature", jwt.ErrInvalidSignature, ErrUnauthorized},
		{"foreign app key", jwt.ErrForeignAppKey, ErrUnauthorized},
		{"other", errors.New("disk on fire"), ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromIssuance(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
		})
	}

	assert.Nil(t, FromIssuance(nil))
}
