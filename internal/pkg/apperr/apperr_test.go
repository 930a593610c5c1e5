package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_ClassifiesGatewayStatuses(t *testing.T) {
	tests := []struct {
		status    int
		wantKind  Kind
		retryable bool
		httpCode  int
	}{
		{http.StatusBadGateway, KindServiceUnavailable, true, http.StatusServiceUnavailable},
		{http.StatusServiceUnavailable, KindServiceUnavailable, true, http.StatusServiceUnavailable},
		{http.StatusGatewayTimeout, KindServiceUnavailable, true, http.StatusServiceUnavailable},
		{http.StatusInternalServerError, KindAPI, true, http.StatusServiceUnavailable},
		{http.StatusBadRequest, KindAPI, false, http.StatusInternalServerError},
		{http.StatusUnauthorized, KindAPI, false, http.StatusInternalServerError},
		{http.StatusTooManyRequests, KindAPI, false, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := API(tt.status, "upstream failed", map[string]any{"raw": "x"})
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.retryable, err.Retryable())
			assert.Equal(t, tt.httpCode, HTTPStatus(err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("", "text cannot be empty", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Validation(CodeInvalidAIJSON, "bad json", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Validation(CodeInvalidAIResponse, "bad shape", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Configuration("missing key")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Timeout("timed out")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestAs_ThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("generate: %w", Unavailable("failed to connect", cause))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindServiceUnavailable, e.Kind)
	assert.False(t, e.IsTimeout())
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, Is(wrapped, KindServiceUnavailable))
	assert.Equal(t, Kind(""), KindOf(cause))
}

func TestTimeout_IsDistinguishable(t *testing.T) {
	e := Timeout("request timed out after 30 seconds")
	assert.True(t, e.IsTimeout())
	assert.True(t, e.Retryable())
	assert.Equal(t, "ServiceUnavailableError", e.TypeName())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "ConfigurationError", Configuration("x").TypeName())
	assert.Equal(t, "ValidationError", Validation("", "x", nil).TypeName())
	assert.Equal(t, "ApiError", API(http.StatusBadRequest, "x", nil).TypeName())
	assert.False(t, Configuration("x").Retryable())
	assert.False(t, Validation("", "x", nil).Retryable())
}
