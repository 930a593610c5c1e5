package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	openaiclient "github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/pkg/apperr"
	jetapi "go.jetify.com/ai/api"
)

func TestMapSDKError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"anthropic overloaded", &anthropicclient.Error{StatusCode: http.StatusServiceUnavailable}, apperr.KindServiceUnavailable},
		{"anthropic bad request", &anthropicclient.Error{StatusCode: http.StatusBadRequest}, apperr.KindAPI},
		{"openai gateway", fmt.Errorf("generate: %w", &openaiclient.Error{StatusCode: http.StatusGatewayTimeout}), apperr.KindServiceUnavailable},
		{"openai rate limit", &openaiclient.Error{StatusCode: http.StatusTooManyRequests}, apperr.KindAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, apperr.KindOf(mapSDKError(tt.err)))
		})
	}

	plain := errors.New("dial failure")
	assert.Same(t, plain, mapSDKError(plain))
}

func TestLanguageModelGenerator_MissingKey(t *testing.T) {
	for _, provider := range []string{config.ProviderOpenAI, config.ProviderAnthropic} {
		g := newLanguageModelGenerator(config.AIConfig{Provider: provider}, nil)
		_, err := g.Generate(context.Background(), "text", "m")
		assert.True(t, apperr.Is(err, apperr.KindConfiguration), provider)
	}
}

func TestExtractText_Empty(t *testing.T) {
	_, err := extractText(nil)
	assert.Equal(t, apperr.CodeInvalidAIResponse, mustAppErr(t, err).Code)

	_, err = extractText(&jetapi.Response{})
	assert.Equal(t, apperr.CodeInvalidAIResponse, mustAppErr(t, err).Code)
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "", normalizeOpenAIBaseURL(""))
	assert.Equal(t, "https://api.example.com/v1", normalizeOpenAIBaseURL("https://api.example.com/"))
	assert.Equal(t, "https://api.example.com/v1", normalizeOpenAIBaseURL("https://api.example.com/v1/"))
}

func mustAppErr(t *testing.T, err error) *apperr.Error {
	t.Helper()
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	return e
}
