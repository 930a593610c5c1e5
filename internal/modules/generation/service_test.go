package generation

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/pkg/apperr"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// stubGenerator returns fixed results, optionally blocking until ctx ends.
type stubGenerator struct {
	proposals []Proposal
	err       error
	block     bool
	calls     atomic.Int32
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(ctx context.Context, _, _ string) ([]Proposal, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.proposals, s.err
}

func newTestService(gen Generator, timeout time.Duration) *Service {
	return NewService(gen, "openai/gpt-4o", timeout, nil, zap.NewNop())
}

func TestService_ValidatesTextBeforeCalling(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", " \n\t "},
		{"too long", string(make([]rune, MaxTextLength+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			_, err := newTestService(gen, time.Second).Generate(context.Background(), tt.text, "")
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, 400, apperr.HTTPStatus(err))
			assert.Zero(t, gen.calls.Load())
		})
	}
}

func TestService_AcceptsMaxLengthText(t *testing.T) {
	text := make([]rune, MaxTextLength)
	for i := range text {
		text[i] = 'ż'
	}
	gen := &stubGenerator{proposals: []Proposal{{"Q", "A"}}}
	res, err := newTestService(gen, time.Second).Generate(context.Background(), string(text), "")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", res.Model, "default model applies")
}

func TestService_CapsProposals(t *testing.T) {
	many := make([]Proposal, MaxProposals+5)
	for i := range many {
		many[i] = Proposal{"Q", "A"}
	}
	res, err := newTestService(&stubGenerator{proposals: many}, time.Second).Generate(context.Background(), "text", "custom/model")
	require.NoError(t, err)
	assert.Len(t, res.Proposals, MaxProposals)
	assert.Equal(t, "custom/model", res.Model)
}

func TestService_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	start := time.Now()
	_, err := newTestService(&stubGenerator{block: true}, 50*time.Millisecond).Generate(context.Background(), "text", "")

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.True(t, e.IsTimeout())
	assert.True(t, e.Retryable())
	assert.Equal(t, http.StatusServiceUnavailable, apperr.HTTPStatus(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestService_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"already classified", apperr.API(http.StatusBadRequest, "bad", nil), apperr.KindAPI},
		{"cancelled", context.Canceled, apperr.KindServiceUnavailable},
		{"unknown", errors.New("boom"), apperr.KindAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(&stubGenerator{err: tt.err}, time.Second).Generate(context.Background(), "text", "")
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestService_NetworkFailureIsUnavailable(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, openRouterURL, httpmock.NewErrorResponder(errors.New("dial tcp: connection refused")))
	gen := newOpenRouterGenerator(config.AIConfig{APIKey: "k"}, &http.Client{Transport: transport})

	_, err := newTestService(gen, time.Second).Generate(context.Background(), "text", "")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindServiceUnavailable, e.Kind)
	assert.False(t, e.IsTimeout())
}

func TestService_UnknownErrorMapsTo500(t *testing.T) {
	_, err := newTestService(&stubGenerator{err: errors.New("boom")}, time.Second).Generate(context.Background(), "text", "")
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		cfg  config.AIConfig
		want string
	}{
		{config.AIConfig{Provider: config.ProviderOpenRouter}, config.ProviderOpenRouter},
		{config.AIConfig{Provider: config.ProviderOpenRouter, Mock: true}, config.ProviderMock},
		{config.AIConfig{Provider: config.ProviderMock}, config.ProviderMock},
		{config.AIConfig{Provider: config.ProviderOpenAI}, config.ProviderOpenAI},
		{config.AIConfig{Provider: config.ProviderAnthropic}, config.ProviderAnthropic},
		{config.AIConfig{Provider: config.ProviderGemini}, config.ProviderGemini},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NewGenerator(tt.cfg, nil).Name())
		})
	}
}
