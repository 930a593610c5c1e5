package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/pkg/apperr"
	"github.com/tenx-cards/core/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Text validation messages, also used as field error details.
const (
	msgTextEmpty   = "Text cannot be empty"
	msgTextTooLong = "Text cannot exceed 10,000 characters"
)

// NewGenerator selects the generator for cfg. client may be nil.
func NewGenerator(cfg config.AIConfig, client *http.Client) Generator {
	if cfg.UseMock() {
		return newMockGenerator(time.Duration(cfg.MockDelayMs) * time.Millisecond)
	}
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderAnthropic:
		return newLanguageModelGenerator(cfg, client)
	case config.ProviderGemini:
		return newGeminiGenerator(cfg, client)
	}
	return newOpenRouterGenerator(cfg, client)
}

// Service is the generation gateway: it validates input, bounds the model call
// with a deadline and normalizes every failure into the apperr taxonomy.
type Service struct {
	gen          Generator
	defaultModel string
	timeout      time.Duration
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewService(gen Generator, defaultModel string, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gen: gen, defaultModel: defaultModel, timeout: timeout, metrics: m, log: log}
}

// DefaultModel is used when a request names no model.
func (s *Service) DefaultModel() string { return s.defaultModel }

// ResolveModel returns model, or the default when it is blank.
func (s *Service) ResolveModel(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return s.defaultModel
}

// ValidateText checks the source text before any network call.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation(apperr.CodeValidation, msgTextEmpty,
			map[string][]string{"text": {msgTextEmpty}})
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return apperr.Validation(apperr.CodeValidation, msgTextTooLong,
			map[string][]string{"text": {msgTextTooLong}})
	}
	return nil
}

// Generate returns proposals for text. Failures are *apperr.Error values:
// input problems are validation errors, an expired deadline is a timeout,
// transport failures and 502/503/504 are service unavailable.
func (s *Service) Generate(ctx context.Context, text, model string) (*Result, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	model = s.ResolveModel(model)

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	proposals, err := s.gen.Generate(callCtx, text, model)
	elapsed := time.Since(start)
	if err != nil {
		err = s.classify(callCtx, err)
		s.metrics.RecordGeneration(s.gen.Name(), outcomeLabel(err), elapsed.Seconds(), 0)
		s.log.Warn("flashcard generation failed",
			zap.String("provider", s.gen.Name()),
			zap.String("model", model),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	if len(proposals) > MaxProposals {
		proposals = proposals[:MaxProposals]
	}
	s.metrics.RecordGeneration(s.gen.Name(), "success", elapsed.Seconds(), len(proposals))
	s.log.Debug("flashcards generated",
		zap.String("provider", s.gen.Name()),
		zap.String("model", model),
		zap.Int("count", len(proposals)),
		zap.Duration("duration", elapsed),
	)
	return &Result{Proposals: proposals, Model: model, Duration: elapsed}, nil
}

func (s *Service) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Timeout(fmt.Sprintf("Request to AI service timed out after %s", s.timeout))
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return apperr.Unavailable("Request to AI service was cancelled", err)
	}

	var urlErr *neturl.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return apperr.Unavailable("Failed to connect to AI service", err)
	}
	return apperr.API(0, "Unexpected error during AI generation: "+err.Error(), nil)
}

func outcomeLabel(err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return "error"
	}
	if e.IsTimeout() {
		return "timeout"
	}
	return string(e.Kind)
}
