package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/pkg/apperr"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

const maxOutputTokens = 4096

// languageModelGenerator serves the openai and anthropic providers through
// the provider-agnostic jetify client.
type languageModelGenerator struct {
	provider string
	apiKey   string
	endpoint string
	client   *http.Client
}

func newLanguageModelGenerator(cfg config.AIConfig, client *http.Client) *languageModelGenerator {
	return &languageModelGenerator{
		provider: cfg.Provider,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: strings.TrimSpace(cfg.Endpoint),
		client:   client,
	}
}

func (g *languageModelGenerator) Name() string { return g.provider }

func (g *languageModelGenerator) Generate(ctx context.Context, text, model string) ([]Proposal, error) {
	if g.apiKey == "" {
		return nil, apperr.Configuration(fmt.Sprintf("%s API key is not configured", g.provider))
	}

	resp, err := jetai.GenerateText(
		ctx,
		buildPromptMessages(systemPrompt, buildUserPrompt(text)),
		jetai.WithModel(g.buildLanguageModel(model)),
		jetai.WithMaxOutputTokens(maxOutputTokens),
	)
	if err != nil {
		return nil, mapSDKError(err)
	}

	content, err := extractText(resp)
	if err != nil {
		return nil, err
	}
	return ParseProposals(content)
}

// buildLanguageModel accepts OpenRouter style ids ("openai/gpt-4o") by
// dropping the provider prefix.
func (g *languageModelGenerator) buildLanguageModel(model string) jetapi.LanguageModel {
	modelID := strings.TrimPrefix(strings.TrimSpace(model), g.provider+"/")

	if g.provider == config.ProviderAnthropic {
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(g.apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if g.endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(g.endpoint, "/")))
		}
		if g.client != nil {
			opts = append(opts, anthropicoption.WithHTTPClient(g.client))
		}
		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client))
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(g.apiKey),
		openaioption.WithMaxRetries(0),
	}
	if normalized := normalizeOpenAIBaseURL(g.endpoint); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	if g.client != nil {
		opts = append(opts, openaioption.WithHTTPClient(g.client))
	}
	client := openaiclient.NewClient(opts...)
	return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client))
}

// mapSDKError classifies SDK status errors. Other errors are returned as is
// for the service to classify.
func mapSDKError(err error) error {
	var anthropicErr *anthropicclient.Error
	if errors.As(err, &anthropicErr) {
		return statusError(anthropicErr.StatusCode, []byte(http.StatusText(anthropicErr.StatusCode)))
	}
	var openaiErr *openaiclient.Error
	if errors.As(err, &openaiErr) {
		return statusError(openaiErr.StatusCode, []byte(http.StatusText(openaiErr.StatusCode)))
	}
	return err
}

func buildPromptMessages(system, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: system})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
	return messages
}

func extractText(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", apperr.Validation(apperr.CodeInvalidAIResponse, "Empty response from AI", nil)
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", apperr.Validation(apperr.CodeInvalidAIResponse, "Empty response from AI", nil)
	}
	return text, nil
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
