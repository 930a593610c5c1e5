package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/pkg/apperr"
)

const (
	defaultOpenRouterEndpoint = "https://openrouter.ai/api/v1"
	maxResponseBytes          = 1 << 20
)

// openRouterGenerator calls the OpenRouter chat completions API with a strict
// JSON schema response format.
type openRouterGenerator struct {
	apiKey   string
	endpoint string
	siteURL  string
	siteName string
	client   *http.Client
}

func newOpenRouterGenerator(cfg config.AIConfig, client *http.Client) *openRouterGenerator {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultOpenRouterEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	return &openRouterGenerator{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: endpoint,
		siteURL:  cfg.SiteURL,
		siteName: cfg.SiteName,
		client:   client,
	}
}

func (g *openRouterGenerator) Name() string { return config.ProviderOpenRouter }

func (g *openRouterGenerator) Generate(ctx context.Context, text, model string) ([]Proposal, error) {
	if g.apiKey == "" {
		return nil, apperr.Configuration("OpenRouter API key is not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildUserPrompt(text)},
		},
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "flashcards",
				"strict": true,
				"schema": ProposalJSONSchema(),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if g.siteURL != "" {
		req.Header.Set("HTTP-Referer", g.siteURL)
	}
	if g.siteName != "" {
		req.Header.Set("X-Title", g.siteName)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(resp.StatusCode, respBody)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content interface{} `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidAIResponse, "Invalid response format from OpenRouter API - body is not JSON", nil)
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return nil, apperr.API(result.Error.Code, "OpenRouter API returned error: "+result.Error.Message, nil)
	}
	if len(result.Choices) == 0 {
		return nil, apperr.Validation(apperr.CodeInvalidAIResponse, "Invalid response format from OpenRouter API - missing content", nil)
	}
	content, ok := result.Choices[0].Message.Content.(string)
	if !ok {
		return nil, apperr.Validation(apperr.CodeInvalidAIResponse, "Invalid response format from OpenRouter API - missing content", nil)
	}
	return ParseProposals(content)
}

func statusError(status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		text = http.StatusText(status)
	}
	text = truncateRunes(text, 300)
	details := map[string]interface{}{"status": status}

	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperr.API(status, "AI service is temporarily unavailable: "+text, details)
	}
	return apperr.API(status, fmt.Sprintf("OpenRouter API returned error %d: %s", status, text), details)
}

func truncateRunes(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
