package generation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/pkg/apperr"
	"google.golang.org/genai"
)

// geminiGenerator calls the Gemini API with a JSON response schema.
type geminiGenerator struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func newGeminiGenerator(cfg config.AIConfig, client *http.Client) *geminiGenerator {
	return &geminiGenerator{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: strings.TrimSpace(cfg.Endpoint),
		client:   client,
	}
}

func (g *geminiGenerator) Name() string { return config.ProviderGemini }

func (g *geminiGenerator) Generate(ctx context.Context, text, model string) ([]Proposal, error) {
	if g.apiKey == "" {
		return nil, apperr.Configuration("Gemini API key is not configured")
	}

	cc := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.client,
	}
	if g.endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, apperr.Configuration("Gemini client: " + err.Error())
	}

	resp, err := client.Models.GenerateContent(ctx,
		strings.TrimPrefix(model, "google/"),
		genai.Text(buildUserPrompt(text)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    geminiSchema(),
			MaxOutputTokens:   maxOutputTokens,
		},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, statusError(apiErr.Code, []byte(apiErr.Message))
		}
		return nil, err
	}

	content := resp.Text()
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation(apperr.CodeInvalidAIResponse, "Empty response from AI", nil)
	}
	return ParseProposals(content)
}

// geminiSchema mirrors ProposalJSONSchema in the Gemini schema dialect.
func geminiSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(proposalSchema.Fields))
	required := make([]string, 0, len(proposalSchema.Fields))
	for _, f := range proposalSchema.Fields {
		props[f.Name] = &genai.Schema{Type: genai.TypeString, Description: f.Description}
		required = append(required, f.Name)
	}
	minItems := int64(proposalSchema.MinItems)
	maxItems := int64(proposalSchema.MaxItems)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			proposalSchema.Wrapper: {
				Type:     genai.TypeArray,
				MinItems: &minItems,
				MaxItems: &maxItems,
				Items: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: props,
					Required:   required,
				},
			},
		},
		Required: []string{proposalSchema.Wrapper},
	}
}
