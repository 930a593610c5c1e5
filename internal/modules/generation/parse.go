package generation

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tenx-cards/core/internal/pkg/apperr"
)

// proposalField describes one required string property of a proposal.
type proposalField struct {
	Name        string
	MaxLen      int
	Description string
}

// proposalSchema is the single definition of a valid model response. It drives
// ParseProposals, the JSON Schema sent to OpenRouter and the Gemini schema.
var proposalSchema = struct {
	Wrapper  string
	MinItems int
	MaxItems int
	Fields   []proposalField
}{
	Wrapper:  "flashcards",
	MinItems: 1,
	MaxItems: MaxProposals,
	Fields: []proposalField{
		{Name: "avers", MaxLen: AversMaxLen, Description: "Question side of the flashcard"},
		{Name: "rewers", MaxLen: RewersMaxLen, Description: "Answer side of the flashcard"},
	},
}

// ProposalJSONSchema returns the strict JSON Schema for the wrapped response
// form {"flashcards":[{"avers":"...","rewers":"..."}]}.
func ProposalJSONSchema() map[string]any {
	props := map[string]any{}
	required := make([]string, 0, len(proposalSchema.Fields))
	for _, f := range proposalSchema.Fields {
		props[f.Name] = map[string]any{
			"type":        "string",
			"description": f.Description,
		}
		required = append(required, f.Name)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			proposalSchema.Wrapper: map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           props,
					"required":             required,
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{proposalSchema.Wrapper},
		"additionalProperties": false,
	}
}

// stripCodeFence removes a leading ```json or ``` and a trailing ```.
func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// ParseProposals decodes model output into proposals. It accepts a bare array
// or the wrapped object form. Invalid JSON yields INVALID_AI_JSON; a shape
// violation anywhere rejects the whole response with INVALID_AI_RESPONSE.
func ParseProposals(raw string) ([]Proposal, error) {
	var doc any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &doc); err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidAIJSON,
			fmt.Sprintf("Failed to parse AI response as JSON: %v", err), nil)
	}
	return validateProposals(doc)
}

func validateProposals(doc any) ([]Proposal, error) {
	if obj, ok := doc.(map[string]any); ok {
		wrapped, found := obj[proposalSchema.Wrapper]
		if !found {
			return nil, invalidResponse("expected an array of flashcards", nil)
		}
		doc = wrapped
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, invalidResponse("expected an array of flashcards", nil)
	}
	if len(items) < proposalSchema.MinItems {
		return nil, invalidResponse("AI returned an empty flashcard list", nil)
	}

	out := make([]Proposal, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalidResponse(fmt.Sprintf("item %d is not an object", i), map[string]any{"index": i})
		}
		values := make(map[string]string, len(proposalSchema.Fields))
		for _, f := range proposalSchema.Fields {
			s, ok := obj[f.Name].(string)
			s = strings.TrimSpace(s)
			if !ok || s == "" {
				return nil, invalidResponse(fmt.Sprintf("item %d: %s must be a non-empty string", i, f.Name),
					map[string]any{"index": i, "field": f.Name})
			}
			if utf8.RuneCountInString(s) > f.MaxLen {
				return nil, invalidResponse(fmt.Sprintf("item %d: %s exceeds %d characters", i, f.Name, f.MaxLen),
					map[string]any{"index": i, "field": f.Name})
			}
			values[f.Name] = s
		}
		out = append(out, Proposal{Avers: values["avers"], Rewers: values["rewers"]})
	}
	return out, nil
}

func invalidResponse(reason string, details any) error {
	return apperr.Validation(apperr.CodeInvalidAIResponse, "AI returned invalid flashcard format: "+reason, details)
}
