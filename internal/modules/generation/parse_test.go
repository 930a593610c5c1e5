package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenx-cards/core/internal/pkg/apperr"
)

func TestParseProposals_Accepts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare array", `[{"avers":"Q1","rewers":"A1"},{"avers":"Q2","rewers":"A2"}]`},
		{"json fence", "```json\n[{\"avers\":\"Q1\",\"rewers\":\"A1\"},{\"avers\":\"Q2\",\"rewers\":\"A2\"}]\n```"},
		{"plain fence", "```\n[{\"avers\":\"Q1\",\"rewers\":\"A1\"},{\"avers\":\"Q2\",\"rewers\":\"A2\"}]```"},
		{"wrapped", `{"flashcards":[{"avers":" Q1 ","rewers":"A1"},{"avers":"Q2","rewers":"A2","extra":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProposals(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, []Proposal{{"Q1", "A1"}, {"Q2", "A2"}}, got)
		})
	}
}

func TestParseProposals_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"not json", `here are your cards`, apperr.CodeInvalidAIJSON},
		{"truncated", `[{"avers":"Q"`, apperr.CodeInvalidAIJSON},
		{"empty array", `[]`, apperr.CodeInvalidAIResponse},
		{"object without wrapper", `{"cards":[]}`, apperr.CodeInvalidAIResponse},
		{"string root", `"hello"`, apperr.CodeInvalidAIResponse},
		{"item not object", `[{"avers":"Q","rewers":"A"}, 3]`, apperr.CodeInvalidAIResponse},
		{"missing rewers", `[{"avers":"Q"}]`, apperr.CodeInvalidAIResponse},
		{"blank avers", `[{"avers":"  ","rewers":"A"}]`, apperr.CodeInvalidAIResponse},
		{"numeric field", `[{"avers":1,"rewers":"A"}]`, apperr.CodeInvalidAIResponse},
		{"avers too long", `[{"avers":"` + strings.Repeat("x", AversMaxLen+1) + `","rewers":"A"}]`, apperr.CodeInvalidAIResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProposals(tt.raw)
			assert.Nil(t, got, "no partial acceptance")
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tt.code, e.Code)
		})
	}
}

func TestParseProposals_ReportsFailingItem(t *testing.T) {
	_, err := ParseProposals(`[{"avers":"Q","rewers":"A"},{"avers":"Q2","rewers":""}]`)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"index": 1, "field": "rewers"}, e.Details)
}

func TestProposalJSONSchema(t *testing.T) {
	s := ProposalJSONSchema()
	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []string{"flashcards"}, s["required"])

	items := s["properties"].(map[string]any)["flashcards"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, []string{"avers", "rewers"}, items["required"])
	assert.Equal(t, false, items["additionalProperties"])
}
