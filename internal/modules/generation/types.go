package generation

import (
	"context"
	"time"
)

const (
	// MaxTextLength bounds the source text, in characters.
	MaxTextLength = 10000
	// MaxProposals caps the cards returned from one generation.
	MaxProposals = 20
	// MinMockProposals is the floor the offline generator pads up to.
	MinMockProposals = 5

	AversMaxLen  = 200
	RewersMaxLen = 750
)

// Proposal is an unsaved question/answer pair returned by a generator.
type Proposal struct {
	Avers  string `json:"avers"`
	Rewers string `json:"rewers"`
}

// Result is a successful generation.
type Result struct {
	Proposals []Proposal
	Model     string
	Duration  time.Duration
}

// Generator produces proposals for text with the named model. Implementations
// return *apperr.Error values for every failure they can classify.
type Generator interface {
	Generate(ctx context.Context, text, model string) ([]Proposal, error)
	Name() string
}

// GenerateRequest is the body of POST /api/flashcards/generate.
type GenerateRequest struct {
	Text  string `json:"text"  validate:"required,max=10000"`
	Model string `json:"model" validate:"omitempty,max=100"`
}

// GenerateResponse is returned on success.
type GenerateResponse struct {
	FlashcardProposals []Proposal `json:"flashcard_proposals"`
	GenerationDuration int64      `json:"generation_duration"`
	Model              string     `json:"model"`
}
