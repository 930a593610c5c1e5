package workflow

import (
	"fmt"
	"time"

	"github.com/tenx-cards/core/internal/models"
)

// Proposal is a generated card under review.
type Proposal struct {
	ID        string                 `json:"id"`
	Avers     string                 `json:"avers"`
	Rewers    string                 `json:"rewers"`
	Source    models.FlashcardSource `json:"source"`
	IsFlagged bool                   `json:"is_flagged"`
}

// GenerationMeta is kept from the last successful generation and sent along
// when the set is saved.
type GenerationMeta struct {
	Model              string `json:"model"`
	GenerationDuration int64  `json:"generation_duration"`
}

// FailureKind tells the caller which step failed.
type FailureKind string

const (
	FailureInput      FailureKind = "input"
	FailureGeneration FailureKind = "generation"
	FailureSave       FailureKind = "save"
	FailureConflict   FailureKind = "conflict"
)

// Failure is what the session shows in the error state.
type Failure struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Kind    FailureKind    `json:"kind"`
	Status  int            `json:"status,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Title, f.Message)
}

// Snapshot is a copy of the session; mutating it does not affect the workflow.
type Snapshot struct {
	State      State
	Text       string
	SetName    string
	Proposals  []Proposal
	Error      *Failure
	Saved      *SavedSet
	Meta       *GenerationMeta
	LastAction Action
}

// Wire types of the HTTP API.

type GenerateRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type ProposalPayload struct {
	Avers  string `json:"avers"`
	Rewers string `json:"rewers"`
}

type GenerateResponse struct {
	FlashcardProposals []ProposalPayload `json:"flashcard_proposals"`
	GenerationDuration int64             `json:"generation_duration"`
	Model              string            `json:"model"`
}

type FlashcardPayload struct {
	Avers   string                 `json:"avers"`
	Rewers  string                 `json:"rewers"`
	Source  models.FlashcardSource `json:"source"`
	Flagged bool                   `json:"flagged"`
}

type CreateSetRequest struct {
	Name               string             `json:"name"`
	Model              string             `json:"model"`
	GenerationDuration int64              `json:"generation_duration"`
	Flashcards         []FlashcardPayload `json:"flashcards"`
}

// SavedSet is the created set as returned by the API.
type SavedSet struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Model              string    `json:"model"`
	GenerationDuration int64     `json:"generation_duration"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	FlashcardCount     int       `json:"flashcard_count"`
}
