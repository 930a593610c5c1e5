package flashcardset

import (
	"time"

	"github.com/tenx-cards/core/internal/models"
	"github.com/tenx-cards/core/internal/pkg/validation"
)

// FlashcardInput is one card in a create request.
type FlashcardInput struct {
	Avers   string                 `json:"avers"   validate:"notblank,max=200"`
	Rewers  string                 `json:"rewers"  validate:"notblank,max=750"`
	Source  models.FlashcardSource `json:"source"  validate:"required,oneof=manual ai-full ai-edited"`
	Flagged bool                   `json:"flagged"`
}

// CreateSetRequest is the body of POST /api/flashcard-sets.
type CreateSetRequest struct {
	Name               string           `json:"name"                validate:"notblank,max=100"`
	Model              string           `json:"model"               validate:"notblank,max=100"`
	GenerationDuration *int64           `json:"generation_duration" validate:"required,gte=0"`
	Flashcards         []FlashcardInput `json:"flashcards"          validate:"omitempty,dive"`
}

var createMessages = validation.Messages{
	"name.notblank":                "Name cannot be empty",
	"name.max":                     "Name cannot exceed 100 characters",
	"model.notblank":               "Model cannot be empty",
	"model.max":                    "Model cannot exceed 100 characters",
	"generation_duration.required": "Generation duration is required",
	"generation_duration.gte":      "Generation duration must be a non-negative integer",
	"flashcards.avers.notblank":    "Front of flashcard cannot be empty",
	"flashcards.avers.max":         "Front cannot exceed 200 characters",
	"flashcards.rewers.notblank":   "Back of flashcard cannot be empty",
	"flashcards.rewers.max":        "Back cannot exceed 750 characters",
	"flashcards.source.required":   "Source must be one of: manual, ai-full, ai-edited",
	"flashcards.source.oneof":      "Source must be one of: manual, ai-full, ai-edited",
}

// CreateSetCommand is the validated input of Service.Create.
type CreateSetCommand struct {
	Name               string
	Model              string
	GenerationDuration int64
	Flashcards         []FlashcardInput
}

func (r CreateSetRequest) command() CreateSetCommand {
	cmd := CreateSetCommand{
		Name:       r.Name,
		Model:      r.Model,
		Flashcards: r.Flashcards,
	}
	if r.GenerationDuration != nil {
		cmd.GenerationDuration = *r.GenerationDuration
	}
	return cmd
}

// CreatedSet is returned after a successful create.
type CreatedSet struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Model              string    `json:"model"`
	GenerationDuration int64     `json:"generation_duration"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	FlashcardCount     int       `json:"flashcard_count"`
}

// SetSummary is a list item.
type SetSummary = CreatedSet
