package models

// FlashcardSource records where a card's text came from.
type FlashcardSource string

const (
	SourceManual   FlashcardSource = "manual"
	SourceAIFull   FlashcardSource = "ai-full"
	SourceAIEdited FlashcardSource = "ai-edited"
)

// Valid reports whether s is one of the known sources.
func (s FlashcardSource) Valid() bool {
	switch s {
	case SourceManual, SourceAIFull, SourceAIEdited:
		return true
	}
	return false
}

// Field bounds shared by the API validation and the column sizes.
const (
	SetNameMaxLen = 100
	ModelMaxLen   = 100
	AversMaxLen   = 200
	RewersMaxLen  = 750
)

// FlashcardSetModel is a named collection of flashcards owned by a user.
// (user_id, name) is unique.
type FlashcardSetModel struct {
	Base
	UserID             string           `json:"-"                   gorm:"type:char(36);not null;uniqueIndex:idx_flashcard_sets_user_name,priority:1"`
	Name               string           `json:"name"                gorm:"size:100;not null;uniqueIndex:idx_flashcard_sets_user_name,priority:2"`
	Model              string           `json:"model"               gorm:"size:100;not null"`
	GenerationDuration int64            `json:"generation_duration" gorm:"not null;default:0"`
	Flashcards         []FlashcardModel `json:"flashcards,omitempty" gorm:"foreignKey:SetID;constraint:OnDelete:CASCADE"`
}

func (FlashcardSetModel) TableName() string { return "flashcard_sets" }

// FlashcardModel is a persisted card. It only exists as part of a set.
type FlashcardModel struct {
	Base
	SetID   string          `json:"set_id"  gorm:"type:char(36);not null;index"`
	Avers   string          `json:"avers"   gorm:"size:200;not null"`
	Rewers  string          `json:"rewers"  gorm:"size:750;not null"`
	Source  FlashcardSource `json:"source"  gorm:"size:16;not null"`
	Flagged bool            `json:"flagged" gorm:"not null;default:false"`
}

func (FlashcardModel) TableName() string { return "flashcards" }
