package flashcardset

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNameConflict = errors.New("flashcard set name already exists")
	ErrNotFound     = errors.New("flashcard set not found")
)

// NameConflictError reports that the user already owns a set with Name.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf(`A flashcard set with the name "%s" already exists`, e.Name)
}

func (e *NameConflictError) Is(target error) bool { return target == ErrNameConflict }

// TransactionError wraps a storage failure during a set write.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// isUniqueViolation recognizes duplicate key errors. gorm translates them
// when TranslateError is on; the message checks cover drivers that do not.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "Error 1062") ||
		strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
