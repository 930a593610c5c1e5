package errorlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tenx-cards/core/internal/models"
	"github.com/tenx-cards/core/internal/pkg/apperr"
	"github.com/tenx-cards/core/internal/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrMissingFields is returned when an entry lacks user, model, type or message.
var ErrMissingFields = errors.New("missing required fields for error logging")

// Entry is one failed generation to be stored.
type Entry struct {
	Model        string
	ErrorType    string
	ErrorMessage string
	InputPayload map[string]any
}

// NewEntry derives the error type from the apperr kind of err.
func NewEntry(err error, model string, payload map[string]any) Entry {
	entry := Entry{
		Model:        model,
		ErrorType:    "Error",
		ErrorMessage: "Unknown error occurred",
		InputPayload: payload,
	}
	if err == nil {
		return entry
	}
	if e, ok := apperr.As(err); ok {
		entry.ErrorType = e.TypeName()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		entry.ErrorMessage = msg
	}
	return entry
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewService(db *gorm.DB, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log, metrics: m}
}

// LogGenerationError inserts entry and returns the new row id.
func (s *Service) LogGenerationError(ctx context.Context, userID string, entry Entry) (string, error) {
	if strings.TrimSpace(userID) == "" || entry.Model == "" || entry.ErrorType == "" || entry.ErrorMessage == "" {
		return "", ErrMissingFields
	}

	row := models.ErrorLogModel{
		UserID:       userID,
		Model:        truncate(entry.Model, models.ModelMaxLen),
		ErrorType:    entry.ErrorType,
		ErrorMessage: entry.ErrorMessage,
		InputPayload: models.JSONMap(entry.InputPayload),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert error log: %w", err)
	}
	if row.ID == "" {
		return "", errors.New("error log was inserted but no id was returned")
	}
	return row.ID, nil
}

// Record stores a failed generation and swallows any failure.
func (s *Service) Record(ctx context.Context, userID, model string, err error, payload map[string]any) {
	// the request may already be cancelled; the log row should still land
	ctx = context.WithoutCancel(ctx)

	id, logErr := s.LogGenerationError(ctx, userID, NewEntry(err, model, payload))
	s.metrics.RecordErrorLogWrite(logErr == nil)
	if logErr != nil {
		s.log.Warn("failed to log generation error",
			zap.String("user_id", userID),
			zap.String("model", model),
			zap.NamedError("generation_error", err),
			zap.Error(logErr),
		)
		return
	}
	s.log.Debug("generation error logged", zap.String("id", id))
}

// Recent returns the latest entries for a user, newest first.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]models.ErrorLogModel, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.ErrorLogModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Prune deletes entries created before cutoff and returns how many were removed.
func (s *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ErrorLogModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune error logs: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info("pruned error logs", zap.Int64("rows", res.RowsAffected), zap.Time("cutoff", cutoff))
	}
	return res.RowsAffected, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
