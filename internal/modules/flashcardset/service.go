package flashcardset

import (
	"context"
	"errors"
	"strings"

	"github.com/tenx-cards/core/internal/models"
	"github.com/tenx-cards/core/internal/pkg/metrics"
	"github.com/tenx-cards/core/internal/pkg/pagination"
	"github.com/tenx-cards/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const insertBatchSize = 100

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

// Create stores a set and its cards. The set row is written first; if the
// cards cannot be written the set is deleted again so no empty set is left
// behind. A duplicate (user, name) pair yields *NameConflictError.
func (s *Service) Create(ctx context.Context, userID string, cmd CreateSetCommand) (*CreatedSet, error) {
	set := models.FlashcardSetModel{
		UserID:             userID,
		Name:               strings.TrimSpace(cmd.Name),
		Model:              cmd.Model,
		GenerationDuration: cmd.GenerationDuration,
	}
	if err := s.db.WithContext(ctx).Create(&set).Error; err != nil {
		if isUniqueViolation(err) {
			s.metrics.RecordSetSave("conflict", 0)
			return nil, &NameConflictError{Name: set.Name}
		}
		s.metrics.RecordSetSave("failed", 0)
		return nil, &TransactionError{Op: "Failed to create flashcard set", Err: err}
	}

	count := 0
	if len(cmd.Flashcards) > 0 {
		rows := make([]models.FlashcardModel, 0, len(cmd.Flashcards))
		for _, card := range cmd.Flashcards {
			rows = append(rows, models.FlashcardModel{
				SetID:   set.ID,
				Avers:   card.Avers,
				Rewers:  card.Rewers,
				Source:  card.Source,
				Flagged: card.Flagged,
			})
		}
		if err := s.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			s.compensate(ctx, set.ID, err)
			s.metrics.RecordSetSave("failed", 0)
			return nil, &TransactionError{Op: "Failed to create flashcards", Err: err}
		}
		count = len(rows)
	}

	s.metrics.RecordSetSave("created", count)
	s.log.Info("flashcard set created",
		zap.String("set_id", set.ID),
		zap.String("user_id", userID),
		zap.Int("flashcards", count),
	)
	return summaryOf(set, count), nil
}

// compensate removes a set whose cards failed to insert. A failure here is
// logged; the caller still reports the original insert error.
func (s *Service) compensate(ctx context.Context, setID string, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := s.db.WithContext(ctx).
		Where("id = ?", setID).
		Delete(&models.FlashcardSetModel{}).Error
	if err != nil {
		s.log.Error("failed to remove flashcard set after card insert failure",
			zap.String("set_id", setID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	s.log.Warn("flashcard set removed after card insert failure",
		zap.String("set_id", setID),
		zap.Error(cause),
	)
}

// List returns the user's sets, newest first, with their card counts.
func (s *Service) List(ctx context.Context, userID string, q pagination.Query) ([]SetSummary, response.Pagination, error) {
	query := s.db.WithContext(ctx).
		Model(&models.FlashcardSetModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	var sets []models.FlashcardSetModel
	pag, err := pagination.Paginate(query, q, &sets)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	counts, err := s.countCards(ctx, sets)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	out := make([]SetSummary, 0, len(sets))
	for _, set := range sets {
		out = append(out, *summaryOf(set, counts[set.ID]))
	}
	return out, pag, nil
}

func (s *Service) countCards(ctx context.Context, sets []models.FlashcardSetModel) (map[string]int, error) {
	counts := make(map[string]int, len(sets))
	if len(sets) == 0 {
		return counts, nil
	}
	ids := make([]string, 0, len(sets))
	for _, set := range sets {
		ids = append(ids, set.ID)
	}

	var rows []struct {
		SetID string
		N     int
	}
	err := s.db.WithContext(ctx).
		Model(&models.FlashcardModel{}).
		Select("set_id, COUNT(*) AS n").
		Where("set_id IN ?", ids).
		Group("set_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SetID] = row.N
	}
	return counts, nil
}

// Get returns one set with its cards in insertion order.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.FlashcardSetModel, error) {
	var set models.FlashcardSetModel
	err := s.db.WithContext(ctx).
		Preload("Flashcards", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if set.Flashcards == nil {
		set.Flashcards = []models.FlashcardModel{}
	}
	return &set, nil
}

// Delete removes a set and its cards.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var set models.FlashcardSetModel
		err := tx.Select("id").Where("id = ? AND user_id = ?", id, userID).First(&set).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("set_id = ?", set.ID).Delete(&models.FlashcardModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", set.ID).Delete(&models.FlashcardSetModel{}).Error
	})
}

func summaryOf(set models.FlashcardSetModel, count int) *CreatedSet {
	return &CreatedSet{
		ID:                 set.ID,
		Name:               set.Name,
		Model:              set.Model,
		GenerationDuration: set.GenerationDuration,
		CreatedAt:          set.CreatedAt,
		UpdatedAt:          set.UpdatedAt,
		FlashcardCount:     count,
	}
}
