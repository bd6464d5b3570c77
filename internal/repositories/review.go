package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/coach-client/internal/models"
)

type ReviewRepository interface {
	Create(record *models.ReviewRecord) error
	FindByID(id uuid.UUID) (*models.ReviewRecord, error)
	List(limit int) ([]models.ReviewRecord, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(record *models.ReviewRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create review record: %w", err)
	}
	return nil
}

func (r *reviewRepository) FindByID(id uuid.UUID) (*models.ReviewRecord, error) {
	var record models.ReviewRecord
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("review record not found")
		}
		return nil, fmt.Errorf("failed to find review record: %w", err)
	}
	return &record, nil
}

// List returns the newest records first.
func (r *reviewRepository) List(limit int) ([]models.ReviewRecord, error) {
	var records []models.ReviewRecord
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list review records: %w", err)
	}

	return records, nil
}
