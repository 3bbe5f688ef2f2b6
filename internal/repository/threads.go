package repository

import (
	"context"
	"time"

	"github.com/loomline/backend/internal/models"
	"gorm.io/gorm"
)

// PublicationRepository is the storage side of the scheduled publication
// job: find due threads and flip them to published.
type PublicationRepository interface {
	// FindScheduledDue returns threads still in the scheduled state whose
	// publish time has elapsed.
	FindScheduledDue(ctx context.Context, now time.Time) ([]models.Thread, error)

	// PublishAll transitions the given threads to published in one bulk
	// write. Already-published threads no longer match the scheduled
	// predicate, so re-running on a stale set is a no-op.
	PublishAll(ctx context.Context, threads []models.Thread) (int64, error)

	// Transaction runs fn with repository methods bound to a single
	// database transaction.
	Transaction(ctx context.Context, fn func(PublicationRepository) error) error
}

type publicationRepository struct {
	db *gorm.DB
}

// NewPublicationRepository creates a GORM-backed publication repository.
func NewPublicationRepository(db *gorm.DB) PublicationRepository {
	return &publicationRepository{db: db}
}

func (r *publicationRepository) FindScheduledDue(ctx context.Context, now time.Time) ([]models.Thread, error) {
	var due []models.Thread
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.ThreadStatusScheduled, now).
		Find(&due).Error
	return due, err
}

func (r *publicationRepository) PublishAll(ctx context.Context, threads []models.Thread) (int64, error) {
	if len(threads) == 0 {
		return 0, nil
	}

	ids := make([]uint, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}

	// The status guard keeps the write idempotent under overlapping runs
	result := r.db.WithContext(ctx).
		Model(&models.Thread{}).
		Where("id IN ? AND status = ?", ids, models.ThreadStatusScheduled).
		Update("status", models.ThreadStatusPublished)
	return result.RowsAffected, result.Error
}

func (r *publicationRepository) Transaction(ctx context.Context, fn func(PublicationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&publicationRepository{db: tx})
	})
}
