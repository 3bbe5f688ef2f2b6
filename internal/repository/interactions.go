package repository

import (
	"context"

	"github.com/loomline/backend/internal/models"
	"gorm.io/gorm"
)

// InteractionRepository answers save-membership questions for the feed
// enrichment engine.
type InteractionRepository interface {
	// ExistsSaved reports whether the viewer has saved a single thread.
	ExistsSaved(ctx context.Context, viewerID, threadID uint) (bool, error)

	// SavedThreadIDs returns the subset of threadIDs the viewer has saved,
	// using one bulk membership query regardless of input size. An empty
	// input or an anonymous viewer (id 0) returns an empty set without
	// touching the database.
	SavedThreadIDs(ctx context.Context, viewerID uint, threadIDs []uint) (map[uint]struct{}, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a GORM-backed interaction repository.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) ExistsSaved(ctx context.Context, viewerID, threadID uint) (bool, error) {
	if viewerID == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SavedThread{}).
		Where("user_id = ? AND thread_id = ?", viewerID, threadID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *interactionRepository) SavedThreadIDs(ctx context.Context, viewerID uint, threadIDs []uint) (map[uint]struct{}, error) {
	saved := make(map[uint]struct{}, len(threadIDs))
	if viewerID == 0 || len(threadIDs) == 0 {
		return saved, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.SavedThread{}).
		Where("user_id = ? AND thread_id IN ?", viewerID, threadIDs).
		Pluck("thread_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		saved[id] = struct{}{}
	}
	return saved, nil
}
