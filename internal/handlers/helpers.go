package handlers

import (
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/models"
	"gorm.io/gorm"
)

// threadQuery returns a query with everything enrichment needs preloaded:
// author, segments, images, category, and the like edges.
func threadQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Posts").
		Preload("Images").
		Preload("Category").
		Preload("Likes")
}

// publishedThreadQuery restricts threadQuery to feed-visible threads.
// Drafts and scheduled threads never appear in listings, whoever asks.
func publishedThreadQuery(db *gorm.DB) *gorm.DB {
	return threadQuery(db).Where("threads.status = ?", models.ThreadStatusPublished)
}

// notify records a notification for recipient, skipping self-notification.
func notify(recipientID, actorID uint, threadID *uint, kind models.NotificationKind) {
	if recipientID == actorID {
		return
	}

	n := models.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		ThreadID:    threadID,
		Kind:        kind,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		logger.WarnWithFields("Failed to create notification", err)
	}

	invalidateUnreadCount(recipientID)
}
