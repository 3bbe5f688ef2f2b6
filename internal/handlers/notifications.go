package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/cache"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/util"
)

const unreadCountTTL = 5 * time.Minute

func unreadCountKey(userID uint) string {
	return fmt.Sprintf("unread_count:%d", userID)
}

// invalidateUnreadCount drops the cached unread counter so the next read
// recomputes it from the database.
func invalidateUnreadCount(userID uint) {
	rc := cache.GetRedisClient()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Del(ctx, unreadCountKey(userID)); err != nil {
		logger.WarnWithFields("Failed to invalidate unread count cache", err)
	}
}

// GetNotifications lists the current user's notifications, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)

	var notifications []models.Notification
	err := database.DB.
		Preload("Actor").
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load notifications")
		return
	}

	out := make([]gin.H, len(notifications))
	for i, n := range notifications {
		out[i] = gin.H{
			"id":         n.ID,
			"kind":       n.Kind,
			"actor":      n.Actor.Public(),
			"thread_id":  n.ThreadID,
			"read":       n.Read,
			"created_at": n.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": out,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(out),
		},
	})
}

// GetUnreadCount returns the number of unread notifications. The count is
// cached in Redis briefly; writes that change it invalidate the key.
// GET /api/v1/notifications/unread
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	rc := cache.GetRedisClient()
	if rc != nil {
		count, err := rc.GetInt(c.Request.Context(), unreadCountKey(userID))
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"unread": count})
			return
		}
		if !cache.IsNil(err) {
			logger.WarnWithFields("Failed to read unread count cache", err)
		}
	}

	var count int64
	err := database.DB.
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		util.RespondInternalError(c, "failed to count notifications")
		return
	}

	if rc != nil {
		if err := rc.SetEx(c.Request.Context(), unreadCountKey(userID), count, unreadCountTTL); err != nil {
			logger.WarnWithFields("Failed to cache unread count", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkNotificationsRead marks all of the current user's notifications read
// POST /api/v1/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := database.DB.
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}

	invalidateUnreadCount(userID)

	c.JSON(http.StatusOK, gin.H{"message": "notifications_read"})
}
