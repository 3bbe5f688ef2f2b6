package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/util"
	"gorm.io/gorm"
)

// LikeThread likes a thread for the current user
// POST /api/v1/threads/:id/like
func (h *Handlers) LikeThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	thread, ok := findPublishedThread(c)
	if !ok {
		return
	}

	var existing models.ThreadLike
	err := database.DB.Where("user_id = ? AND thread_id = ?", userID, thread.ID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"liked": true})
		return
	}

	like := models.ThreadLike{UserID: userID, ThreadID: thread.ID}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "failed to like thread")
		return
	}

	if err := database.DB.Model(thread).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment like count", err)
	}

	threadID := thread.ID
	notify(thread.UserID, userID, &threadID, models.NotificationLike)

	c.JSON(http.StatusOK, gin.H{"liked": true})
}

// UnlikeThread removes the current user's like
// DELETE /api/v1/threads/:id/like
func (h *Handlers) UnlikeThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	threadID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid thread id")
		return
	}

	result := database.DB.Where("user_id = ? AND thread_id = ?", userID, threadID).Delete(&models.ThreadLike{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unlike thread")
		return
	}

	if result.RowsAffected > 0 {
		if err := database.DB.Model(&models.Thread{}).Where("id = ?", threadID).
			UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement like count", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}

// SaveThread bookmarks a thread for the current user
// POST /api/v1/threads/:id/save
func (h *Handlers) SaveThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	thread, ok := findPublishedThread(c)
	if !ok {
		return
	}

	var existing models.SavedThread
	err := database.DB.Where("user_id = ? AND thread_id = ?", userID, thread.ID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"saved": true})
		return
	}

	saved := models.SavedThread{UserID: userID, ThreadID: thread.ID}
	if err := database.DB.Create(&saved).Error; err != nil {
		util.RespondInternalError(c, "failed to save thread")
		return
	}

	if err := database.DB.Model(thread).UpdateColumn("save_count", gorm.Expr("save_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment save count", err)
	}

	c.JSON(http.StatusOK, gin.H{"saved": true, "saved_at": saved.CreatedAt})
}

// UnsaveThread removes a bookmark
// DELETE /api/v1/threads/:id/save
func (h *Handlers) UnsaveThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	threadID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid thread id")
		return
	}

	result := database.DB.Where("user_id = ? AND thread_id = ?", userID, threadID).Delete(&models.SavedThread{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unsave thread")
		return
	}

	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "saved thread")
		return
	}

	if err := database.DB.Model(&models.Thread{}).Where("id = ?", threadID).
		UpdateColumn("save_count", gorm.Expr("GREATEST(save_count - 1, 0)")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement save count", err)
	}

	c.JSON(http.StatusOK, gin.H{"saved": false})
}

// GetSavedThreads returns the current user's bookmarks, newest first
// GET /api/v1/users/me/saved
func (h *Handlers) GetSavedThreads(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)

	savedIDs := database.DB.
		Model(&models.SavedThread{}).
		Select("thread_id").
		Where("user_id = ?", userID)

	var threads []models.Thread
	err := publishedThreadQuery(database.DB).
		Where("threads.id IN (?)", savedIDs).
		Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load saved threads")
		return
	}

	h.respondEnriched(c, threads, userID, limit, offset)
}

// findPublishedThread loads the :id thread and rejects interactions with
// anything not publicly visible.
func findPublishedThread(c *gin.Context) (*models.Thread, bool) {
	threadID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid thread id")
		return nil, false
	}

	var thread models.Thread
	if err := database.DB.First(&thread, threadID).Error; err != nil {
		util.RespondNotFound(c, "thread")
		return nil, false
	}

	if thread.Status != models.ThreadStatusPublished {
		util.RespondNotFound(c, "thread")
		return nil, false
	}

	return &thread, true
}
