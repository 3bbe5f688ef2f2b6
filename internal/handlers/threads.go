package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/util"
	"gorm.io/gorm"
)

// CreateThreadRequest is the request body for creating a thread. Posts are
// the ordered text segments; their index is the stored position.
type CreateThreadRequest struct {
	Posts        []string   `json:"posts" binding:"required,min=1,max=25,dive,min=1,max=2000"`
	CategoryID   *uint      `json:"category_id,omitempty"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	ImageURLs    []string   `json:"image_urls,omitempty"`
}

// CreateThread creates a new thread
// POST /api/v1/threads
func (h *Handlers) CreateThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	status := models.ParseThreadStatus(req.Status)
	if status == models.ThreadStatusScheduled {
		if req.ScheduledFor == nil {
			util.RespondValidationError(c, "scheduled_for", "scheduled threads need a publish time")
			return
		}
		if !req.ScheduledFor.After(time.Now()) {
			util.RespondValidationError(c, "scheduled_for", "publish time must be in the future")
			return
		}
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := database.DB.First(&category, *req.CategoryID).Error; err != nil {
			util.RespondValidationError(c, "category_id", "category not found")
			return
		}
	}

	thread := models.Thread{
		UserID:       userID,
		CategoryID:   req.CategoryID,
		Status:       status,
		ScheduledFor: req.ScheduledFor,
	}
	for i, content := range req.Posts {
		thread.Posts = append(thread.Posts, models.Post{Position: i, Content: content})
	}
	for i, url := range req.ImageURLs {
		thread.Images = append(thread.Images, models.ThreadImage{URL: url, Position: i})
	}

	if err := database.DB.Create(&thread).Error; err != nil {
		util.RespondInternalError(c, "failed to create thread")
		return
	}

	if status == models.ThreadStatusPublished {
		bumpPublishCounters(&thread)
	}

	logger.InfoWithFields("Thread created",
		logger.WithUserID(userID),
		logger.WithThreadID(thread.ID),
	)

	c.JSON(http.StatusCreated, gin.H{
		"thread_id":     thread.ID,
		"status":        thread.Status,
		"scheduled_for": thread.ScheduledFor,
	})
}

// GetThread returns one thread, personalized for the viewer
// GET /api/v1/threads/:id
func (h *Handlers) GetThread(c *gin.Context) {
	threadID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid thread id")
		return
	}

	var thread models.Thread
	if err := threadQuery(database.DB).First(&thread, threadID).Error; err != nil {
		util.RespondNotFound(c, "thread")
		return
	}

	viewerID := util.ViewerID(c)

	// Unpublished threads exist only for their owner
	if thread.Status != models.ThreadStatusPublished && thread.UserID != viewerID {
		util.RespondNotFound(c, "thread")
		return
	}

	if thread.Status == models.ThreadStatusPublished {
		if err := database.DB.Model(&thread).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			logger.WarnWithFields("Failed to increment view count", err)
		}
		thread.ViewCount++
	}

	resp, err := h.enricher.EnrichOne(c.Request.Context(), &thread, viewerID)
	if err != nil {
		util.RespondInternalError(c, "failed to build thread")
		return
	}

	c.JSON(http.StatusOK, gin.H{"thread": resp})
}

// UpdateThreadRequest is the request body for editing a thread.
type UpdateThreadRequest struct {
	Posts        []string   `json:"posts" binding:"omitempty,min=1,max=25,dive,min=1,max=2000"`
	CategoryID   *uint      `json:"category_id,omitempty"`
	Status       *string    `json:"status,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// UpdateThread edits a thread's segments, category, or visibility
// PUT /api/v1/threads/:id
func (h *Handlers) UpdateThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	threadID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid thread id")
		return
	}

	var thread models.Thread
	if err := database.DB.First(&thread, threadID).Error; err != nil {
		util.RespondNotFound(c, "thread")
		return
	}

	if thread.UserID != userID {
		util.RespondForbidden(c, "not the thread owner")
		return
	}

	var req UpdateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	wasPublished := thread.Status == models.ThreadStatusPublished

	if req.Status != nil {
		status := models.ParseThreadStatus(*req.Status)
		if status == models.ThreadStatusScheduled {
			scheduledFor := thread.ScheduledFor
			if req.ScheduledFor != nil {
				scheduledFor = req.ScheduledFor
			}
			if scheduledFor == nil || !scheduledFor.After(time.Now()) {
				util.RespondValidationError(c, "scheduled_for", "publish time must be in the future")
				return
			}
			thread.ScheduledFor = scheduledFor
		}
		thread.Status = status
	}
	if req.ScheduledFor != nil && req.Status == nil {
		thread.ScheduledFor = req.ScheduledFor
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := database.DB.First(&category, *req.CategoryID).Error; err != nil {
			util.RespondValidationError(c, "category_id", "category not found")
			return
		}
		thread.CategoryID = req.CategoryID
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(req.Posts) > 0 {
			if err := tx.Where("thread_id = ?", thread.ID).Delete(&models.Post{}).Error; err != nil {
				return err
			}
			for i, content := range req.Posts {
				post := models.Post{ThreadID: thread.ID, Position: i, Content: content}
				if err := tx.Create(&post).Error; err != nil {
					return err
				}
			}
		}
		return tx.Save(&thread).Error
	})
	if err != nil {
		util.RespondInternalError(c, "failed to update thread")
		return
	}

	if !wasPublished && thread.Status == models.ThreadStatusPublished {
		bumpPublishCounters(&thread)
	}
	if wasPublished && thread.Status != models.ThreadStatusPublished {
		dropPublishCounters(&thread)
	}

	c.JSON(http.StatusOK, gin.H{
		"thread_id":     thread.ID,
		"status":        thread.Status,
		"scheduled_for": thread.ScheduledFor,
	})
}

// DeleteThread deletes a thread (soft delete)
// DELETE /api/v1/threads/:id
func (h *Handlers) DeleteThread(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	threadID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid thread id")
		return
	}

	var thread models.Thread
	if err := database.DB.First(&thread, threadID).Error; err != nil {
		util.RespondNotFound(c, "thread")
		return
	}

	if thread.UserID != user.ID && !user.IsAdmin() {
		util.RespondForbidden(c, "not the thread owner")
		return
	}

	if err := database.DB.Delete(&thread).Error; err != nil {
		util.RespondInternalError(c, "failed to delete thread")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "thread_deleted"})
}

// ListUserThreads returns a user's published threads, newest first. The
// owner also sees their drafts and scheduled threads.
// GET /api/v1/users/:id/threads
func (h *Handlers) ListUserThreads(c *gin.Context) {
	targetID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid user id")
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)
	viewerID := util.ViewerID(c)

	query := publishedThreadQuery(database.DB)
	if viewerID == targetID {
		query = threadQuery(database.DB)
	}

	var threads []models.Thread
	err = query.
		Where("threads.user_id = ?", targetID).
		Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list threads")
		return
	}

	h.respondEnriched(c, threads, viewerID, limit, offset)
}

// bumpPublishCounters maintains the denormalized thread counters on the
// author and category when a thread becomes publicly visible.
func bumpPublishCounters(thread *models.Thread) {
	if err := database.DB.Model(&models.User{}).Where("id = ?", thread.UserID).
		UpdateColumn("thread_count", gorm.Expr("thread_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment user thread count", err)
	}
	if thread.CategoryID != nil {
		if err := database.DB.Model(&models.Category{}).Where("id = ?", *thread.CategoryID).
			UpdateColumn("thread_count", gorm.Expr("thread_count + 1")).Error; err != nil {
			logger.WarnWithFields("Failed to increment category thread count", err)
		}
	}
}

// dropPublishCounters reverses bumpPublishCounters when a published thread
// goes back to draft or scheduled. Floored at zero so a counter that
// drifted low never goes negative.
func dropPublishCounters(thread *models.Thread) {
	if err := database.DB.Model(&models.User{}).Where("id = ?", thread.UserID).
		UpdateColumn("thread_count", gorm.Expr("GREATEST(thread_count - 1, 0)")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement user thread count", err)
	}
	if thread.CategoryID != nil {
		if err := database.DB.Model(&models.Category{}).Where("id = ?", *thread.CategoryID).
			UpdateColumn("thread_count", gorm.Expr("GREATEST(thread_count - 1, 0)")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement category thread count", err)
		}
	}
}
