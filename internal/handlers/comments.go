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

// CreateComment creates a new comment on a thread
// POST /api/v1/threads/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	thread, ok := findPublishedThread(c)
	if !ok {
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required,min=1,max=2000"`
		ParentID *uint  `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// One level of nesting: replying to a reply attaches to its parent
	if req.ParentID != nil {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ? AND thread_id = ?", *req.ParentID, thread.ID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "parent comment not found")
			return
		}
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}

	comment := models.Comment{
		ThreadID: thread.ID,
		UserID:   userID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}

	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "failed to create comment")
		return
	}

	if err := database.DB.Model(thread).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count", err)
	}

	threadID := thread.ID
	notify(thread.UserID, userID, &threadID, models.NotificationComment)

	c.JSON(http.StatusCreated, gin.H{"comment_id": comment.ID, "created_at": comment.CreatedAt})
}

// GetComments lists a thread's comments, oldest first
// GET /api/v1/threads/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	thread, ok := findPublishedThread(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "50"), c.DefaultQuery("offset", "0"), 100)

	var comments []models.Comment
	err := database.DB.
		Preload("User").
		Where("thread_id = ?", thread.ID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load comments")
		return
	}

	out := make([]gin.H, len(comments))
	for i, cm := range comments {
		out[i] = gin.H{
			"id":         cm.ID,
			"author":     cm.User.Public(),
			"content":    cm.Content,
			"parent_id":  cm.ParentID,
			"created_at": cm.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": out,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(out),
		},
	})
}

// DeleteComment deletes a comment (soft delete, author or admin only)
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	commentID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid comment id")
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.UserID != user.ID && !user.IsAdmin() {
		util.RespondForbidden(c, "not the comment author")
		return
	}

	if err := database.DB.Delete(&comment).Error; err != nil {
		util.RespondInternalError(c, "failed to delete comment")
		return
	}

	if err := database.DB.Model(&models.Thread{}).Where("id = ?", comment.ThreadID).
		UpdateColumn("comment_count", gorm.Expr("GREATEST(comment_count - 1, 0)")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement comment count", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment_deleted"})
}
