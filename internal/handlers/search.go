package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/util"
)

// SearchUsers finds users by handle or display name
// GET /api/v1/search/users?q=...
func (h *Handlers) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.RespondBadRequest(c, "query parameter 'q' is required")
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)
	pattern := "%" + strings.ToLower(query) + "%"

	var users []models.User
	err := database.DB.
		Where("LOWER(handle) LIKE ? OR LOWER(display_name) LIKE ?", pattern, pattern).
		Order("follower_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "search failed")
		return
	}

	profiles := make([]models.PublicProfile, len(users))
	for i, u := range users {
		profiles[i] = u.Public()
	}

	c.JSON(http.StatusOK, gin.H{
		"users": profiles,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(profiles),
		},
	})
}

// SearchThreads finds published threads whose segments match the query
// GET /api/v1/search/threads?q=...
func (h *Handlers) SearchThreads(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.RespondBadRequest(c, "query parameter 'q' is required")
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)
	pattern := "%" + strings.ToLower(query) + "%"

	matching := database.DB.
		Model(&models.Post{}).
		Select("DISTINCT thread_id").
		Where("LOWER(content) LIKE ?", pattern)

	var threads []models.Thread
	err := publishedThreadQuery(database.DB).
		Where("threads.id IN (?)", matching).
		Order("threads.like_count DESC, threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		util.RespondInternalError(c, "search failed")
		return
	}

	h.respondEnriched(c, threads, util.ViewerID(c), limit, offset)
}
