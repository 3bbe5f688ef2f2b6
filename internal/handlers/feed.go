package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/util"
)

// GetGlobalFeed returns recent published threads, personalized when the
// viewer is logged in
// GET /api/v1/feed/global
func (h *Handlers) GetGlobalFeed(c *gin.Context) {
	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)

	var threads []models.Thread
	err := publishedThreadQuery(database.DB).
		Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	h.respondEnriched(c, threads, util.ViewerID(c), limit, offset)
}

// GetHomeFeed returns published threads from followed users and categories
// GET /api/v1/feed/home
func (h *Handlers) GetHomeFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)

	followedUsers := database.DB.
		Model(&models.UserFollow{}).
		Select("followee_id").
		Where("follower_id = ?", userID)
	followedCategories := database.DB.
		Model(&models.CategoryFollow{}).
		Select("category_id").
		Where("user_id = ?", userID)

	var threads []models.Thread
	err := publishedThreadQuery(database.DB).
		Where("threads.user_id IN (?) OR threads.category_id IN (?)", followedUsers, followedCategories).
		Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	h.respondEnriched(c, threads, userID, limit, offset)
}

// ListCategoryThreads returns a category's published threads
// GET /api/v1/categories/:slug/threads
func (h *Handlers) ListCategoryThreads(c *gin.Context) {
	var category models.Category
	if err := database.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		util.RespondNotFound(c, "category")
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)

	var threads []models.Thread
	err := publishedThreadQuery(database.DB).
		Where("threads.category_id = ?", category.ID).
		Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list threads")
		return
	}

	h.respondEnriched(c, threads, util.ViewerID(c), limit, offset)
}

// respondEnriched runs a thread batch through the enrichment engine and
// writes the standard listing envelope.
func (h *Handlers) respondEnriched(c *gin.Context, threads []models.Thread, viewerID uint, limit, offset int) {
	enriched, err := h.enricher.EnrichMany(c.Request.Context(), threads, viewerID)
	if err != nil {
		util.RespondInternalError(c, "failed to build feed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"threads": enriched,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(enriched),
		},
	})
}
