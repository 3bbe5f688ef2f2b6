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

// FollowUser follows another user
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	followerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	followeeID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid user id")
		return
	}

	if followerID == followeeID {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}

	var followee models.User
	if err := database.DB.First(&followee, followeeID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var existing models.UserFollow
	err = database.DB.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"following": true})
		return
	}

	follow := models.UserFollow{FollowerID: followerID, FolloweeID: followeeID}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, "failed to follow user")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", followeeID).
		UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment follower count", err)
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment following count", err)
	}

	notify(followeeID, followerID, nil, models.NotificationFollow)

	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowUser removes a user follow
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	followerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	followeeID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid user id")
		return
	}

	result := database.DB.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.UserFollow{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unfollow user")
		return
	}

	if result.RowsAffected > 0 {
		if err := database.DB.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", gorm.Expr("GREATEST(follower_count - 1, 0)")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement follower count", err)
		}
		if err := database.DB.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("GREATEST(following_count - 1, 0)")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement following count", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"following": false})
}

// GetFollowers lists a user's followers
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	targetID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid user id")
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)

	followerIDs := database.DB.
		Model(&models.UserFollow{}).
		Select("follower_id").
		Where("followee_id = ?", targetID)

	h.respondUserList(c, followerIDs, limit, offset)
}

// GetFollowing lists who a user follows
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	targetID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid user id")
		return
	}

	limit, offset := util.ParsePagination(c.DefaultQuery("limit", "20"), c.DefaultQuery("offset", "0"), 50)

	followeeIDs := database.DB.
		Model(&models.UserFollow{}).
		Select("followee_id").
		Where("follower_id = ?", targetID)

	h.respondUserList(c, followeeIDs, limit, offset)
}

// FollowCategory subscribes the current user to a category
// POST /api/v1/categories/:slug/follow
func (h *Handlers) FollowCategory(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var category models.Category
	if err := database.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		util.RespondNotFound(c, "category")
		return
	}

	var existing models.CategoryFollow
	err := database.DB.Where("user_id = ? AND category_id = ?", userID, category.ID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"following": true})
		return
	}

	follow := models.CategoryFollow{UserID: userID, CategoryID: category.ID}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, "failed to follow category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowCategory removes a category subscription
// DELETE /api/v1/categories/:slug/follow
func (h *Handlers) UnfollowCategory(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var category models.Category
	if err := database.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		util.RespondNotFound(c, "category")
		return
	}

	if err := database.DB.Where("user_id = ? AND category_id = ?", userID, category.ID).
		Delete(&models.CategoryFollow{}).Error; err != nil {
		util.RespondInternalError(c, "failed to unfollow category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": false})
}

// respondUserList resolves a subquery of user ids into public profiles.
func (h *Handlers) respondUserList(c *gin.Context, idQuery *gorm.DB, limit, offset int) {
	var users []models.User
	err := database.DB.
		Where("id IN (?)", idQuery).
		Order("handle ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load users")
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
