package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/util"
)

// GetProfile returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetProfile(c *gin.Context) {
	targetID, err := util.ParseUint(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid user id")
		return
	}

	var user models.User
	if err := database.DB.First(&user, targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	isFollowing := false
	if viewerID := util.ViewerID(c); viewerID != 0 && viewerID != user.ID {
		var count int64
		database.DB.Model(&models.UserFollow{}).
			Where("follower_id = ? AND followee_id = ?", viewerID, user.ID).
			Count(&count)
		isFollowing = count > 0
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user.Public(),
		"is_following": isFollowing,
	})
}

// GetProfileByHandle returns a user's public profile by handle, matched
// case-insensitively
// GET /api/v1/users/handle/:handle
func (h *Handlers) GetProfileByHandle(c *gin.Context) {
	var user models.User
	err := database.DB.Where("LOWER(handle) = LOWER(?)", c.Param("handle")).First(&user).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// UpdateProfileRequest is the request body for editing the current profile.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=50"`
	Bio         *string `json:"bio,omitempty" binding:"omitempty,max=500"`
}

// UpdateProfile edits the current user's display name or bio
// PUT /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := database.DB.Save(user).Error; err != nil {
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
