package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/util"
)

// Register creates a new account and returns a session token
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrHandleExists):
			util.RespondConflict(c, "handle")
		case errors.Is(err, auth.ErrEmailExists):
			util.RespondConflict(c, "email")
		default:
			util.RespondInternalError(c, "failed to register")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates with handle/password and returns a session token.
// Accounts with two-factor enabled get a requires_2fa response instead and
// finish through the 2FA verify endpoint.
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTwoFactorRequired):
			c.JSON(http.StatusOK, gin.H{
				"requires_2fa": true,
				"handle":       req.Handle,
			})
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			// Same response for both so login can't be used to probe
			// which handles exist
			util.RespondUnauthorized(c, "invalid credentials")
		default:
			util.RespondInternalError(c, "failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's own account
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
