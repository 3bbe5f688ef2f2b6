package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/util"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// otpIssuer is the name shown in authenticator apps
const otpIssuer = "Loomline"

// Enable2FARequest is the request body for initiating 2FA setup
type Enable2FARequest struct {
	Password string `json:"password" binding:"required"`
}

// Verify2FARequest is the request body for confirming 2FA setup
type Verify2FARequest struct {
	Code string `json:"code" binding:"required"`
}

// TwoFactorLoginRequest completes a login for a 2FA-enabled account
type TwoFactorLoginRequest struct {
	Handle string `json:"handle" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// Enable2FA generates a TOTP secret for the authenticated user. The secret
// only takes effect after Verify2FA confirms a code from the app.
// POST /api/v1/auth/2fa/enable
func (h *Handlers) Enable2FA(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req Enable2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		util.RespondUnauthorized(c, "invalid password")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: user.Handle,
	})
	if err != nil {
		util.RespondInternalError(c, "failed to generate 2FA secret")
		return
	}

	secret := key.Secret()
	user.TwoFactorSecret = &secret
	if err := database.DB.Save(user).Error; err != nil {
		util.RespondInternalError(c, "failed to store 2FA secret")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret":      secret,
		"qr_code_url": key.URL(),
	})
}

// Verify2FA confirms the setup code and turns two-factor on
// POST /api/v1/auth/2fa/verify
func (h *Handlers) Verify2FA(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req Verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if user.TwoFactorSecret == nil {
		util.RespondBadRequest(c, "2FA setup not started")
		return
	}

	if !totp.Validate(req.Code, *user.TwoFactorSecret) {
		util.RespondUnauthorized(c, "invalid 2FA code")
		return
	}

	user.TwoFactorEnabled = true
	if err := database.DB.Save(user).Error; err != nil {
		util.RespondInternalError(c, "failed to enable 2FA")
		return
	}

	c.JSON(http.StatusOK, gin.H{"two_factor_enabled": true})
}

// Disable2FA turns two-factor off after validating a current code
// POST /api/v1/auth/2fa/disable
func (h *Handlers) Disable2FA(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req Verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		util.RespondBadRequest(c, "2FA is not enabled")
		return
	}

	if !totp.Validate(req.Code, *user.TwoFactorSecret) {
		util.RespondUnauthorized(c, "invalid 2FA code")
		return
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = nil
	if err := database.DB.Save(user).Error; err != nil {
		util.RespondInternalError(c, "failed to disable 2FA")
		return
	}

	c.JSON(http.StatusOK, gin.H{"two_factor_enabled": false})
}

// TwoFactorLogin completes a login that required a 2FA code
// POST /api/v1/auth/2fa/login
func (h *Handlers) TwoFactorLogin(c *gin.Context) {
	var req TwoFactorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.VerifyTwoFactorLogin(req.Handle, req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidTwoFactor) {
			util.RespondUnauthorized(c, "invalid 2FA code")
			return
		}
		util.RespondInternalError(c, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}
