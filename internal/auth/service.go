package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrHandleExists       = errors.New("handle already taken")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTwoFactorRequired  = errors.New("two-factor code required")
	ErrInvalidTwoFactor   = errors.New("invalid two-factor code")
)

// Service handles registration, login, and identity lookup
type Service struct {
	codec *TokenCodec
}

// NewService creates the authentication service around the process-wide
// signing key.
func NewService(jwtSecret []byte) *Service {
	return &Service{codec: NewTokenCodec(jwtSecret)}
}

// Codec exposes the token codec for the auth middleware.
func (s *Service) Codec() *TokenCodec {
	return s.codec
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Handle      string `json:"handle" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=50"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Handle   string `json:"handle" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user with handle/email/password
func (s *Service) Register(req RegisterRequest) (*AuthResponse, error) {
	var existing models.User

	err := database.DB.Where("LOWER(handle) = LOWER(?)", req.Handle).First(&existing).Error
	if err == nil {
		return nil, ErrHandleExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	err = database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Handle:       req.Handle,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hashed),
		Role:         models.RoleUser,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueForUser(&user)
}

// Login authenticates with handle/password. When the account has two-factor
// enabled, it returns ErrTwoFactorRequired and the handler completes the
// flow through VerifyTwoFactorLogin.
func (s *Service) Login(req LoginRequest) (*AuthResponse, error) {
	user, err := s.FindByHandle(req.Handle)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorRequired
	}

	now := time.Now()
	user.LastActiveAt = &now
	database.DB.Save(user)

	return s.issueForUser(user)
}

// VerifyTwoFactorLogin completes a login for a 2FA-enabled account.
func (s *Service) VerifyTwoFactorLogin(handle, code string) (*AuthResponse, error) {
	user, err := s.FindByHandle(handle)
	if err != nil {
		return nil, err
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, ErrInvalidTwoFactor
	}

	if !totp.Validate(code, *user.TwoFactorSecret) {
		return nil, ErrInvalidTwoFactor
	}

	now := time.Now()
	user.LastActiveAt = &now
	database.DB.Save(user)

	return s.issueForUser(user)
}

// FindByHandle resolves a handle to a user (case-insensitive). This is the
// identity lookup the auth middleware performs once per request.
func (s *Service) FindByHandle(handle string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(handle) = LOWER(?)", handle).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &user, nil
}

// SetRole changes an account's privilege level. Sessions are stateless, so
// the change takes effect on the subject's next request; there is no token
// to revoke.
func SetRole(handle string, role models.Role) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(handle) = LOWER(?)", handle).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.Role == role {
		return &user, nil
	}

	user.Role = role
	if err := database.DB.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return &user, nil
}

// issueForUser creates a session token and auth response
func (s *Service) issueForUser(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.codec.Issue(user.Handle)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:     token,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}
