package auth

import (
	"testing"

	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
}

// SetupSuite initializes the test database and auth service
func (suite *AuthServiceTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open("file:authservice?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), db.AutoMigrate(&models.User{}))

	database.DB = db
	suite.db = db
	suite.service = NewService([]byte("test_jwt_secret_key"))
}

// SetupTest cleans the database before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db.Unscoped().Where("1 = 1").Delete(&models.User{})
}

func (suite *AuthServiceTestSuite) TestRegisterAndLogin() {
	resp, err := suite.service.Register(RegisterRequest{
		Handle:      "alice",
		Email:       "alice@example.com",
		Password:    "password123",
		DisplayName: "Alice",
	})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.Token)
	assert.Equal(suite.T(), "alice", resp.User.Handle)
	assert.NotEqual(suite.T(), "password123", resp.User.PasswordHash)

	login, err := suite.service.Login(LoginRequest{Handle: "alice", Password: "password123"})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), login.Token)

	// The issued token verifies back to the handle
	handle, err := suite.service.Codec().Verify(login.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", handle)
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsDuplicateHandle() {
	_, err := suite.service.Register(RegisterRequest{
		Handle: "alice", Email: "alice@example.com", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(suite.T(), err)

	// Same handle, different case
	_, err = suite.service.Register(RegisterRequest{
		Handle: "ALICE", Email: "other@example.com", Password: "password123", DisplayName: "Other",
	})
	assert.ErrorIs(suite.T(), err, ErrHandleExists)

	_, err = suite.service.Register(RegisterRequest{
		Handle: "bob", Email: "Alice@Example.com", Password: "password123", DisplayName: "Bob",
	})
	assert.ErrorIs(suite.T(), err, ErrEmailExists)
}

func (suite *AuthServiceTestSuite) TestLoginRejectsBadCredentials() {
	_, err := suite.service.Register(RegisterRequest{
		Handle: "alice", Email: "alice@example.com", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(suite.T(), err)

	_, err = suite.service.Login(LoginRequest{Handle: "alice", Password: "wrong-password"})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	_, err = suite.service.Login(LoginRequest{Handle: "nobody", Password: "password123"})
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func (suite *AuthServiceTestSuite) TestFindByHandleIsCaseInsensitive() {
	_, err := suite.service.Register(RegisterRequest{
		Handle: "Alice", Email: "alice@example.com", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(suite.T(), err)

	user, err := suite.service.FindByHandle("alice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Alice", user.Handle)

	_, err = suite.service.FindByHandle("ghost")
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func (suite *AuthServiceTestSuite) TestLoginWithTwoFactorEnabled() {
	resp, err := suite.service.Register(RegisterRequest{
		Handle: "alice", Email: "alice@example.com", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(suite.T(), err)

	secret := "JBSWY3DPEHPK3PXP"
	suite.db.Model(&models.User{}).Where("id = ?", resp.User.ID).Updates(map[string]interface{}{
		"two_factor_enabled": true,
		"two_factor_secret":  secret,
	})

	_, err = suite.service.Login(LoginRequest{Handle: "alice", Password: "password123"})
	assert.ErrorIs(suite.T(), err, ErrTwoFactorRequired)

	_, err = suite.service.VerifyTwoFactorLogin("alice", "000000")
	assert.ErrorIs(suite.T(), err, ErrInvalidTwoFactor)
}

func (suite *AuthServiceTestSuite) TestSetRole() {
	resp, err := suite.service.Register(RegisterRequest{
		Handle: "alice", Email: "alice@example.com", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleUser, resp.User.Role)

	// Promotion is visible to the next identity lookup
	promoted, err := SetRole("ALICE", models.RoleAdmin)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), promoted.IsAdmin())

	user, err := suite.service.FindByHandle("alice")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), user.IsAdmin())

	demoted, err := SetRole("alice", models.RoleUser)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), demoted.IsAdmin())

	_, err = SetRole("ghost", models.RoleAdmin)
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
