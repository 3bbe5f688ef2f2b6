package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test_jwt_secret_key")

// fakeResolver counts identity lookups so tests can assert the middleware
// performs exactly one per authenticated request and none otherwise.
type fakeResolver struct {
	users map[string]*models.User
	calls int
}

func (f *fakeResolver) FindByHandle(handle string) (*models.User, error) {
	f.calls++
	if user, ok := f.users[handle]; ok {
		return user, nil
	}
	return nil, auth.ErrUserNotFound
}

func newAuthTestRouter(resolver *fakeResolver) (*gin.Engine, *auth.TokenCodec) {
	gin.SetMode(gin.TestMode)
	codec := auth.NewTokenCodec(testSecret)

	r := gin.New()
	r.GET("/protected", Authenticate(codec, resolver), func(c *gin.Context) {
		userID := c.GetUint("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/open", OptionalAuth(codec, resolver), func(c *gin.Context) {
		userID := c.GetUint("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r, codec
}

func doRequest(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateRejectsMissingCredential(t *testing.T) {
	resolver := &fakeResolver{}
	r, _ := newAuthTestRouter(resolver)

	w := doRequest(r, "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthenticated")
	// No credential means no identity lookup at all
	assert.Equal(t, 0, resolver.calls)
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	user := &models.User{ID: 7, Handle: "alice"}
	resolver := &fakeResolver{users: map[string]*models.User{"alice": user}}
	r, codec := newAuthTestRouter(resolver)

	token, _, err := codec.Issue("alice")
	require.NoError(t, err)

	w := doRequest(r, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Equal(t, 1, resolver.calls)
}

func TestAuthenticateAcceptsBareToken(t *testing.T) {
	user := &models.User{ID: 7, Handle: "alice"}
	resolver := &fakeResolver{users: map[string]*models.User{"alice": user}}
	r, codec := newAuthTestRouter(resolver)

	token, _, err := codec.Issue("alice")
	require.NoError(t, err)

	w := doRequest(r, "/protected", token)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateRejectsInvalidToken(t *testing.T) {
	resolver := &fakeResolver{}
	r, _ := newAuthTestRouter(resolver)

	w := doRequest(r, "/protected", "Bearer not-a-real-token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_token")
	assert.Equal(t, 0, resolver.calls)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	resolver := &fakeResolver{}
	r, _ := newAuthTestRouter(resolver)

	expired := issueExpired(t, "alice")
	w := doRequest(r, "/protected", "Bearer "+expired)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_expired")
	assert.Equal(t, 0, resolver.calls)
}

func TestAuthenticateRejectsUnknownSubject(t *testing.T) {
	// Valid signature, but the account no longer exists
	resolver := &fakeResolver{}
	r, codec := newAuthTestRouter(resolver)

	token, _, err := codec.Issue("ghost")
	require.NoError(t, err)

	w := doRequest(r, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_subject")
	assert.Equal(t, 1, resolver.calls)
}

func TestOptionalAuthContinuesAnonymously(t *testing.T) {
	resolver := &fakeResolver{}
	r, _ := newAuthTestRouter(resolver)

	w := doRequest(r, "/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":0`)

	w = doRequest(r, "/open", "Bearer junk")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":0`)
}

func TestOptionalAuthAttachesIdentityWhenPresent(t *testing.T) {
	user := &models.User{ID: 7, Handle: "alice"}
	resolver := &fakeResolver{users: map[string]*models.User{"alice": user}}
	r, codec := newAuthTestRouter(resolver)

	token, _, err := codec.Issue("alice")
	require.NoError(t, err)

	w := doRequest(r, "/open", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set("user", &models.User{ID: 1, Role: models.RoleUser})
	}, RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/admin2", func(c *gin.Context) {
		c.Set("user", &models.User{ID: 1, Role: models.RoleAdmin})
	}, RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(r, "/admin", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, "/admin2", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// issueExpired signs a token whose lifetime is already over.
func issueExpired(t *testing.T, handle string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": handle,
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}
