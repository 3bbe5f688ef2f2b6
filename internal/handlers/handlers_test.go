package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/feed"
	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/middleware"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize("error", os.DevNull); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// HandlersTestSuite exercises the HTTP surface end to end against an
// in-memory database.
type HandlersTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *HandlersTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open("file:handlers?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Thread{},
		&models.Post{},
		&models.ThreadImage{},
		&models.ThreadLike{},
		&models.SavedThread{},
		&models.UserFollow{},
		&models.CategoryFollow{},
		&models.Comment{},
		&models.Notification{},
	)
	require.NoError(suite.T(), err)

	database.DB = db
	suite.db = db

	authService := auth.NewService([]byte("test_jwt_secret_key"))
	enricher := feed.NewEngine(repository.NewInteractionRepository(db))
	h := NewHandlers(authService, enricher)

	codec := authService.Codec()
	requireAuth := middleware.Authenticate(codec, authService)
	optionalAuth := middleware.OptionalAuth(codec, authService)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", requireAuth, h.Me)
	api.POST("/threads", requireAuth, h.CreateThread)
	api.GET("/threads/:id", optionalAuth, h.GetThread)
	api.PUT("/threads/:id", requireAuth, h.UpdateThread)
	api.POST("/threads/:id/like", requireAuth, h.LikeThread)
	api.POST("/threads/:id/save", requireAuth, h.SaveThread)
	api.DELETE("/threads/:id/save", requireAuth, h.UnsaveThread)
	api.POST("/threads/:id/comments", requireAuth, h.CreateComment)
	api.GET("/threads/:id/comments", h.GetComments)
	api.GET("/feed/global", optionalAuth, h.GetGlobalFeed)
	api.GET("/users/me/saved", requireAuth, h.GetSavedThreads)
	api.GET("/notifications", requireAuth, h.GetNotifications)
	api.GET("/notifications/unread", requireAuth, h.GetUnreadCount)

	suite.router = r
}

// SetupTest wipes all rows before each test
func (suite *HandlersTestSuite) SetupTest() {
	for _, table := range []interface{}{
		&models.Notification{}, &models.Comment{}, &models.ThreadLike{},
		&models.SavedThread{}, &models.UserFollow{}, &models.CategoryFollow{},
		&models.ThreadImage{}, &models.Post{}, &models.Thread{},
		&models.Category{}, &models.User{},
	} {
		suite.db.Unscoped().Where("1 = 1").Delete(table)
	}
}

func (suite *HandlersTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// registerUser creates an account through the API and returns its token.
func (suite *HandlersTestSuite) registerUser(handle string) string {
	w := suite.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"handle":       handle,
		"email":        handle + "@example.com",
		"password":     "password123",
		"display_name": handle,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(suite.T(), resp.Token)
	return resp.Token
}

func (suite *HandlersTestSuite) createThread(token string, posts []string, status string) uint {
	w := suite.request(http.MethodPost, "/api/v1/threads", token, gin.H{
		"posts":  posts,
		"status": status,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ThreadID uint `json:"thread_id"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ThreadID
}

func (suite *HandlersTestSuite) TestRegisterLoginMe() {
	token := suite.registerUser("alice")

	w := suite.request(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"handle":"alice"`)

	w = suite.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"handle": "alice", "password": "password123",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// Bad password and unknown handle read identically
	w = suite.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"handle": "alice", "password": "nope-nope-nope",
	})
	bad := w.Code
	w = suite.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"handle": "nobody", "password": "password123",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, bad)
	assert.Equal(suite.T(), bad, w.Code)
}

func (suite *HandlersTestSuite) TestThreadRoundTrip() {
	token := suite.registerUser("alice")
	threadID := suite.createThread(token, []string{"first segment", "second segment"}, "published")

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/v1/threads/%d", threadID), "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Thread feed.ThreadResponse `json:"thread"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(suite.T(), resp.Thread.Posts, 2)
	assert.Equal(suite.T(), "first segment", resp.Thread.Posts[0].Content)
	assert.Equal(suite.T(), "second segment", resp.Thread.Posts[1].Content)
	assert.Equal(suite.T(), "alice", resp.Thread.Author.Handle)
	assert.False(suite.T(), resp.Thread.IsLiked)
	assert.False(suite.T(), resp.Thread.IsSaved)
}

func (suite *HandlersTestSuite) TestDraftHiddenFromOthers() {
	owner := suite.registerUser("owner")
	other := suite.registerUser("other")
	threadID := suite.createThread(owner, []string{"work in progress"}, "draft")

	path := fmt.Sprintf("/api/v1/threads/%d", threadID)

	// Anonymous and other users see a 404, the owner sees the draft
	w := suite.request(http.MethodGet, path, "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, path, other, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, path, owner, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestScheduledThreadValidation() {
	token := suite.registerUser("alice")

	w := suite.request(http.MethodPost, "/api/v1/threads", token, gin.H{
		"posts":  []string{"later"},
		"status": "scheduled",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/threads", token, gin.H{
		"posts":         []string{"later"},
		"status":        "scheduled",
		"scheduled_for": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/threads", token, gin.H{
		"posts":         []string{"later"},
		"status":        "scheduled",
		"scheduled_for": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
}

func (suite *HandlersTestSuite) TestSaveAndLikeFlow() {
	author := suite.registerUser("author")
	viewer := suite.registerUser("viewer")
	threadID := suite.createThread(author, []string{"hello"}, "published")

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/save", threadID), viewer, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	w = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/like", threadID), viewer, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	// The personalized view reflects both edges
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/threads/%d", threadID), viewer, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var resp struct {
		Thread feed.ThreadResponse `json:"thread"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(suite.T(), resp.Thread.IsSaved)
	assert.True(suite.T(), resp.Thread.IsLiked)
	assert.Equal(suite.T(), 1, resp.Thread.LikeCount)
	assert.Equal(suite.T(), 1, resp.Thread.SaveCount)

	// Anonymous viewers get bare flags on the same thread
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/threads/%d", threadID), "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(suite.T(), resp.Thread.IsSaved)
	assert.False(suite.T(), resp.Thread.IsLiked)

	// Saved listing contains the thread; unsaving empties it
	w = suite.request(http.MethodGet, "/api/v1/users/me/saved", viewer, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"is_saved":true`)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/threads/%d/save", threadID), viewer, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/threads/%d/save", threadID), viewer, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGlobalFeedPersonalization() {
	author := suite.registerUser("author")
	viewer := suite.registerUser("viewer")

	var ids []uint
	for i := 0; i < 4; i++ {
		ids = append(ids, suite.createThread(author, []string{fmt.Sprintf("thread %d", i)}, "published"))
	}
	// Save two of the four
	for _, id := range []uint{ids[1], ids[3]} {
		w := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/save", id), viewer, nil)
		require.Equal(suite.T(), http.StatusOK, w.Code)
	}

	w := suite.request(http.MethodGet, "/api/v1/feed/global", viewer, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var resp struct {
		Threads []feed.ThreadResponse `json:"threads"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(suite.T(), resp.Threads, 4)

	savedByID := map[uint]bool{}
	for _, thread := range resp.Threads {
		savedByID[thread.ID] = thread.IsSaved
	}
	assert.False(suite.T(), savedByID[ids[0]])
	assert.True(suite.T(), savedByID[ids[1]])
	assert.False(suite.T(), savedByID[ids[2]])
	assert.True(suite.T(), savedByID[ids[3]])
}

func (suite *HandlersTestSuite) TestUpdateThreadKeepsCountersBalanced() {
	token := suite.registerUser("alice")

	var category models.Category
	require.NoError(suite.T(), suite.db.Create(&models.Category{Name: "general", Slug: "general"}).Error)
	require.NoError(suite.T(), suite.db.Where("slug = ?", "general").First(&category).Error)

	w := suite.request(http.MethodPost, "/api/v1/threads", token, gin.H{
		"posts":       []string{"hello"},
		"status":      "published",
		"category_id": category.ID,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ThreadID uint `json:"thread_id"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &created))

	userCount := func() int {
		var user models.User
		require.NoError(suite.T(), suite.db.Where("handle = ?", "alice").First(&user).Error)
		return user.ThreadCount
	}
	categoryCount := func() int {
		var reloaded models.Category
		require.NoError(suite.T(), suite.db.First(&reloaded, category.ID).Error)
		return reloaded.ThreadCount
	}

	require.Equal(suite.T(), 1, userCount())
	require.Equal(suite.T(), 1, categoryCount())

	path := fmt.Sprintf("/api/v1/threads/%d", created.ThreadID)

	// Pulling the thread back to draft releases both counters
	w = suite.request(http.MethodPut, path, token, gin.H{"status": "draft"})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), 0, userCount())
	assert.Equal(suite.T(), 0, categoryCount())

	// Republishing restores them; no drift across the round trip
	w = suite.request(http.MethodPut, path, token, gin.H{"status": "published"})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), 1, userCount())
	assert.Equal(suite.T(), 1, categoryCount())

	// An edit that leaves the status alone touches neither counter
	w = suite.request(http.MethodPut, path, token, gin.H{"posts": []string{"hello again"}})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), 1, userCount())
	assert.Equal(suite.T(), 1, categoryCount())
}

func (suite *HandlersTestSuite) TestCommentsAndNotifications() {
	author := suite.registerUser("author")
	commenter := suite.registerUser("commenter")
	threadID := suite.createThread(author, []string{"discuss"}, "published")

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/comments", threadID), commenter, gin.H{
		"content": "nice thread",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/threads/%d/comments", threadID), "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "nice thread")

	// The author got a notification, the commenter did not
	w = suite.request(http.MethodGet, "/api/v1/notifications/unread", author, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"unread":1`)

	w = suite.request(http.MethodGet, "/api/v1/notifications/unread", commenter, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"unread":0`)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
