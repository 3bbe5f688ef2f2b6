package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/cache"
	"github.com/loomline/backend/internal/config"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/feed"
	"github.com/loomline/backend/internal/handlers"
	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/metrics"
	"github.com/loomline/backend/internal/middleware"
	"github.com/loomline/backend/internal/repository"
	"github.com/loomline/backend/internal/scheduler"
	"github.com/loomline/backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Loomline server starting ===",
		zap.String("environment", cfg.Environment),
	)

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; rate limiting and the unread-count cache degrade
	// gracefully without it
	if cfg.RedisHost != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "loomline-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TraceSample,
	})
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	metrics.Initialize()

	authService := auth.NewService(cfg.JWTSecret)
	interactions := repository.NewInteractionRepository(database.DB)
	enricher := feed.NewEngine(interactions)
	h := handlers.NewHandlers(authService, enricher)

	publisher := scheduler.NewPublisher(repository.NewPublicationRepository(database.DB))
	publisher.Start()
	defer publisher.Stop()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("loomline-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "loomline-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	codec := authService.Codec()
	requireAuth := middleware.Authenticate(codec, authService)
	optionalAuth := middleware.OptionalAuth(codec, authService)

	api := r.Group("/api/v1")
	{
		// Authentication routes (public, rate limited)
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RedisRateLimitMiddleware(20, time.Minute))
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/2fa/login", h.TwoFactorLogin)

			authGroup.GET("/me", requireAuth, h.Me)
			authGroup.POST("/2fa/enable", requireAuth, h.Enable2FA)
			authGroup.POST("/2fa/verify", requireAuth, h.Verify2FA)
			authGroup.POST("/2fa/disable", requireAuth, h.Disable2FA)
		}

		// Feed routes: public, personalized when a token is presented
		feedGroup := api.Group("/feed")
		{
			feedGroup.GET("/global", optionalAuth, h.GetGlobalFeed)
			feedGroup.GET("/home", requireAuth, h.GetHomeFeed)
		}

		// Thread routes
		threads := api.Group("/threads")
		{
			threads.POST("", requireAuth, h.CreateThread)
			threads.GET("/:id", optionalAuth, h.GetThread)
			threads.PUT("/:id", requireAuth, h.UpdateThread)
			threads.DELETE("/:id", requireAuth, h.DeleteThread)

			threads.POST("/:id/like", requireAuth, h.LikeThread)
			threads.DELETE("/:id/like", requireAuth, h.UnlikeThread)
			threads.POST("/:id/save", requireAuth, h.SaveThread)
			threads.DELETE("/:id/save", requireAuth, h.UnsaveThread)

			threads.POST("/:id/comments", requireAuth, h.CreateComment)
			threads.GET("/:id/comments", h.GetComments)
		}

		comments := api.Group("/comments")
		{
			comments.DELETE("/:id", requireAuth, h.DeleteComment)
		}

		// User routes
		users := api.Group("/users")
		{
			users.GET("/me/saved", requireAuth, h.GetSavedThreads)
			users.PUT("/me", requireAuth, h.UpdateProfile)

			users.GET("/:id", optionalAuth, h.GetProfile)
			users.GET("/:id/threads", optionalAuth, h.ListUserThreads)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
			users.POST("/:id/follow", requireAuth, h.FollowUser)
			users.DELETE("/:id/follow", requireAuth, h.UnfollowUser)
		}
		api.GET("/users/handle/:handle", h.GetProfileByHandle)

		// Category routes
		categories := api.Group("/categories")
		{
			categories.GET("", h.ListCategories)
			categories.POST("", requireAuth, middleware.RequireAdmin(), h.CreateCategory)
			categories.GET("/:slug", h.GetCategory)
			categories.GET("/:slug/threads", optionalAuth, h.ListCategoryThreads)
			categories.POST("/:slug/follow", requireAuth, h.FollowCategory)
			categories.DELETE("/:slug/follow", requireAuth, h.UnfollowCategory)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(requireAuth)
			notifications.GET("", h.GetNotifications)
			notifications.GET("/unread", h.GetUnreadCount)
			notifications.POST("/read", h.MarkNotificationsRead)
		}

		// Search routes (public)
		search := api.Group("/search")
		{
			search.GET("/users", h.SearchUsers)
			search.GET("/threads", optionalAuth, h.SearchThreads)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		logger.Log.Error("Failed to close database", zap.Error(err))
	}

	logger.Log.Info("Server stopped")
}
