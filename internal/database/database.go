package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/loomline/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "loomline")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("Database connected")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Post{},
		&models.ThreadImage{},
		&models.Category{},
		&models.ThreadLike{},
		&models.SavedThread{},
		&models.UserFollow{},
		&models.CategoryFollow{},
		&models.Comment{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// User lookup by handle is on the auth hot path (one per request)
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_handle_lower ON users (LOWER(handle))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")

	// Thread listing queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_threads_user_created ON threads (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_threads_status_created ON threads (status, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_threads_category_created ON threads (category_id, created_at DESC) WHERE category_id IS NOT NULL")

	// The publisher job scans scheduled threads by due time once a minute
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_threads_scheduled_due ON threads (scheduled_for) WHERE status = 'scheduled'")

	// Interaction lookups: single-item checks and the bulk IN query
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_saved_threads_user ON saved_threads (user_id, thread_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_thread_likes_thread ON thread_likes (thread_id)")

	// Comment retrieval per thread
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_thread_created ON comments (thread_id, created_at)")

	// Notification badge queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_recipient_read ON notifications (recipient_id, read, created_at DESC)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
