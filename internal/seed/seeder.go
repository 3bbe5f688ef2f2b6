package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/loomline/backend/internal/logger"
	"github.com/loomline/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var categoryNames = []string{
	"Technology", "Music", "Gaming", "Books", "Science",
	"Travel", "Food", "Photography", "Fitness", "Film",
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating categories...")
	categories, err := s.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating threads...")
	threads, err := s.seedThreads(users, categories, 200)
	if err != nil {
		return fmt.Errorf("failed to seed threads: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, threads, 500); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating likes and saves...")
	if err := s.seedInteractions(users, threads); err != nil {
		return fmt.Errorf("failed to seed interactions: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, categories); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed cast of users
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		handle      string
		email       string
		displayName string
	}{
		{"alice", "alice@example.com", "Alice Smith"},
		{"bob", "bob@example.com", "Bob Johnson"},
		{"charlie", "charlie@example.com", "Charlie Brown"},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("handle = ? OR email = ?", spec.handle, spec.email).First(&user).Error
		if err == nil {
			continue
		}

		user = models.User{
			Handle:       spec.handle,
			Email:        spec.email,
			DisplayName:  spec.displayName,
			PasswordHash: string(hash),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.handle, err)
		}
	}

	return nil
}

// Clean removes all seeded data. Destructive; development only.
func (s *Seeder) Clean() error {
	tables := []interface{}{
		&models.Notification{},
		&models.Comment{},
		&models.ThreadLike{},
		&models.SavedThread{},
		&models.UserFollow{},
		&models.CategoryFollow{},
		&models.ThreadImage{},
		&models.Post{},
		&models.Thread{},
		&models.Category{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedCategories() ([]models.Category, error) {
	var categories []models.Category
	for _, name := range categoryNames {
		category := models.Category{
			Name:        name,
			Slug:        strings.ToLower(name),
			Description: gofakeit.Sentence(10),
		}
		if err := s.db.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var users []models.User
	for i := 0; i < count; i++ {
		user := models.User{
			Handle:       fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			DisplayName:  gofakeit.Name(),
			Email:        fmt.Sprintf("user%d@%s", i, gofakeit.DomainName()),
			Bio:          gofakeit.Sentence(12),
			PasswordHash: string(hash),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedThreads(users []models.User, categories []models.Category, count int) ([]models.Thread, error) {
	var threads []models.Thread
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		thread := models.Thread{
			UserID: author.ID,
			Status: models.ThreadStatusPublished,
		}
		if rand.Float32() < 0.8 {
			category := categories[rand.Intn(len(categories))]
			thread.CategoryID = &category.ID
		}

		// A few threads stay scheduled so the publisher has work in dev
		if rand.Float32() < 0.05 {
			thread.Status = models.ThreadStatusScheduled
			at := time.Now().Add(time.Duration(rand.Intn(120)) * time.Minute)
			thread.ScheduledFor = &at
		}

		segments := 1 + rand.Intn(5)
		for pos := 0; pos < segments; pos++ {
			thread.Posts = append(thread.Posts, models.Post{
				Position: pos,
				Content:  gofakeit.Paragraph(1, 3, 12, " "),
			})
		}

		if err := s.db.Create(&thread).Error; err != nil {
			return nil, err
		}

		if thread.Status == models.ThreadStatusPublished {
			s.db.Model(&models.User{}).Where("id = ?", author.ID).
				UpdateColumn("thread_count", gorm.Expr("thread_count + 1"))
			if thread.CategoryID != nil {
				s.db.Model(&models.Category{}).Where("id = ?", *thread.CategoryID).
					UpdateColumn("thread_count", gorm.Expr("thread_count + 1"))
			}
		}

		threads = append(threads, thread)
	}
	return threads, nil
}

func (s *Seeder) seedComments(users []models.User, threads []models.Thread, count int) error {
	for i := 0; i < count; i++ {
		thread := threads[rand.Intn(len(threads))]
		if thread.Status != models.ThreadStatusPublished {
			continue
		}
		user := users[rand.Intn(len(users))]

		comment := models.Comment{
			ThreadID: thread.ID,
			UserID:   user.ID,
			Content:  gofakeit.Sentence(8 + rand.Intn(15)),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		s.db.Model(&models.Thread{}).Where("id = ?", thread.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))
	}
	return nil
}

func (s *Seeder) seedInteractions(users []models.User, threads []models.Thread) error {
	for _, thread := range threads {
		if thread.Status != models.ThreadStatusPublished {
			continue
		}
		likers := rand.Intn(len(users) / 2)
		for i := 0; i < likers; i++ {
			user := users[rand.Intn(len(users))]
			like := models.ThreadLike{UserID: user.ID, ThreadID: thread.ID}
			if err := s.db.Where(&like).FirstOrCreate(&like).Error; err != nil {
				return err
			}
		}
		savers := rand.Intn(len(users) / 5)
		for i := 0; i < savers; i++ {
			user := users[rand.Intn(len(users))]
			saved := models.SavedThread{UserID: user.ID, ThreadID: thread.ID}
			if err := s.db.Where(&saved).FirstOrCreate(&saved).Error; err != nil {
				return err
			}
		}

		var likeCount, saveCount int64
		s.db.Model(&models.ThreadLike{}).Where("thread_id = ?", thread.ID).Count(&likeCount)
		s.db.Model(&models.SavedThread{}).Where("thread_id = ?", thread.ID).Count(&saveCount)
		s.db.Model(&models.Thread{}).Where("id = ?", thread.ID).Updates(map[string]interface{}{
			"like_count": likeCount,
			"save_count": saveCount,
		})
	}
	return nil
}

func (s *Seeder) seedFollows(users []models.User, categories []models.Category) error {
	for _, user := range users {
		follows := rand.Intn(10)
		for i := 0; i < follows; i++ {
			target := users[rand.Intn(len(users))]
			if target.ID == user.ID {
				continue
			}
			follow := models.UserFollow{FollowerID: user.ID, FolloweeID: target.ID}
			if err := s.db.Where(&follow).FirstOrCreate(&follow).Error; err != nil {
				return err
			}
		}

		categoryFollows := rand.Intn(4)
		for i := 0; i < categoryFollows; i++ {
			category := categories[rand.Intn(len(categories))]
			follow := models.CategoryFollow{UserID: user.ID, CategoryID: category.ID}
			if err := s.db.Where(&follow).FirstOrCreate(&follow).Error; err != nil {
				return err
			}
		}
	}

	// Recompute the denormalized follow counters in one pass
	for _, user := range users {
		var followers, following int64
		s.db.Model(&models.UserFollow{}).Where("followee_id = ?", user.ID).Count(&followers)
		s.db.Model(&models.UserFollow{}).Where("follower_id = ?", user.ID).Count(&following)
		s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"follower_count":  followers,
			"following_count": following,
		})
	}
	return nil
}
