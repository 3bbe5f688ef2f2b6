package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Verifying seed data...")
	fmt.Println()

	var userCount, threadCount, postCount, commentCount, likeCount, savedCount int64
	database.DB.Model(&models.User{}).Where("deleted_at IS NULL").Count(&userCount)
	database.DB.Model(&models.Thread{}).Where("deleted_at IS NULL").Count(&threadCount)
	database.DB.Model(&models.Post{}).Count(&postCount)
	database.DB.Model(&models.Comment{}).Where("deleted_at IS NULL").Count(&commentCount)
	database.DB.Model(&models.ThreadLike{}).Count(&likeCount)
	database.DB.Model(&models.SavedThread{}).Count(&savedCount)

	fmt.Println("Record counts:")
	fmt.Printf("  Users:    %d\n", userCount)
	fmt.Printf("  Threads:  %d\n", threadCount)
	fmt.Printf("  Posts:    %d\n", postCount)
	fmt.Printf("  Comments: %d\n", commentCount)
	fmt.Printf("  Likes:    %d\n", likeCount)
	fmt.Printf("  Saves:    %d\n", savedCount)
	fmt.Println()

	var byStatus []struct {
		Status string
		Count  int64
	}
	database.DB.Model(&models.Thread{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus)
	fmt.Println("Threads by status:")
	for _, row := range byStatus {
		fmt.Printf("  %-10s %d\n", row.Status, row.Count)
	}
	fmt.Println()

	var users []models.User
	database.DB.Where("deleted_at IS NULL").Limit(3).Find(&users)
	fmt.Println("Sample users:")
	for _, u := range users {
		fmt.Printf("  - %s (@%s) - %d threads, %d followers\n",
			u.DisplayName, u.Handle, u.ThreadCount, u.FollowerCount)
	}
}
