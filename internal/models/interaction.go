package models

import "time"

// ThreadLike is a like edge between a user and a thread. Presence means the
// user liked the thread; there is no separate state column.
type ThreadLike struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;index:idx_thread_likes_unique,unique" json:"user_id"`
	ThreadID uint `gorm:"not null;index:idx_thread_likes_unique,unique" json:"thread_id"`

	CreatedAt time.Time `json:"created_at"`
}

// SavedThread is a bookmark edge between a user and a thread.
type SavedThread struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;index:idx_saved_threads_unique,unique" json:"user_id"`
	ThreadID uint `gorm:"not null;index:idx_saved_threads_unique,unique" json:"thread_id"`

	CreatedAt time.Time `json:"created_at"`
}

// UserFollow is a follow edge between two users.
type UserFollow struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	FollowerID uint `gorm:"not null;index:idx_user_follows_unique,unique" json:"follower_id"`
	FolloweeID uint `gorm:"not null;index:idx_user_follows_unique,unique" json:"followee_id"`

	CreatedAt time.Time `json:"created_at"`
}

// CategoryFollow subscribes a user to a category's threads.
type CategoryFollow struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"not null;index:idx_category_follows_unique,unique" json:"user_id"`
	CategoryID uint `gorm:"not null;index:idx_category_follows_unique,unique" json:"category_id"`

	CreatedAt time.Time `json:"created_at"`
}
