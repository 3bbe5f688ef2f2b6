package models

import (
	"time"

	"gorm.io/gorm"
)

// ThreadStatus is a thread's visibility state. Unknown values stored in the
// database decode to draft, the least visible state.
type ThreadStatus string

const (
	ThreadStatusDraft     ThreadStatus = "draft"
	ThreadStatusScheduled ThreadStatus = "scheduled"
	ThreadStatusPublished ThreadStatus = "published"
)

// ParseThreadStatus converts a raw string to a ThreadStatus, falling back
// to draft on unrecognized input.
func ParseThreadStatus(s string) ThreadStatus {
	switch ThreadStatus(s) {
	case ThreadStatusDraft, ThreadStatusScheduled, ThreadStatusPublished:
		return ThreadStatus(s)
	default:
		return ThreadStatusDraft
	}
}

// Scan implements sql.Scanner with the same fallback as ParseThreadStatus.
func (s *ThreadStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = ParseThreadStatus(v)
	case []byte:
		*s = ParseThreadStatus(string(v))
	default:
		*s = ThreadStatusDraft
	}
	return nil
}

// MaxPostLength is the per-segment content limit.
const MaxPostLength = 2000

// Thread is a multi-part post: an ordered sequence of text segments with a
// visibility state, optional category, and denormalized counters.
type Thread struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Posts []Post `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`

	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// Visibility: only published threads appear in feeds and listings.
	// Scheduled threads carry ScheduledFor and are flipped to published by
	// the publisher job once that time has elapsed.
	Status       ThreadStatus `gorm:"type:varchar(16);default:draft;index" json:"status"`
	ScheduledFor *time.Time   `gorm:"index" json:"scheduled_for,omitempty"`

	// Denormalized counters, maintained with atomic column updates
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`
	ViewCount    int `gorm:"default:0" json:"view_count"`
	SaveCount    int `gorm:"default:0" json:"save_count"`

	Images []ThreadImage `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"images,omitempty"`

	// Like edges, preloaded alongside the thread so enrichment can compute
	// is_liked without another query
	Likes []ThreadLike `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Post is one text segment of a thread. Position determines the public
// narrative order and is unique within a thread.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ThreadID uint   `gorm:"not null;index:idx_posts_thread_position,unique" json:"thread_id"`
	Position int    `gorm:"not null;index:idx_posts_thread_position,unique" json:"position"`
	Content  string `gorm:"type:varchar(2000);not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThreadImage is an image attached to a thread.
type ThreadImage struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ThreadID uint   `gorm:"not null;index" json:"thread_id"`
	URL      string `gorm:"not null" json:"url"`
	Position int    `gorm:"default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
}

// Category groups threads by topic.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	ThreadCount int `gorm:"default:0" json:"thread_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
