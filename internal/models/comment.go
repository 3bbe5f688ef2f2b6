package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply on a thread. One level of nesting via ParentID.
type Comment struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ThreadID uint `gorm:"not null;index" json:"thread_id"`
	UserID   uint `gorm:"not null;index" json:"user_id"`
	User     User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content  string `gorm:"type:varchar(2000);not null" json:"content"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NotificationKind distinguishes notification events.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
)

// Notification is delivered to a user when someone interacts with them or
// their content.
type Notification struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	RecipientID uint  `gorm:"not null;index" json:"recipient_id"`
	ActorID     uint  `gorm:"not null" json:"actor_id"`
	Actor       User  `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	ThreadID    *uint `json:"thread_id,omitempty"`

	Kind NotificationKind `gorm:"type:varchar(16);not null" json:"kind"`
	Read bool             `gorm:"default:false;index" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}
