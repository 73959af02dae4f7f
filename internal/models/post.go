package models

import (
	"time"
)

// Post represents a post. Its ID is an opaque random decimal string.
type Post struct {
	ID        string    `gorm:"primaryKey;size:32" json:"_id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"authorId"`
	Author    User      `gorm:"foreignKey:UserID" json:"author"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	// HeartsCount is not persisted; computed at query time
	HeartsCount int `gorm:"->;-:migration" json:"heartsCount"`
	// Hearted reports whether the requesting user hearted the post (computed)
	Hearted bool `gorm:"->;-:migration" json:"hearted"`
	// TimeAgo is rendered at response time
	TimeAgo string `gorm:"-" json:"timeAgo,omitempty"`
}

// Comment is a comment on a post. Comments are ordered by creation.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	PostID    string    `gorm:"size:32;not null;index" json:"postId"`
	UserID    uint      `gorm:"not null" json:"authorId"`
	Author    User      `gorm:"foreignKey:UserID" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Replies   []Reply   `gorm:"foreignKey:CommentID" json:"replies"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reply is a reply to a comment.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	CommentID uint      `gorm:"not null;index" json:"commentId"`
	UserID    uint      `gorm:"not null" json:"authorId"`
	Author    User      `gorm:"foreignKey:UserID" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Heart represents a user's heart on a post.
// The combination of PostID and UserID must be unique.
type Heart struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    string    `gorm:"size:32;not null;uniqueIndex:idx_heart_post_user" json:"postId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_heart_post_user" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
