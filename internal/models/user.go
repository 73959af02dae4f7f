// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account holder. ID is assigned by the store and is never reused.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"_id"`
	Username       string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email,omitempty"`
	Password       string    `gorm:"not null" json:"-"`
	Bio            string    `gorm:"type:text;not null;default:''" json:"bio"`
	ProfilePicture string    `gorm:"type:text" json:"-"`
	ProfileBanner  string    `gorm:"type:text" json:"-"`
	Verified       bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"-"`
}

// Principal is the read-only identity attached to an authenticated request.
type Principal struct {
	ID        uint      `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Principal returns the identity view of u.
func (u *User) Principal() *Principal {
	return &Principal{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
