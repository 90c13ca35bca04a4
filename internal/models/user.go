package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account holder. Accounts start inactive and become active once
// the email confirmation link is followed; inactive accounts cannot log in.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `gorm:"type:text" json:"bio"`
	// ProfilePic is the avatar path relative to the media root.
	ProfilePic string     `json:"profile_pic"`
	IsActive   bool       `gorm:"not null;default:false" json:"is_active"`
	IsAdmin    bool       `gorm:"not null;default:false" json:"-"`
	LastLogin  *time.Time `json:"last_login,omitempty"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Profile is the public projection of a user, safe to embed in posts and
// comments returned to any viewer.
type Profile struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Bio        string `json:"bio,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

// Profile returns the public projection of the user.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:         u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Bio:        u.Bio,
		ProfilePic: u.ProfilePic,
	}
}
