package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment belongs to exactly one post. Visible controls whether it appears in
// public listings; hidden comments are still readable by their author.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Content  string `gorm:"type:text;not null" json:"content"`
	AuthorID uint   `gorm:"not null;index" json:"-"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"-"`
	PostID   uint   `gorm:"not null;index" json:"-"`
	Post     Post   `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Visible  bool   `gorm:"not null;default:true" json:"visible"`

	// AuthorInfo is the public author projection assembled by the repository
	AuthorInfo *Profile `gorm:"-" json:"author,omitempty"`
	// PostSlug is assembled by the repository for viewer-scoped listings
	PostSlug string `gorm:"-" json:"post_slug,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
