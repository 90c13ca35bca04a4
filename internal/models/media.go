package models

import (
	"time"

	"gorm.io/gorm"
)

// Media is a stored file reference owned by exactly one user. The file itself
// lives on disk under the configured media root; Path is relative to it.
type Media struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Path        string `gorm:"not null" json:"file"`
	Filename    string `gorm:"not null" json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	AuthorID    uint   `gorm:"not null;index" json:"-"`
	Author      User   `gorm:"foreignKey:AuthorID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
