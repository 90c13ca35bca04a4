package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a blog post. Content is rich-text HTML, sanitized before it
// is persisted. The slug is recomputed from the title on every save.
type Post struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	Title     string `gorm:"uniqueIndex;not null" json:"title"`
	Slug      string `gorm:"uniqueIndex;not null" json:"slug"`
	Content   string `gorm:"type:text;not null" json:"content,omitempty"`
	AuthorID  uint   `gorm:"not null;index" json:"-"`
	Author    User   `gorm:"foreignKey:AuthorID" json:"-"`
	Published bool   `gorm:"not null;default:true" json:"published"`
	Tags      []Tag  `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"-"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes"`
	// Liked indicates whether the requesting viewer liked this post (computed;
	// always false for anonymous viewers)
	Liked bool `gorm:"->" json:"you_liked"`
	// TagNames is the flat tag name list assembled by the repository
	TagNames []string `gorm:"-" json:"tags_list"`
	// AuthorInfo is the public author projection assembled by the repository
	AuthorInfo *Profile `gorm:"-" json:"author,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeSave keeps the slug a pure function of the title.
func (p *Post) BeforeSave(*gorm.DB) error {
	p.Slug = Slugify(p.Title)
	return nil
}
