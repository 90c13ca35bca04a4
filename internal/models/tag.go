package models

import (
	"strings"

	"gorm.io/gorm"
)

// tagPunctuation is the ASCII punctuation stripped from tag names during
// normalization. Non-ASCII characters are left untouched.
const tagPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^`{|}~"

// Tag is a canonical label attached to posts. Names are stored
// post-normalization only; no two rows normalize to the same string. Tag rows
// outlive the posts that reference them and are never deleted by post edits.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"-"`
	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Posts []Post `gorm:"many2many:post_tags" json:"-"`

	// PostsCount is not persisted; computed at query time
	PostsCount int `gorm:"->" json:"posts_count"`
}

// NormalizeTagName canonicalizes a raw tag name: lowercase, ASCII punctuation
// removed. Pure and idempotent; normalizing an already-normalized name returns
// it unchanged.
func NormalizeTagName(name string) string {
	lowered := strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		if r < 128 && strings.ContainsRune(tagPunctuation, r) {
			return -1
		}
		return r
	}, lowered)
}

// BeforeSave guarantees the storage invariant even for rows created outside
// the tag linker.
func (t *Tag) BeforeSave(*gorm.DB) error {
	t.Name = NormalizeTagName(t.Name)
	return nil
}
