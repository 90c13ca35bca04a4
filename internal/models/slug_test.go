package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "basic", title: "Hello World", want: "hello-world"},
		{name: "punctuation dropped", title: "Hello, World!", want: "hello-world"},
		{name: "collapses whitespace", title: "a   b\t c", want: "a-b-c"},
		{name: "keeps unicode script", title: "سلام دنیا", want: "سلام-دنیا"},
		{name: "mixed", title: "Go 1.26 Released", want: "go-126-released"},
		{name: "leading and trailing trimmed", title: " -- padded -- ", want: "padded"},
		{name: "empty", title: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

// The slug must be a deterministic function of the title alone.
func TestSlugify_Deterministic(t *testing.T) {
	for _, title := range []string{"Hello World", "دنیای وب", "Mixed سلام Title"} {
		assert.Equal(t, Slugify(title), Slugify(title))
	}
}
