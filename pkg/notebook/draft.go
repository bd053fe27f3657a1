package notebook

import (
	"fmt"
	"strings"

	"github.com/aretw0/qafizz/pkg/core"
)

// DefaultCategory is assigned to drafts without a category.
const DefaultCategory = "Personal"

// Draft is the user input for a new or edited note.
type Draft struct {
	Title           string
	Content         string
	Category        string
	Color           core.Color
	Starred         bool
	Tags            string // comma-separated
	BackgroundImage *string
}

// Validate checks that title and content are not blank and the color is on the palette.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", core.ErrInvalidNote)
	}
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("%w: content is required", core.ErrInvalidNote)
	}
	if d.Color != "" && !d.Color.Valid() {
		return fmt.Errorf("%w: color %q is not on the palette", core.ErrInvalidNote, d.Color)
	}
	return nil
}

// ParseTags splits comma-separated input, trims each tag and drops empty ones.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// apply writes the draft fields onto n.
func (d Draft) apply(n core.Note) core.Note {
	n.Title = d.Title
	n.Content = d.Content
	n.Category = d.Category
	if n.Category == "" {
		n.Category = DefaultCategory
	}
	n.Color = d.Color
	if n.Color == "" {
		n.Color = core.DefaultColor
	}
	n.Starred = d.Starred
	n.Tags = ParseTags(d.Tags)
	n.BackgroundImage = d.BackgroundImage
	n.LastModified = "Just now"
	return n
}
