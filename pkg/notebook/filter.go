package notebook

import (
	"strings"

	"github.com/aretw0/qafizz/pkg/core"
)

// AllCategories selects notes of every category.
const AllCategories = "All"

// Categories returns the category choices offered by the notes view.
func Categories() []string {
	return []string{AllCategories, "Welcome", "Work", "Personal", "Ideas"}
}

// Filter narrows a note list.
type Filter struct {
	// Search matches title, content or any tag, case-insensitively.
	Search string
	// Category must match exactly; empty or AllCategories matches every note.
	Category string
}

// Match reports whether n passes the filter.
func (f Filter) Match(n core.Note) bool {
	if f.Category != "" && f.Category != AllCategories && n.Category != f.Category {
		return false
	}
	term := strings.ToLower(f.Search)
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Title), term) ||
		strings.Contains(strings.ToLower(n.Content), term) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Apply returns the notes passing the filter, keeping their order.
func (f Filter) Apply(notes []core.Note) []core.Note {
	out := make([]core.Note, 0, len(notes))
	for _, n := range notes {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
