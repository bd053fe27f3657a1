package notebook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/notebook"
)

func TestFilter_Match(t *testing.T) {
	n := core.Note{
		Title:    "Meeting Notes",
		Content:  "Budget allocation",
		Category: "Work",
		Tags:     []string{"planning", "Q4"},
	}

	cases := []struct {
		name string
		f    notebook.Filter
		want bool
	}{
		{"empty", notebook.Filter{}, true},
		{"all", notebook.Filter{Category: notebook.AllCategories}, true},
		{"category", notebook.Filter{Category: "Work"}, true},
		{"other category", notebook.Filter{Category: "Ideas"}, false},
		{"category is exact", notebook.Filter{Category: "work"}, false},
		{"title", notebook.Filter{Search: "meeting"}, true},
		{"content", notebook.Filter{Search: "BUDGET"}, true},
		{"tag", notebook.Filter{Search: "q4"}, true},
		{"tag substring", notebook.Filter{Search: "plan"}, true},
		{"miss", notebook.Filter{Search: "groceries"}, false},
		{"search and category", notebook.Filter{Search: "meeting", Category: "Ideas"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.f.Match(n))
		})
	}
}

func TestFilter_ApplyKeepsOrder(t *testing.T) {
	notes := []core.Note{
		{ID: 3, Title: "c", Category: "Work"},
		{ID: 1, Title: "a", Category: "Ideas"},
		{ID: 2, Title: "b", Category: "Work"},
	}
	got := notebook.Filter{Category: "Work"}.Apply(notes)
	assert.Equal(t, []int64{3, 2}, []int64{got[0].ID, got[1].ID})
}

func TestCategories(t *testing.T) {
	assert.Equal(t, notebook.AllCategories, notebook.Categories()[0])
	assert.Len(t, notebook.Categories(), 5)
}
