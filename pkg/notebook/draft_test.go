package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/qafizz/pkg/core"
)

func TestParseTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"work", []string{"work"}},
		{"work, important, project", []string{"work", "important", "project"}},
		{" a ,, b ,", []string{"a", "b"}},
		{",,,", []string{}},
		{"two words, x", []string{"two words", "x"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseTags(c.in), "input %q", c.in)
	}
}

func TestDraft_ApplyDefaults(t *testing.T) {
	n := Draft{Title: "t", Content: "c"}.apply(core.Note{ID: 1, UserID: "u1", CreatedAt: "x"})

	assert.Equal(t, int64(1), n.ID)
	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, "x", n.CreatedAt)
	assert.Equal(t, DefaultCategory, n.Category)
	assert.Equal(t, core.DefaultColor, n.Color)
	assert.Equal(t, "Just now", n.LastModified)
	assert.NotNil(t, n.Tags)
}

func TestDraft_Validate(t *testing.T) {
	assert.NoError(t, Draft{Title: "t", Content: "c", Color: core.ColorGreen}.Validate())
	assert.ErrorIs(t, Draft{Content: "c"}.Validate(), core.ErrInvalidNote)
	assert.ErrorIs(t, Draft{Title: "t"}.Validate(), core.ErrInvalidNote)
}
