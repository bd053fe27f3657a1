package store

import (
	"time"

	"github.com/aretw0/qafizz/pkg/core"
)

const welcomeContent = `Welcome to Qafizz, your all-in-one productivity platform!

We're excited to have you on board. Here's what you can do:

✅ Create and organize notes
✅ Manage your projects
✅ Collaborate with your team
✅ Track your productivity

Get started by exploring our apps and creating your first note. If you need help, don't hesitate to reach out to our support team.

Happy productivity!
- The Qafizz Team`

var starterTitles = map[string]bool{
	"Welcome to Qafizz! 🎉":       true,
	"Meeting Notes - Q4 Planning": true,
	"Project Ideas":               true,
	"Shopping List":               true,
}

// IsStarter reports whether n has the title of one of the starter notes.
func IsStarter(n core.Note) bool {
	return starterTitles[n.Title]
}

// DefaultNotes builds the four starter notes for a new account.
// Ids come from ids in order, so they never collide within one call.
func DefaultNotes(userID string, ids core.IDGenerator, now time.Time) []core.Note {
	created := core.Timestamp(now)
	note := func(title, content, category string, color core.Color, starred bool, modified string, tags ...string) core.Note {
		return core.Note{
			ID:           ids.Next(),
			Title:        title,
			Content:      content,
			Category:     category,
			Color:        color,
			Starred:      starred,
			LastModified: modified,
			Tags:         tags,
			UserID:       userID,
			CreatedAt:    created,
		}
	}

	return []core.Note{
		note("Welcome to Qafizz! 🎉", welcomeContent, "Welcome", core.ColorBlue, true, "Just now",
			"welcome", "getting-started", "qafizz"),
		note("Meeting Notes - Q4 Planning", "Discussed quarterly goals, budget allocation, and team expansion plans...",
			"Work", core.ColorYellow, false, "2 hours ago", "meeting", "planning", "q4"),
		note("Project Ideas", "1. Mobile app redesign\n2. Customer feedback system\n3. AI integration...",
			"Ideas", core.ColorPurple, false, "1 day ago", "ideas", "projects"),
		note("Shopping List", "Groceries:\n- Milk\n- Bread\n- Eggs\n- Fruits\n- Vegetables",
			"Personal", core.ColorGreen, false, "3 days ago", "personal", "shopping"),
	}
}
