package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/qafizz"
	"github.com/aretw0/qafizz/pkg/core"
)

var (
	listJSON     bool
	listSearch   string
	listCategory string
	showHTML     bool

	noteTitle    string
	noteContent  string
	noteCategory string
	noteColor    string
	noteTags     string
	noteStarred  bool
)

var notesCmd = &cobra.Command{
	Use:     "notes",
	Aliases: []string{"note"},
	Short:   "Work with the signed-in user's notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, optionally filtered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := nb.List(cmd.Context(), qafizz.Filter{Search: listSearch, Category: listCategory})
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, n := range notes {
			star := " "
			if n.Starred {
				star = "*"
			}
			fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\n", n.ID, star, n.Title, n.Category, strings.Join(n.Tags, ","), n.LastModified)
		}
		return w.Flush()
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		n, err := nb.Note(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showHTML {
			html, err := nb.Render(n)
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, html)
			return err
		}
		printNote(out, n)
		return nil
	},
}

var notesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Long: `Create a note for the signed-in user. Title and content are required.
The first note a user creates removes the welcome note.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		color, err := parseColor(noteColor)
		if err != nil {
			return err
		}
		n, err := nb.CreateNote(cmd.Context(), qafizz.Draft{
			Title:    noteTitle,
			Content:  noteContent,
			Category: noteCategory,
			Color:    color,
			Tags:     noteTags,
			Starred:  noteStarred,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created note %d\n", n.ID)
		return nil
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a note",
	Long:  `Only the flags given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		n, err := nb.Note(cmd.Context(), id)
		if err != nil {
			return err
		}

		d := draftOf(n)
		flags := cmd.Flags()
		if flags.Changed("title") {
			d.Title = noteTitle
		}
		if flags.Changed("content") {
			d.Content = noteContent
		}
		if flags.Changed("category") {
			d.Category = noteCategory
		}
		if flags.Changed("color") {
			if d.Color, err = parseColor(noteColor); err != nil {
				return err
			}
		}
		if flags.Changed("tags") {
			d.Tags = noteTags
		}
		if flags.Changed("starred") {
			d.Starred = noteStarred
		}

		if _, err := nb.UpdateNote(cmd.Context(), id, d); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated note %d\n", id)
		return nil
	},
}

var notesStarCmd = &cobra.Command{
	Use:   "star <id>",
	Short: "Toggle the starred flag of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		n, err := nb.ToggleStar(cmd.Context(), id)
		if err != nil {
			return err
		}
		state := "unstarred"
		if n.Starred {
			state = "starred"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note %d %s\n", id, state)
		return nil
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := nb.DeleteNote(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
		return nil
	},
}

var notesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the starter notes if the user has no notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := nb.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		return nb.Notes().InitializeDefaultNotes(cmd.Context(), user.ID)
	},
}

var notesClearDefaultsCmd = &cobra.Command{
	Use:   "clear-defaults",
	Short: "Remove the welcome note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := nb.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		return nb.Notes().ClearDefaultNotes(cmd.Context(), user.ID)
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q", s)
	}
	return id, nil
}

func parseColor(s string) (core.Color, error) {
	if s == "" {
		return "", nil
	}
	return core.ParseColor(s)
}

func draftOf(n qafizz.Note) qafizz.Draft {
	return qafizz.Draft{
		Title:           n.Title,
		Content:         n.Content,
		Category:        n.Category,
		Color:           n.Color,
		Starred:         n.Starred,
		Tags:            strings.Join(n.Tags, ", "),
		BackgroundImage: n.BackgroundImage,
	}
}

func printNote(w io.Writer, n qafizz.Note) {
	star := ""
	if n.Starred {
		star = " *"
	}
	fmt.Fprintf(w, "%s%s\n", n.Title, star)
	fmt.Fprintf(w, "id: %d  category: %s  color: %s  modified: %s\n", n.ID, n.Category, n.Color.Label(), n.LastModified)
	if len(n.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(n.Tags, ", "))
	}
	fmt.Fprintf(w, "\n%s\n", n.Content)
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd, notesShowCmd, notesAddCmd, notesEditCmd,
		notesStarCmd, notesDeleteCmd, notesSeedCmd, notesClearDefaultsCmd)

	notesListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	notesListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive search over title, content and tags")
	notesListCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Category (All, Welcome, Work, Personal, Ideas)")

	notesShowCmd.Flags().BoolVar(&showHTML, "html", false, "Render the content as HTML")

	for _, c := range []*cobra.Command{notesAddCmd, notesEditCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "Title")
		c.Flags().StringVarP(&noteContent, "content", "m", "", "Content (markdown)")
		c.Flags().StringVarP(&noteCategory, "category", "c", "", "Category (default: Personal)")
		c.Flags().StringVar(&noteColor, "color", "", "yellow, blue, green, purple, pink or orange")
		c.Flags().StringVar(&noteTags, "tags", "", "Comma separated tags")
		c.Flags().BoolVar(&noteStarred, "starred", false, "Star the note")
	}
}
