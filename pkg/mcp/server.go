// Package mcp exposes the notebook as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/notebook"
)

// NewServer creates an MCP server with tools over the signed-in user's notes.
func NewServer(svc *notebook.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Qafizz",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("whoami",
			mcp.WithDescription("Return the signed-in user. Fails when nobody is signed in."),
		),
		handleWhoami(svc),
	)

	s.AddTool(
		mcp.NewTool("list_categories",
			mcp.WithDescription("List the note categories used for filtering."),
		),
		handleListCategories(),
	)

	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List the signed-in user's notes in storage order, optionally filtered by a case-insensitive search over title, content and tags, and by category."),
			mcp.WithString("search",
				mcp.Description("Optional: substring to look for"),
			),
			mcp.WithString("category",
				mcp.Description("Optional: exact category (Welcome, Work, Personal, Ideas). 'All' or empty matches every note."),
			),
		),
		handleListNotes(svc),
	)

	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get one of the signed-in user's notes by id."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The numeric note id"),
			),
		),
		handleGetNote(svc),
	)

	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a note for the signed-in user. The first note a user creates removes the welcome note."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title, must not be blank"),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Note body (markdown), must not be blank"),
			),
			mcp.WithString("category",
				mcp.Description("Optional: category (default: Personal)"),
			),
			mcp.WithString("color",
				mcp.Description("Optional: yellow, blue, green, purple, pink or orange (default: yellow)"),
			),
			mcp.WithString("tags",
				mcp.Description("Optional: comma separated tags"),
			),
			mcp.WithBoolean("starred",
				mcp.Description("Optional: star the note"),
			),
		),
		handleCreateNote(svc),
	)

	s.AddTool(
		mcp.NewTool("toggle_star",
			mcp.WithDescription("Flip the starred flag of a note."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The numeric note id"),
			),
		),
		handleToggleStar(svc),
	)

	s.AddTool(
		mcp.NewTool("delete_note",
			mcp.WithDescription("Delete a note. Deleting a missing note succeeds silently."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The numeric note id"),
			),
		),
		handleDeleteNote(svc),
	)

	return s
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("encode result", err)
	}
	return mcp.NewToolResultText(string(data))
}

func errorResult(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, core.ErrSignedOut) {
		return mcp.NewToolResultError("nobody is signed in; run `qafizz login` first")
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

func handleWhoami(svc *notebook.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := svc.CurrentUser(ctx)
		if err != nil {
			return errorResult("read user", err), nil
		}
		return jsonResult(user), nil
	}
}

func handleListCategories() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(notebook.Categories()), nil
	}
}

func handleListNotes(svc *notebook.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		notes, err := svc.List(ctx, notebook.Filter{
			Search:   req.GetString("search", ""),
			Category: req.GetString("category", ""),
		})
		if err != nil {
			return errorResult("list notes", err), nil
		}
		return jsonResult(notes), nil
	}
}

func handleGetNote(svc *notebook.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireID(req)
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		note, err := svc.Note(ctx, id)
		if err != nil {
			return errorResult("get note", err), nil
		}
		return jsonResult(note), nil
	}
}

func handleCreateNote(svc *notebook.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		draft := notebook.Draft{
			Title:    title,
			Content:  content,
			Category: req.GetString("category", ""),
			Tags:     req.GetString("tags", ""),
			Starred:  req.GetBool("starred", false),
		}
		if c := req.GetString("color", ""); c != "" {
			color, err := core.ParseColor(c)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			draft.Color = color
		}

		note, err := svc.CreateNote(ctx, draft)
		if err != nil {
			return errorResult("create note", err), nil
		}
		return jsonResult(note), nil
	}
}

func handleToggleStar(svc *notebook.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireID(req)
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		note, err := svc.ToggleStar(ctx, id)
		if err != nil {
			return errorResult("toggle star", err), nil
		}
		return jsonResult(note), nil
	}
}

func handleDeleteNote(svc *notebook.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireID(req)
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		if err := svc.DeleteNote(ctx, id); err != nil {
			return errorResult("delete note", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("deleted note %d", id)), nil
	}
}
