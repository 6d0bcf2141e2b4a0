package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/note"
)

// recentLimit is the number of notes list_recent_notes returns.
const recentLimit = 10

type noteView struct {
	ID        string   `json:"id" jsonschema:"Note ID"`
	Text      string   `json:"text" jsonschema:"Note text"`
	Summary   string   `json:"summary,omitempty" jsonschema:"Generated summary, absent until enriched"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Generated keyword tags"`
	CreatedAt string   `json:"createdAt" jsonschema:"Creation time (RFC 3339)"`
	UpdatedAt string   `json:"updatedAt" jsonschema:"Last update time (RFC 3339)"`
}

func toView(n *note.Note) noteView {
	v := noteView{
		ID:        n.ID,
		Text:      n.Text,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if n.Summary != nil {
		v.Summary = *n.Summary
	}
	return v
}

func toViews(ns []*note.Note) []noteView {
	out := make([]noteView, 0, len(ns))
	for _, n := range ns {
		out = append(out, toView(n))
	}
	return out
}

type createNoteInput struct {
	Text string `json:"text" jsonschema:"Note text"`
}

type noteIDInput struct {
	ID string `json:"id" jsonschema:"Note ID"`
}

type searchNotesInput struct {
	Q   string `json:"q,omitempty" jsonschema:"Case-insensitive substring of text, summary or tags"`
	Tag string `json:"tag,omitempty" jsonschema:"Exact tag, case-insensitive"`
}

type listRecentInput struct{}

type noteOutput struct {
	Note noteView `json:"note" jsonschema:"The note"`
}

type notesOutput struct {
	Notes []noteView `json:"notes" jsonschema:"Matching notes, newest first"`
	Count int        `json:"count" jsonschema:"Number of notes returned"`
}

type deleteOutput struct {
	ID      string `json:"id" jsonschema:"Note ID"`
	Deleted bool   `json:"deleted" jsonschema:"True if the note was removed"`
}

// instrument wraps a tool handler with metrics and failure logging.
func instrument[In, Out any](s *Server, name string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		done := s.metrics.Start(ctx, name)
		res, out, err := h(ctx, req, in)
		done(err)
		if err != nil {
			s.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		}
		return res, out, err
	}
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", note.ErrNotFound, id)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_note",
		Description: "Create a note from plain text",
	}, instrument(s, "create_note", func(ctx context.Context, _ *mcp.CallToolRequest, args createNoteInput) (*mcp.CallToolResult, noteOutput, error) {
		n, err := s.registry.Notes().Create(ctx, args.Text)
		if err != nil {
			return nil, noteOutput{}, err
		}
		return textResult("Note created: %s", n.ID), noteOutput{Note: toView(n)}, nil
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "enrich_note",
		Description: "Generate a summary and keyword tags for a stored note",
	}, instrument(s, "enrich_note", func(ctx context.Context, _ *mcp.CallToolRequest, args noteIDInput) (*mcp.CallToolResult, noteOutput, error) {
		n, err := s.registry.EnrichNote(ctx, args.ID)
		if err != nil {
			return nil, noteOutput{}, err
		}
		return textResult("Note enriched: %s (%d tags)", n.ID, len(n.Tags)), noteOutput{Note: toView(n)}, nil
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_notes",
		Description: "Search notes by text and/or tag",
	}, instrument(s, "search_notes", func(ctx context.Context, _ *mcp.CallToolRequest, args searchNotesInput) (*mcp.CallToolResult, notesOutput, error) {
		ns, err := s.registry.Notes().Search(ctx, note.Query{Text: args.Q, Tag: args.Tag})
		if err != nil {
			return nil, notesOutput{}, err
		}
		out := notesOutput{Notes: toViews(ns), Count: len(ns)}
		s.metrics.RecordReturned(ctx, "search_notes", out.Count)
		return textResult("Found %d notes", out.Count), out, nil
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_recent_notes",
		Description: fmt.Sprintf("List the %d most recent notes", recentLimit),
	}, instrument(s, "list_recent_notes", func(ctx context.Context, _ *mcp.CallToolRequest, _ listRecentInput) (*mcp.CallToolResult, notesOutput, error) {
		ns, err := s.registry.RecentNotes(ctx, recentLimit)
		if err != nil {
			return nil, notesOutput{}, err
		}
		out := notesOutput{Notes: toViews(ns), Count: len(ns)}
		s.metrics.RecordReturned(ctx, "list_recent_notes", out.Count)
		return textResult("Found %d notes", out.Count), out, nil
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_note",
		Description: "Fetch a single note by ID",
	}, instrument(s, "get_note", func(ctx context.Context, _ *mcp.CallToolRequest, args noteIDInput) (*mcp.CallToolResult, noteOutput, error) {
		n, err := s.registry.Notes().Get(ctx, args.ID)
		if err != nil {
			return nil, noteOutput{}, err
		}
		if n == nil {
			return nil, noteOutput{}, notFound(args.ID)
		}
		return textResult("Note %s", n.ID), noteOutput{Note: toView(n)}, nil
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note by ID",
	}, instrument(s, "delete_note", func(ctx context.Context, _ *mcp.CallToolRequest, args noteIDInput) (*mcp.CallToolResult, deleteOutput, error) {
		ok, err := s.registry.Notes().Delete(ctx, args.ID)
		if err != nil {
			return nil, deleteOutput{}, err
		}
		if !ok {
			return nil, deleteOutput{}, notFound(args.ID)
		}
		return textResult("Note deleted: %s", args.ID), deleteOutput{ID: args.ID, Deleted: true}, nil
	}))
}
