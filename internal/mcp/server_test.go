package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/notesd/internal/enrich"
	"github.com/fyrsmithlabs/notesd/internal/services"
	"github.com/fyrsmithlabs/notesd/internal/store"
)

func newTestRegistry(t *testing.T) services.Registry {
	t.Helper()
	reg, err := services.NewRegistry(services.Options{
		Notes:    store.NewMemory(nil),
		Enricher: enrich.NewService(nil, "", nil),
	})
	require.NoError(t, err)
	return reg
}

// connect starts s on an in-memory transport and returns a client session.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := s.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call[T any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s failed: %s", name, resultText(res))

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// callErr asserts the tool call fails and returns the failure text. Tool
// errors surface as IsError results; protocol errors as a returned error.
func callErr(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return err.Error()
	}
	require.True(t, res.IsError, "expected %s to fail", name)
	return resultText(res)
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestNewServer(t *testing.T) {
	t.Run("requires registry", func(t *testing.T) {
		_, err := NewServer(nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service registry is required")
	})

	t.Run("default config", func(t *testing.T) {
		s, err := NewServer(nil, newTestRegistry(t))
		require.NoError(t, err)
		assert.NotNil(t, s.Handler())
	})
}

func TestServer_ListTools(t *testing.T) {
	s, err := NewServer(DefaultConfig(), newTestRegistry(t))
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"create_note", "enrich_note", "search_notes",
		"list_recent_notes", "get_note", "delete_note",
	}, names)
}

func TestServer_NoteLifecycle(t *testing.T) {
	s, err := NewServer(DefaultConfig(), newTestRegistry(t))
	require.NoError(t, err)
	cs := connect(t, s)

	created := call[noteOutput](t, cs, "create_note", map[string]any{"text": "Book dentist appointment Tuesday"})
	require.NotEmpty(t, created.Note.ID)
	assert.Equal(t, "Book dentist appointment Tuesday", created.Note.Text)
	assert.Empty(t, created.Note.Summary)
	assert.Empty(t, created.Note.Tags)
	assert.NotEmpty(t, created.Note.CreatedAt)

	id := created.Note.ID

	got := call[noteOutput](t, cs, "get_note", map[string]any{"id": id})
	assert.Equal(t, created.Note, got.Note)

	enriched := call[noteOutput](t, cs, "enrich_note", map[string]any{"id": id})
	assert.Equal(t, "Book dentist appointment Tuesday", enriched.Note.Summary)
	assert.Equal(t, []string{"book", "dentist", "appointment", "tuesday"}, enriched.Note.Tags)

	found := call[notesOutput](t, cs, "search_notes", map[string]any{"tag": "DENTIST"})
	require.Equal(t, 1, found.Count)
	assert.Equal(t, id, found.Notes[0].ID)

	deleted := call[deleteOutput](t, cs, "delete_note", map[string]any{"id": id})
	assert.True(t, deleted.Deleted)

	assert.Contains(t, callErr(t, cs, "get_note", map[string]any{"id": id}), "note not found")
	assert.Contains(t, callErr(t, cs, "delete_note", map[string]any{"id": id}), "note not found")
}

func TestServer_ListRecentNotes(t *testing.T) {
	s, err := NewServer(DefaultConfig(), newTestRegistry(t))
	require.NoError(t, err)
	cs := connect(t, s)

	empty := call[notesOutput](t, cs, "list_recent_notes", map[string]any{})
	assert.Equal(t, 0, empty.Count)
	assert.Empty(t, empty.Notes)

	for i := 0; i < recentLimit+2; i++ {
		call[noteOutput](t, cs, "create_note", map[string]any{"text": fmt.Sprintf("note %d", i)})
	}

	recent := call[notesOutput](t, cs, "list_recent_notes", map[string]any{})
	require.Equal(t, recentLimit, recent.Count)
	assert.Equal(t, fmt.Sprintf("note %d", recentLimit+1), recent.Notes[0].Text)
	assert.Equal(t, "note 2", recent.Notes[recentLimit-1].Text)
}

func TestServer_ToolErrors(t *testing.T) {
	s, err := NewServer(DefaultConfig(), newTestRegistry(t))
	require.NoError(t, err)
	cs := connect(t, s)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"empty text", "create_note", map[string]any{"text": ""}, "text is required"},
		{"enrich unknown id", "enrich_note", map[string]any{"id": "missing"}, "note not found"},
		{"get unknown id", "get_note", map[string]any{"id": "missing"}, "note not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, callErr(t, cs, tt.tool, tt.args), tt.want)
		})
	}
}
