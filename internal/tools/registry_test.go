package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/apsinha/coursechat/internal/knowledge"
	"github.com/apsinha/coursechat/internal/rag"
)

// mockSearcher returns canned results and records the options it was called
// with.
type mockSearcher struct {
	result     *rag.SearchResult
	outline    *rag.OutlineResult
	err        error
	lastQuery  string
	lastOpts   int
	outlineArg string
}

func (m *mockSearcher) Search(_ context.Context, query string, opts ...rag.SearchOption) (*rag.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = len(opts)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockSearcher) Outline(_ context.Context, courseName string) (*rag.OutlineResult, error) {
	m.outlineArg = courseName
	if m.err != nil {
		return nil, m.err
	}
	return m.outline, nil
}

func register(t *testing.T, r *Registry, tool Tool) {
	t.Helper()
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register(%s) error = %v", tool.Name(), err)
	}
}

func TestRegistryDefinitionsOrder(t *testing.T) {
	m := &mockSearcher{}
	r := NewRegistry()
	register(t, r, NewSearchTool(m))
	register(t, r, NewOutlineTool(m))

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Name != SearchToolName || defs[1].Name != OutlineToolName {
		t.Errorf("definitions out of order: %q, %q", defs[0].Name, defs[1].Name)
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	m := &mockSearcher{}
	r := NewRegistry()
	register(t, r, NewSearchTool(m))

	if err := r.Register(NewSearchTool(m)); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("Register(duplicate) error = %v, want ErrDuplicateTool", err)
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Execute(context.Background(), "no_such_tool", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Execute() error = %v, want ErrToolNotFound", err)
	}
}

func TestRegistrySourceTracking(t *testing.T) {
	m := &mockSearcher{result: &rag.SearchResult{
		Text:    "[Course A - Lesson 1]\nSome content.",
		Sources: []rag.Source{{Label: "Course A - Lesson 1", Link: "https://example.com/1"}},
	}}

	r := NewRegistry()
	register(t, r, NewSearchTool(m))
	register(t, r, NewOutlineTool(m))

	out, err := r.Execute(context.Background(), SearchToolName, map[string]any{"query": "content"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out == "" {
		t.Fatal("Execute() returned empty result")
	}

	sources := r.LastSources()
	if len(sources) != 1 || sources[0].Label != "Course A - Lesson 1" {
		t.Fatalf("LastSources() = %+v", sources)
	}

	r.ResetSources()
	if got := r.LastSources(); len(got) != 0 {
		t.Errorf("LastSources() after reset = %+v", got)
	}
}

func TestSearchToolArguments(t *testing.T) {
	m := &mockSearcher{result: &rag.SearchResult{
		Text:    "match",
		Sources: []rag.Source{{Label: "Course A"}},
	}}
	tool := NewSearchTool(m)

	_, err := tool.Execute(context.Background(), map[string]any{
		"query":         "prompt caching",
		"course_name":   "MCP",
		"lesson_number": float64(2), // JSON numbers decode as float64
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if m.lastQuery != "prompt caching" {
		t.Errorf("query = %q", m.lastQuery)
	}
	if m.lastOpts != 2 {
		t.Errorf("forwarded %d options, want course and lesson", m.lastOpts)
	}
}

func TestSearchToolMissingQuery(t *testing.T) {
	tool := NewSearchTool(&mockSearcher{})

	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatal("Execute() without query succeeded, want error")
	}
}

func TestSearchToolUnknownCourseIsMessage(t *testing.T) {
	m := &mockSearcher{err: knowledge.ErrCourseNotFound}
	tool := NewSearchTool(m)

	out, err := tool.Execute(context.Background(), map[string]any{
		"query":       "anything",
		"course_name": "ghost",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want message result", err)
	}
	if out != "No course found matching 'ghost'" {
		t.Errorf("result = %q", out)
	}
}

func TestSearchToolEmptyResultIsMessage(t *testing.T) {
	m := &mockSearcher{result: &rag.SearchResult{}}
	tool := NewSearchTool(m)

	out, err := tool.Execute(context.Background(), map[string]any{
		"query":         "anything",
		"course_name":   "MCP",
		"lesson_number": float64(3),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "No relevant content found in course 'MCP' in lesson 3"
	if out != want {
		t.Errorf("result = %q, want %q", out, want)
	}
	if got := tool.LastSources(); len(got) != 0 {
		t.Errorf("empty search recorded sources: %+v", got)
	}
}

func TestOutlineTool(t *testing.T) {
	m := &mockSearcher{outline: &rag.OutlineResult{
		Text:   "Course: MCP\nLessons (2):",
		Source: rag.Source{Label: "MCP", Link: "https://example.com/mcp"},
	}}
	tool := NewOutlineTool(m)

	out, err := tool.Execute(context.Background(), map[string]any{"course_name": "MCP"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != m.outline.Text {
		t.Errorf("result = %q", out)
	}
	if m.outlineArg != "MCP" {
		t.Errorf("outline arg = %q", m.outlineArg)
	}

	sources := tool.LastSources()
	if len(sources) != 1 || sources[0].Link != "https://example.com/mcp" {
		t.Errorf("LastSources() = %+v", sources)
	}

	tool.ResetSources()
	if got := tool.LastSources(); len(got) != 0 {
		t.Errorf("LastSources() after reset = %+v", got)
	}
}

func TestOutlineToolUnknownCourseIsMessage(t *testing.T) {
	tool := NewOutlineTool(&mockSearcher{err: knowledge.ErrCourseNotFound})

	out, err := tool.Execute(context.Background(), map[string]any{"course_name": "ghost"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "No course found matching 'ghost'" {
		t.Errorf("result = %q", out)
	}
}

func TestOutlineToolMissingCourseName(t *testing.T) {
	tool := NewOutlineTool(&mockSearcher{})

	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatal("Execute() without course_name succeeded, want error")
	}
}
