package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"

	"github.com/apsinha/coursechat/internal/course"
	"github.com/apsinha/coursechat/internal/knowledge"
	"github.com/apsinha/coursechat/internal/log"
	"github.com/apsinha/coursechat/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *knowledge.Index) {
	t.Helper()

	ix, err := knowledge.NewIndex(chromem.NewDB(), testutil.Embedder{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	ctx := context.Background()
	c := course.Course{
		Title:      "MCP: Build Rich-Context AI Apps",
		Link:       "https://example.com/mcp",
		Instructor: "Elie Schoppik",
		Lessons: []course.Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/mcp/0"},
			{Number: 1, Title: "Why MCP", Link: "https://example.com/mcp/1"},
		},
	}
	if err := ix.AddCourse(ctx, c); err != nil {
		t.Fatalf("AddCourse() error = %v", err)
	}
	if err := ix.AddChunks(ctx, []course.Chunk{
		{Content: "MCP standardizes context provision for models.", CourseTitle: c.Title, LessonNumber: 0, Index: 0},
		{Content: "Servers expose tools and resources over MCP.", CourseTitle: c.Title, LessonNumber: 1, Index: 1},
	}); err != nil {
		t.Fatalf("AddChunks() error = %v", err)
	}

	return NewEngine(ix, 5, log.NewNop()), ix
}

func TestSearchFormatsHits(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Search(context.Background(), "how does MCP standardize context")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Empty() {
		t.Fatal("Search() returned no hits")
	}

	if !strings.Contains(res.Text, "[MCP: Build Rich-Context AI Apps - Lesson") {
		t.Errorf("Text missing context header:\n%s", res.Text)
	}
	if len(res.Sources) == 0 {
		t.Fatal("no sources returned")
	}
	src := res.Sources[0]
	if !strings.HasPrefix(src.Label, "MCP: Build Rich-Context AI Apps - Lesson") {
		t.Errorf("source label = %q", src.Label)
	}
	if !strings.HasPrefix(src.Link, "https://example.com/mcp/") {
		t.Errorf("source link = %q", src.Link)
	}
}

func TestSearchWithCourseAndLesson(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Search(context.Background(), "MCP servers tools",
		WithCourse("MCP"), WithLesson(1))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1", len(res.Sources))
	}
	if !strings.HasSuffix(res.Sources[0].Label, "Lesson 1") {
		t.Errorf("source label = %q", res.Sources[0].Label)
	}
}

func TestSearchUnknownCourse(t *testing.T) {
	ix, err := knowledge.NewIndex(chromem.NewDB(), testutil.Embedder{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	e := NewEngine(ix, 5, log.NewNop())

	_, err = e.Search(context.Background(), "anything", WithCourse("ghost course"))
	if !errors.Is(err, knowledge.ErrCourseNotFound) {
		t.Fatalf("Search() error = %v, want ErrCourseNotFound", err)
	}
}

func TestSearchNoMatchesIsEmptyNotError(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Search(context.Background(), "anything",
		WithCourse("MCP"), WithLesson(42))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !res.Empty() {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestSearchLimit(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Search(context.Background(), "MCP", WithLimit(1))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Sources) != 1 {
		t.Errorf("len(Sources) = %d, want 1", len(res.Sources))
	}
}

func TestOutline(t *testing.T) {
	e, _ := newTestEngine(t)

	out, err := e.Outline(context.Background(), "MCP")
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}

	for _, want := range []string{
		"Course: MCP: Build Rich-Context AI Apps",
		"Link: https://example.com/mcp",
		"Instructor: Elie Schoppik",
		"Lessons (2):",
		"Lesson 0: Introduction",
		"Lesson 1: Why MCP",
	} {
		if !strings.Contains(out.Text, want) {
			t.Errorf("outline missing %q:\n%s", want, out.Text)
		}
	}

	if out.Source.Label != "MCP: Build Rich-Context AI Apps" || out.Source.Link != "https://example.com/mcp" {
		t.Errorf("outline source = %+v", out.Source)
	}
}

func TestOutlineUnknownCourse(t *testing.T) {
	ix, err := knowledge.NewIndex(chromem.NewDB(), testutil.Embedder{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	e := NewEngine(ix, 5, log.NewNop())

	_, err = e.Outline(context.Background(), "nothing here")
	if !errors.Is(err, knowledge.ErrCourseNotFound) {
		t.Fatalf("Outline() error = %v, want ErrCourseNotFound", err)
	}
}
