// Package rag turns vector index hits into model-ready context blocks and
// user-facing source references.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apsinha/coursechat/internal/knowledge"
)

// Source is one reference shown to the user alongside an answer. Link is the
// lesson link when the catalog knows it, otherwise empty.
type Source struct {
	Label string `json:"label"`
	Link  string `json:"link,omitempty"`
}

// SearchResult carries the formatted context for the model plus the parallel
// source list for the user.
type SearchResult struct {
	Text    string
	Sources []Source
}

// Empty reports whether the search matched nothing.
func (r *SearchResult) Empty() bool { return len(r.Sources) == 0 }

// Engine runs filtered semantic searches against the knowledge index and
// formats the results.
type Engine struct {
	index  *knowledge.Index
	limit  int
	logger *slog.Logger
}

// NewEngine creates an Engine. limit is the default number of hits per search
// when WithLimit is not given.
func NewEngine(index *knowledge.Index, limit int, logger *slog.Logger) *Engine {
	if limit <= 0 {
		limit = 5
	}
	return &Engine{index: index, limit: limit, logger: logger}
}

type searchOptions struct {
	courseName string
	lesson     *int
	limit      int
}

// SearchOption narrows or resizes a search.
type SearchOption func(*searchOptions)

// WithCourse restricts the search to one course. The name may be partial;
// it is resolved against the catalog before filtering.
func WithCourse(name string) SearchOption {
	return func(o *searchOptions) { o.courseName = name }
}

// WithLesson restricts the search to a single lesson number.
func WithLesson(n int) SearchOption {
	return func(o *searchOptions) { o.lesson = &n }
}

// WithLimit overrides the engine's default result count.
func WithLimit(n int) SearchOption {
	return func(o *searchOptions) {
		if n > 0 {
			o.limit = n
		}
	}
}

// Search retrieves the chunks most relevant to query, honoring any course and
// lesson constraints. Course and lesson filters combine, so both must match.
//
// A course name that resolves to nothing fails with knowledge.ErrCourseNotFound.
// A search that merely matches no content returns an empty result and no error.
func (e *Engine) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResult, error) {
	o := searchOptions{limit: e.limit}
	for _, opt := range opts {
		opt(&o)
	}

	var filter knowledge.Filter
	if o.courseName != "" {
		title, err := e.index.ResolveCourse(ctx, o.courseName)
		if err != nil {
			return nil, err
		}
		filter.CourseTitle = title
	}
	filter.LessonNumber = o.lesson

	hits, err := e.index.Query(ctx, query, o.limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	e.logger.Debug("search completed",
		"query", query, "course", filter.CourseTitle, "hits", len(hits))

	return e.format(ctx, hits), nil
}

// format renders hits as bracket-headed context blocks and builds the
// parallel source list.
func (e *Engine) format(ctx context.Context, hits []knowledge.Hit) *SearchResult {
	var blocks []string
	var sources []Source

	for _, h := range hits {
		header := h.CourseTitle
		label := h.CourseTitle
		if h.LessonNumber >= 0 {
			header = fmt.Sprintf("%s - Lesson %d", h.CourseTitle, h.LessonNumber)
			label = header
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, h.Content))
		sources = append(sources, Source{
			Label: label,
			Link:  e.lessonLink(ctx, h.CourseTitle, h.LessonNumber),
		})
	}

	return &SearchResult{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

func (e *Engine) lessonLink(ctx context.Context, title string, lesson int) string {
	if lesson < 0 {
		return ""
	}
	c, err := e.index.Course(ctx, title)
	if err != nil {
		return ""
	}
	for _, l := range c.Lessons {
		if l.Number == lesson {
			return l.Link
		}
	}
	return ""
}

// OutlineResult carries the rendered outline plus the course-level source
// reference.
type OutlineResult struct {
	Text   string
	Source Source
}

// Outline resolves a course name and renders its full outline: title, link,
// instructor and every lesson in order.
func (e *Engine) Outline(ctx context.Context, courseName string) (*OutlineResult, error) {
	title, err := e.index.ResolveCourse(ctx, courseName)
	if err != nil {
		return nil, err
	}

	c, err := e.index.Course(ctx, title)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(c.Lessons))
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s\n", l.Number, l.Title)
	}

	return &OutlineResult{
		Text:   strings.TrimRight(b.String(), "\n"),
		Source: Source{Label: c.Title, Link: c.Link},
	}, nil
}
