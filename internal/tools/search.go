package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/apsinha/coursechat/internal/knowledge"
	"github.com/apsinha/coursechat/internal/rag"
)

// SearchToolName is the name the model uses to call the content search tool.
const SearchToolName = "search_course_content"

// SearchTool exposes semantic course content search to the model. It records
// the sources behind its last non-empty result so the caller can surface them
// with the answer.
type SearchTool struct {
	engine Searcher

	mu      sync.Mutex
	sources []rag.Source
}

// NewSearchTool creates a SearchTool backed by the given engine.
func NewSearchTool(engine Searcher) *SearchTool {
	return &SearchTool{engine: engine}
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Definition() *ai.ToolDefinition {
	return &ai.ToolDefinition{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []any{"query"},
		},
	}
}

// Execute runs the search. Unresolvable course names and empty matches come
// back as explanatory result text so the model can relay them.
func (t *SearchTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return "", fmt.Errorf("%s: missing query", SearchToolName)
	}

	courseName, _ := input["course_name"].(string)
	lesson, hasLesson := intArg(input, "lesson_number")

	opts := []rag.SearchOption{}
	if courseName != "" {
		opts = append(opts, rag.WithCourse(courseName))
	}
	if hasLesson {
		opts = append(opts, rag.WithLesson(lesson))
	}

	res, err := t.engine.Search(ctx, query, opts...)
	if errors.Is(err, knowledge.ErrCourseNotFound) {
		return fmt.Sprintf("No course found matching '%s'", courseName), nil
	}
	if err != nil {
		return "", err
	}

	if res.Empty() {
		return noResultsMessage(courseName, lesson, hasLesson), nil
	}

	t.mu.Lock()
	t.sources = res.Sources
	t.mu.Unlock()

	return res.Text, nil
}

// LastSources returns the sources of the most recent non-empty search.
func (t *SearchTool) LastSources() []rag.Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sources
}

// ResetSources clears recorded sources.
func (t *SearchTool) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}

func noResultsMessage(courseName string, lesson int, hasLesson bool) string {
	var scope strings.Builder
	scope.WriteString("No relevant content found")
	if courseName != "" {
		fmt.Fprintf(&scope, " in course '%s'", courseName)
	}
	if hasLesson {
		fmt.Fprintf(&scope, " in lesson %d", lesson)
	}
	return scope.String()
}

// intArg reads a numeric argument, tolerating the float64 that JSON decoding
// produces for integers.
func intArg(input map[string]any, key string) (int, bool) {
	switch v := input[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
