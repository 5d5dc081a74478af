package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/apsinha/coursechat/internal/knowledge"
	"github.com/apsinha/coursechat/internal/rag"
)

// OutlineToolName is the name the model uses to request a course outline.
const OutlineToolName = "get_course_outline"

// OutlineTool returns a course's full outline: title, link, instructor and
// lesson list. The course itself is recorded as the source of the result.
type OutlineTool struct {
	engine Searcher

	mu      sync.Mutex
	sources []rag.Source
}

// NewOutlineTool creates an OutlineTool backed by the given engine.
func NewOutlineTool(engine Searcher) *OutlineTool {
	return &OutlineTool{engine: engine}
}

func (t *OutlineTool) Name() string { return OutlineToolName }

func (t *OutlineTool) Definition() *ai.ToolDefinition {
	return &ai.ToolDefinition{
		Name:        OutlineToolName,
		Description: "Get the complete outline of a course including its link and all lesson titles",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			"required": []any{"course_name"},
		},
	}
}

// Execute resolves the course and renders its outline. An unresolvable name
// comes back as explanatory result text.
func (t *OutlineTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	courseName, _ := input["course_name"].(string)
	if courseName == "" {
		return "", fmt.Errorf("%s: missing course_name", OutlineToolName)
	}

	res, err := t.engine.Outline(ctx, courseName)
	if errors.Is(err, knowledge.ErrCourseNotFound) {
		return fmt.Sprintf("No course found matching '%s'", courseName), nil
	}
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.sources = []rag.Source{res.Source}
	t.mu.Unlock()

	return res.Text, nil
}

// LastSources returns the source of the most recent outline.
func (t *OutlineTool) LastSources() []rag.Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sources
}

// ResetSources clears the recorded source.
func (t *OutlineTool) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}
