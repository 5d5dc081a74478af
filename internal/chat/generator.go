// Package chat orchestrates answer generation: one model call that may
// request tools, local tool dispatch, and one terminal follow-up call that
// folds the tool results into the final answer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// ErrGeneration indicates the model failed to produce a response.
var ErrGeneration = errors.New("generation failed")

// fallbackMessage is returned when the model produces an empty final answer.
const fallbackMessage = "I couldn't generate a response. Please try rephrasing your question."

const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with tools for searching course content and retrieving course outlines.

Tool usage:
- Use the content search tool for questions about specific course materials or lesson details
- Use the outline tool for questions about a course's structure, lesson list or links
- At most one round of tool calls per question; synthesize the results into your answer
- If a tool yields no results, state that clearly without offering alternatives

Responses:
- Answer general knowledge questions directly without tools
- Keep answers brief, concise and focused
- Do not mention the tools or your search process in the answer`

// ToolRunner is the slice of the tool registry the generator consumes.
type ToolRunner interface {
	Definitions() []*ai.ToolDefinition
	Execute(ctx context.Context, name string, input map[string]any) (string, error)
}

// Generator drives the two-call generation protocol.
type Generator struct {
	client ModelClient
	runner ToolRunner
	logger *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(client ModelClient, runner ToolRunner, logger *slog.Logger) *Generator {
	return &Generator{client: client, runner: runner, logger: logger}
}

// Answer produces the response to one user query. history is the formatted
// prior conversation, empty for a fresh session.
//
// The first model call offers the registered tools. If the model answers
// directly that text is final. If it requests tools, each request is executed
// locally and a single follow-up call without tools produces the answer.
func (g *Generator) Answer(ctx context.Context, query, history string) (string, error) {
	system := systemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}

	userMsg := ai.NewUserMessage(ai.NewTextPart(query))

	resp, err := g.client.Generate(ctx, &Request{
		System:   system,
		Messages: []*ai.Message{userMsg},
		Tools:    g.runner.Definitions(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if len(resp.ToolRequests) == 0 {
		return finalText(resp.Text), nil
	}

	g.logger.Debug("tool round", "requests", len(resp.ToolRequests))

	messages := []*ai.Message{userMsg}
	if resp.Message != nil {
		messages = append(messages, resp.Message)
	}
	messages = append(messages, g.runTools(ctx, resp.ToolRequests))

	final, err := g.client.Generate(ctx, &Request{
		System:   system,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return finalText(final.Text), nil
}

// runTools executes every tool request and packs the results into a single
// tool-role message. A failing tool becomes result text so the model can
// still answer.
func (g *Generator) runTools(ctx context.Context, requests []*ai.ToolRequest) *ai.Message {
	parts := make([]*ai.Part, 0, len(requests))
	for _, tr := range requests {
		out, err := g.runner.Execute(ctx, tr.Name, toolInput(tr))
		if err != nil {
			g.logger.Warn("tool execution failed", "tool", tr.Name, "error", err)
			out = fmt.Sprintf("Tool '%s' failed: %v", tr.Name, err)
		}
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   tr.Name,
			Ref:    tr.Ref,
			Output: out,
		}))
	}
	return ai.NewMessage(ai.RoleTool, nil, parts...)
}

func toolInput(tr *ai.ToolRequest) map[string]any {
	if m, ok := tr.Input.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func finalText(text string) string {
	if strings.TrimSpace(text) == "" {
		return fallbackMessage
	}
	return text
}
