// Package tools provides the tool surface the model can call during
// generation: a registry for lookup and dispatch, plus the course search and
// outline tools themselves.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/apsinha/coursechat/internal/rag"
)

// ErrToolNotFound indicates a dispatch request for a name no registered tool
// carries.
var ErrToolNotFound = errors.New("tool not found")

// ErrDuplicateTool indicates a registration under an already-taken name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Searcher is the slice of the retrieval engine the tools consume.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...rag.SearchOption) (*rag.SearchResult, error)
	Outline(ctx context.Context, courseName string) (*rag.OutlineResult, error)
}

// Tool is one callable capability exposed to the model.
//
// Execute receives the raw argument map from the model's tool request and
// returns the text fed back as the tool result. User-facing failure modes
// (unknown course, no matches) are returned as result text, not as errors;
// an error return means the tool itself broke.
type Tool interface {
	Name() string
	Definition() *ai.ToolDefinition
	Execute(ctx context.Context, input map[string]any) (string, error)
}

// SourceProvider is implemented by tools that track the references behind
// their last result.
type SourceProvider interface {
	LastSources() []rag.Source
	ResetSources()
}

// Registry holds the registered tools and dispatches execution requests.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. A name can only be registered once.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("register %q: %w", t.Name(), ErrDuplicateTool)
	}
	r.order = append(r.order, t.Name())
	r.tools[t.Name()] = t
	return nil
}

// Definitions returns the tool definitions in registration order, ready to
// hand to the model.
func (r *Registry) Definitions() []*ai.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*ai.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches a tool request by name. An unknown name fails with
// ErrToolNotFound.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("execute %q: %w", name, ErrToolNotFound)
	}
	return t.Execute(ctx, input)
}

// LastSources collects the sources recorded by tools since the last reset.
func (r *Registry) LastSources() []rag.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sources []rag.Source
	for _, name := range r.order {
		if sp, ok := r.tools[name].(SourceProvider); ok {
			sources = append(sources, sp.LastSources()...)
		}
	}
	return sources
}

// ResetSources clears source tracking on every tool. Callers reset before a
// generation round so LastSources reflects only that round.
func (r *Registry) ResetSources() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tools {
		if sp, ok := t.(SourceProvider); ok {
			sp.ResetSources()
		}
	}
}
