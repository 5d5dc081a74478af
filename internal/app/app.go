// Package app wires configuration, the vector index, the retrieval engine,
// the tool registry and the generator into one application object.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/apsinha/coursechat/internal/config"
	"github.com/apsinha/coursechat/internal/course"
	"github.com/apsinha/coursechat/internal/knowledge"
	"github.com/apsinha/coursechat/internal/rag"
	"github.com/apsinha/coursechat/internal/session"
	"github.com/apsinha/coursechat/internal/tools"
)

// Answerer produces the response to one query given formatted history.
type Answerer interface {
	Answer(ctx context.Context, query, history string) (string, error)
}

// Components are the wired dependencies of an App.
type Components struct {
	Index     *knowledge.Index
	Engine    *rag.Engine
	Registry  *tools.Registry
	Generator Answerer
	Sessions  session.Store
}

// App is the assembled application.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	chunker   course.Chunker
	index     *knowledge.Index
	engine    *rag.Engine
	registry  *tools.Registry
	generator Answerer
	sessions  session.Store

	// queryMu serializes the registry's reset-then-read source span; the
	// registry is shared, so without it concurrent queries could harvest
	// each other's sources.
	queryMu sync.Mutex
}

// New assembles an App from already-constructed components. Setup is the
// production path; New exists for wiring alternates and tests.
func New(cfg *config.Config, logger *slog.Logger, c Components) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		chunker:   course.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		index:     c.Index,
		engine:    c.Engine,
		registry:  c.Registry,
		generator: c.Generator,
		sessions:  c.Sessions,
	}
}

// QueryResult is the outcome of one answered query.
type QueryResult struct {
	Answer    string
	Sources   []rag.Source
	SessionID uuid.UUID
}

// Query answers one user question. A nil sessionID starts a new session; the
// returned SessionID continues it.
//
// Source tracking is reset before generation so the result carries only the
// sources of this query's tool calls.
func (a *App) Query(ctx context.Context, text string, sessionID *uuid.UUID) (*QueryResult, error) {
	id := session.NewID()
	if sessionID != nil {
		id = *sessionID
	}

	history := a.sessions.History(id)

	answer, sources, err := a.generate(ctx, text, history)
	if err != nil {
		return nil, err
	}

	a.sessions.AddExchange(id, text, answer)

	a.logger.Info("query answered",
		"session", id, "sources", len(sources), "answerLength", len(answer))

	return &QueryResult{Answer: answer, Sources: sources, SessionID: id}, nil
}

// generate runs one answer round and returns the sources its tool calls
// recorded. The whole reset-generate-harvest span holds queryMu so a
// concurrent query cannot reset or read in the middle of it.
func (a *App) generate(ctx context.Context, text, history string) (string, []rag.Source, error) {
	a.queryMu.Lock()
	defer a.queryMu.Unlock()

	a.registry.ResetSources()
	answer, err := a.generator.Answer(ctx, text, history)
	if err != nil {
		return "", nil, err
	}
	return answer, a.registry.LastSources(), nil
}

// ClearSession drops a session's history.
func (a *App) ClearSession(id uuid.UUID) {
	a.sessions.Clear(id)
}

// Stats summarizes the indexed corpus.
type Stats struct {
	CourseCount  int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Stats reports what the index currently holds.
func (a *App) Stats() Stats {
	return Stats{
		CourseCount:  a.index.CourseCount(),
		CourseTitles: a.index.CourseTitles(),
	}
}
