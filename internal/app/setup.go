package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/time/rate"

	"github.com/apsinha/coursechat/internal/chat"
	"github.com/apsinha/coursechat/internal/config"
	"github.com/apsinha/coursechat/internal/knowledge"
	"github.com/apsinha/coursechat/internal/rag"
	"github.com/apsinha/coursechat/internal/session"
	"github.com/apsinha/coursechat/internal/tools"
)

// Setup builds the production App: Genkit with the configured provider, the
// chromem-backed index, the retrieval engine, the tool registry and the
// generator.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, embedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := provideDB(cfg)
	if err != nil {
		return nil, err
	}

	index, err := knowledge.NewIndex(db, embedder, logger)
	if err != nil {
		return nil, err
	}

	engine := rag.NewEngine(index, cfg.MaxResults, logger)

	registry := tools.NewRegistry()
	for _, t := range []tools.Tool{tools.NewSearchTool(engine), tools.NewOutlineTool(engine)} {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	chat.RegisterTools(g, registry)

	model := chat.NewGenkitModel(g, cfg.FullModelName(), rate.NewLimiter(10, 30), logger)
	generator := chat.NewGenerator(model, registry, logger)

	return New(cfg, logger, Components{
		Index:     index,
		Engine:    engine,
		Registry:  registry,
		Generator: generator,
		Sessions:  session.NewMemoryStore(cfg.MaxHistory),
	}), nil
}

// provideGenkit initializes Genkit for the configured provider and returns
// the embedder registered by that provider's plugin.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, ai.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		plugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(plugin))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration.
		plugin.DefineModel(g, ollama.ModelDefinition{Name: cfg.ModelName, Type: "chat"}, nil)
		plugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, ollama.Embedder(g, cfg.OllamaHost), nil

	case "", "googleai":
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with googleai provider")
		}
		logger.Info("initialized Genkit with googleai provider", "model", cfg.ModelName)
		return g, googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel), nil

	default:
		return nil, nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// provideDB opens the vector database, persistent when an index path is
// configured and in-memory otherwise.
func provideDB(cfg *config.Config) (*chromem.DB, error) {
	if cfg.IndexPath == "" {
		return chromem.NewDB(), nil
	}
	db, err := chromem.NewPersistentDB(cfg.IndexPath, false)
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", cfg.IndexPath, err)
	}
	return db, nil
}
