package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/apsinha/coursechat/internal/tools"
)

// GenkitModel is the production ModelClient. It forwards requests to the
// configured model through Genkit and rate-limits each call.
type GenkitModel struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewGenkitModel creates a GenkitModel. modelName must be provider-qualified
// (e.g. "googleai/gemini-2.5-flash"). A nil limiter disables rate limiting.
func NewGenkitModel(g *genkit.Genkit, modelName string, limiter *rate.Limiter, logger *slog.Logger) *GenkitModel {
	return &GenkitModel{g: g, modelName: modelName, limiter: limiter, logger: logger}
}

// RegisterTools defines every registry tool in Genkit so generate calls can
// reference them by name. Each tool keeps its registry-declared input schema;
// letting Genkit infer one from map[string]any would strip the parameter
// descriptions the model relies on. The tool bodies dispatch back through the
// registry; with tool requests returned to the caller they normally never run
// inside Genkit itself.
func RegisterTools(g *genkit.Genkit, reg *tools.Registry) {
	for _, def := range reg.Definitions() {
		name := def.Name
		genkit.DefineToolWithInputSchema(g, name, def.Description, def.InputSchema,
			func(tc *ai.ToolContext, input any) (string, error) {
				args, _ := input.(map[string]any)
				return reg.Execute(tc, name, args)
			})
	}
}

// Generate runs one model call. Tool requests are returned to the caller
// rather than auto-executed, keeping the dispatch loop outside Genkit.
func (m *GenkitModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(m.modelName),
		ai.WithMessages(req.Messages...),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if len(req.Tools) > 0 {
		refs := make([]ai.ToolRef, 0, len(req.Tools))
		for _, def := range req.Tools {
			if tool := genkit.LookupTool(m.g, def.Name); tool != nil {
				refs = append(refs, tool)
			}
		}
		opts = append(opts, ai.WithTools(refs...), ai.WithReturnToolRequests(true))
	}

	m.logger.Debug("model call",
		"model", m.modelName, "messages", len(req.Messages), "tools", len(req.Tools))

	resp, err := genkit.Generate(ctx, m.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return &Response{
		Text:         resp.Text(),
		Message:      resp.Message,
		ToolRequests: resp.ToolRequests(),
	}, nil
}
