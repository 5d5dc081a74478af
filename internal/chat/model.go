package chat

import (
	"context"

	"github.com/firebase/genkit/go/ai"
)

// Request is one model invocation. When Tools is non-empty the model may
// answer with tool requests instead of text; when Tools is nil the model must
// produce a final text answer.
type Request struct {
	System   string
	Messages []*ai.Message
	Tools    []*ai.ToolDefinition
}

// Response is the model's reply. Message preserves the full assistant turn so
// it can be replayed verbatim in a follow-up conversation.
type Response struct {
	Text         string
	Message      *ai.Message
	ToolRequests []*ai.ToolRequest
}

// ModelClient abstracts the LLM behind the generator. Implementations must
// honor ctx cancellation.
type ModelClient interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
