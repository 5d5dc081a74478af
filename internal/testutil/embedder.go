// Package testutil provides deterministic test doubles shared across
// packages.
package testutil

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// EmbedderDims is the dimensionality of Embedder vectors.
const EmbedderDims = 64

// Embedder is a deterministic ai.Embedder producing bag-of-words vectors:
// texts sharing tokens get higher cosine similarity. That is enough to
// exercise catalog resolution and content retrieval without a real model.
type Embedder struct{}

func (Embedder) Name() string { return "testutil/bag-of-words" }

func (Embedder) Register(api.Registry) {}

func (Embedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text strings.Builder
		for _, p := range doc.Content {
			text.WriteString(p.Text)
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: EmbedText(text.String())})
	}
	return resp, nil
}

// EmbedText hashes each lowercase token into a fixed-size count vector.
func EmbedText(text string) []float32 {
	vec := make([]float32, EmbedderDims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,:;!?\"'()")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%EmbedderDims]++
	}
	return vec
}
