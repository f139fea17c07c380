package ai

import "context"

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient is the boundary to a language-model service. Implementations exist
// for a local Ollama daemon and for OpenAI-compatible hosted APIs; which one is
// used is decided by configuration at construction time.
type ChatClient interface {
	// Complete returns the full response for the conversation.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)

	// StreamComplete forwards response fragments to onChunk as the model emits
	// them and returns the concatenated response. An error from onChunk aborts
	// the stream and is returned unchanged.
	StreamComplete(ctx context.Context, messages []ChatMessage, onChunk func(chunk string) error) (string, error)
}

// Embedder maps texts to fixed-dimension vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
