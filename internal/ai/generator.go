package ai

import (
	"context"
	"strings"
	"time"
)

// DefaultSentinel is the fragment emitted in place of an answer when the
// language-model service cannot be reached. Callers treat it as content, not as
// a protocol error, so an upstream outage degrades the answer instead of
// failing the request.
const DefaultSentinel = "Error: could not reach the language model service. Please make sure it is running and try again."

const answerSystemPrompt = "Use the following context to answer the question. " +
	"If the context doesn't contain the answer, say that you couldn't find the relevant information."

// Generator composes retrieved context and a question into a prompt and runs it
// through the configured chat backend. All upstream failures, timeouts
// included, are converted to the sentinel text.
type Generator struct {
	client   ChatClient
	timeout  time.Duration
	sentinel string
}

func NewGenerator(client ChatClient, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Generator{
		client:   client,
		timeout:  timeout,
		sentinel: DefaultSentinel,
	}
}

// Sentinel returns the error text substituted for answers on upstream failure.
func (g *Generator) Sentinel() string {
	return g.sentinel
}

// GenerateStream streams an answer grounded in contextChunks to onChunk and
// returns the full text. On upstream failure it delivers exactly one sentinel
// fragment and returns the sentinel as the full text, with a nil error. The
// only errors returned are the consumer's own onChunk errors, so a client that
// disconnects mid-stream surfaces as an error while a model outage does not.
func (g *Generator) GenerateStream(ctx context.Context, contextChunks []string, query string, onChunk func(chunk string) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := []ChatMessage{
		{Role: "user", Content: buildAnswerPrompt(contextChunks, query)},
	}

	var consumerErr error
	full, err := g.client.StreamComplete(ctx, messages, func(chunk string) error {
		if cbErr := onChunk(chunk); cbErr != nil {
			consumerErr = cbErr
			return cbErr
		}
		return nil
	})
	if consumerErr != nil {
		return "", consumerErr
	}
	if err != nil {
		if cbErr := onChunk(g.sentinel); cbErr != nil {
			return "", cbErr
		}
		return g.sentinel, nil
	}
	return full, nil
}

// GenerateComplete runs prompt through the backend in non-streaming mode. On
// upstream failure it returns the sentinel text instead of an error.
func (g *Generator) GenerateComplete(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := []ChatMessage{{Role: "user", Content: prompt}}
	answer, err := g.client.Complete(ctx, messages)
	if err != nil {
		return g.sentinel
	}
	return answer
}

func buildAnswerPrompt(contextChunks []string, query string) string {
	var b strings.Builder
	b.WriteString(answerSystemPrompt)
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(contextChunks, "\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// BuildQuizPrompt asks for exactly three multiple-choice questions as a bare
// JSON array. The strict formatting instruction is best-effort; the quiz
// extractor tolerates prose around the array anyway.
func BuildQuizPrompt(contextChunks []string) string {
	var b strings.Builder
	b.WriteString("Based on the following context, generate exactly 3 multiple-choice quiz questions.\n")
	b.WriteString("You MUST respond with only a valid JSON array. Do not include any text or formatting before or after the JSON.\n")
	b.WriteString("Each element must be an object with fields: \"question\" (string), \"choices\" (array of 4 strings), ")
	b.WriteString("and \"answer\" (index of the correct choice, 0-3).\n\nContext:\n")
	b.WriteString(strings.Join(contextChunks, "\n"))
	return b.String()
}
