package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatClient scripts the backend: either emits fragments or fails.
type stubChatClient struct {
	fragments []string
	err       error

	lastMessages []ChatMessage
}

func (s *stubChatClient) Complete(_ context.Context, messages []ChatMessage) (string, error) {
	s.lastMessages = messages
	if s.err != nil {
		return "", s.err
	}
	return strings.Join(s.fragments, ""), nil
}

func (s *stubChatClient) StreamComplete(_ context.Context, messages []ChatMessage, onChunk func(string) error) (string, error) {
	s.lastMessages = messages
	if s.err != nil {
		return "", s.err
	}
	var full strings.Builder
	for _, f := range s.fragments {
		if err := onChunk(f); err != nil {
			return "", err
		}
		full.WriteString(f)
	}
	return full.String(), nil
}

func TestGenerateStreamForwardsFragments(t *testing.T) {
	client := &stubChatClient{fragments: []string{"The ", "answer ", "is 42."}}
	gen := NewGenerator(client, time.Minute)

	var got []string
	full, err := gen.GenerateStream(context.Background(), []string{"ctx a", "ctx b"}, "what is the answer?", func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"The ", "answer ", "is 42."}, got)
	assert.Equal(t, "The answer is 42.", full)
}

func TestGenerateStreamPromptContainsContextAndQuery(t *testing.T) {
	client := &stubChatClient{fragments: []string{"ok"}}
	gen := NewGenerator(client, time.Minute)

	_, err := gen.GenerateStream(context.Background(), []string{"first chunk", "second chunk"}, "my question", func(string) error { return nil })
	require.NoError(t, err)

	require.Len(t, client.lastMessages, 1)
	prompt := client.lastMessages[0].Content
	assert.Contains(t, prompt, "first chunk\nsecond chunk")
	assert.Contains(t, prompt, "Question: my question")
}

func TestGenerateStreamUpstreamFailureYieldsSingleSentinel(t *testing.T) {
	client := &stubChatClient{err: errors.New("connection refused")}
	gen := NewGenerator(client, time.Minute)

	var got []string
	full, err := gen.GenerateStream(context.Background(), nil, "q", func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err, "upstream failure must not surface as an error")
	require.Len(t, got, 1, "exactly one sentinel fragment")
	assert.Equal(t, gen.Sentinel(), got[0])
	assert.Equal(t, gen.Sentinel(), full)
}

func TestGenerateStreamConsumerErrorPropagates(t *testing.T) {
	client := &stubChatClient{fragments: []string{"a", "b", "c"}}
	gen := NewGenerator(client, time.Minute)

	disconnect := errors.New("client gone")
	calls := 0
	_, err := gen.GenerateStream(context.Background(), nil, "q", func(string) error {
		calls++
		if calls == 2 {
			return disconnect
		}
		return nil
	})
	assert.ErrorIs(t, err, disconnect)
	assert.Equal(t, 2, calls, "stream stops once the consumer is gone")
}

func TestGenerateCompleteReturnsText(t *testing.T) {
	client := &stubChatClient{fragments: []string{"full answer"}}
	gen := NewGenerator(client, time.Minute)

	assert.Equal(t, "full answer", gen.GenerateComplete(context.Background(), "prompt"))
}

func TestGenerateCompleteUpstreamFailureReturnsSentinel(t *testing.T) {
	client := &stubChatClient{err: errors.New("dial tcp: connection refused")}
	gen := NewGenerator(client, time.Minute)

	assert.Equal(t, gen.Sentinel(), gen.GenerateComplete(context.Background(), "prompt"))
}

func TestBuildQuizPromptIncludesContext(t *testing.T) {
	prompt := BuildQuizPrompt([]string{"photosynthesis notes", "cell biology notes"})
	assert.Contains(t, prompt, "exactly 3 multiple-choice quiz questions")
	assert.Contains(t, prompt, "photosynthesis notes\ncell biology notes")
}
