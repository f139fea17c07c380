package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"smartstudy/internal/ai"
	"smartstudy/internal/model"
	"smartstudy/internal/pkg/pdfextract"
	"smartstudy/internal/rag"
	"smartstudy/internal/vectorstore"
)

const (
	defaultTopK = 5
	// how many chunks feed the quiz prompt; matches what a 3-question quiz
	// can realistically draw from without blowing the context window.
	quizContextSize = 20
	// quiz context is the stored chunks nearest to this probe, since the
	// vector index has no positional "first N" access.
	quizProbe = "key facts, definitions and main ideas"
)

var (
	ErrNoExtractableText = errors.New("document contains no extractable text")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrNoStudyMaterial   = errors.New("no study material uploaded yet")
	ErrEmbeddingFailed   = errors.New("embedding service failed")
	ErrGenerationFailed  = errors.New("generation service failed")
	ErrMessageEnqueue    = errors.New("message enqueue failed")
)

// Narrow views of the storage collaborators, concrete implementations live in
// repository/, cache/ and platform/rabbitmq/.
type DocumentStore interface {
	Create(doc *model.Document) error
	ListByUserID(userID uint) ([]model.Document, error)
	GetByUserIDAndFilename(userID uint, filename string) (*model.Document, error)
	DeleteByUserIDAndFilename(userID uint, filename string) error
}

type ChatHistoryStore interface {
	ListByUserID(userID uint, limit int) ([]model.ChatMessage, error)
}

type QuizAttemptStore interface {
	Create(attempt *model.QuizAttempt) error
	ListByUserID(userID uint) ([]model.QuizAttempt, error)
	UpdateScore(userID, attemptID uint, score int) error
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, userID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, userID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, userID uint) error
	MarkDirty(ctx context.Context, userID uint) error
	IsDirty(ctx context.Context, userID uint) (bool, error)
}

type UploadStore interface {
	Save(owner, filename string, r io.Reader) error
	Remove(owner, filename string) error
}

// StudyService is the RAG pipeline: ingestion (extract, split, embed, index)
// and querying (embed, retrieve, generate). Everything else it touches is a
// collaborator behind one of the interfaces above.
type StudyService struct {
	docs      DocumentStore
	chats     ChatHistoryStore
	quizzes   QuizAttemptStore
	publisher AsyncMessagePublisher
	history   HistoryCache
	uploads   UploadStore
	vectors   *vectorstore.Store
	embedder  ai.Embedder
	generator *ai.Generator
	splitter  *rag.Splitter
	topK      int
}

func NewStudyService(
	docs DocumentStore,
	chats ChatHistoryStore,
	quizzes QuizAttemptStore,
	publisher AsyncMessagePublisher,
	history HistoryCache,
	uploads UploadStore,
	vectors *vectorstore.Store,
	embedder ai.Embedder,
	generator *ai.Generator,
	splitter *rag.Splitter,
	topK int,
) *StudyService {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &StudyService{
		docs:      docs,
		chats:     chats,
		quizzes:   quizzes,
		publisher: publisher,
		history:   history,
		uploads:   uploads,
		vectors:   vectors,
		embedder:  embedder,
		generator: generator,
		splitter:  splitter,
		topK:      topK,
	}
}

type UploadInput struct {
	UserID   uint
	Filename string
	Content  []byte
}

type UploadResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Upload runs the ingestion flow. Chunks and embeddings are fully computed
// before the first index write, so a failure anywhere leaves the collection
// either untouched or fully updated for this batch. Re-uploading a filename
// replaces its old entries instead of piling up duplicates.
func (s *StudyService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.UserID == 0 || len(input.Content) == 0 {
		return nil, ErrInvalidInput
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}

	text, err := pdfextract.ExtractText(bytes.NewReader(input.Content))
	if err != nil {
		return nil, fmt.Errorf("extract document text failed: %w", err)
	}

	chunkCount, err := s.ingest(ctx, input.UserID, filename, text)
	if err != nil {
		return nil, err
	}

	if err := s.uploads.Save(s.owner(input.UserID), filename, bytes.NewReader(input.Content)); err != nil {
		return nil, err
	}

	doc, err := s.docs.GetByUserIDAndFilename(input.UserID, filename)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &model.Document{UserID: input.UserID, Filename: filename}
		if err := s.docs.Create(doc); err != nil {
			return nil, err
		}
	}

	return &UploadResult{Document: *doc, ChunkCount: chunkCount}, nil
}

// ingest splits, embeds and indexes extracted text. Both the chunk list and
// the vectors are complete before the first index write, so a failure leaves
// the collection either untouched or fully replaced for this filename.
func (s *StudyService) ingest(ctx context.Context, userID uint, filename, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrNoExtractableText
	}

	chunks := s.splitter.Split(text)
	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingFailed, len(embeddings), len(chunks))
	}

	col, err := s.vectors.Collection(s.owner(userID))
	if err != nil {
		return 0, err
	}
	if err := s.vectors.DeleteBySource(ctx, col, filename); err != nil {
		return 0, err
	}

	sources := make([]string, len(chunks))
	for i := range sources {
		sources[i] = filename
	}
	if err := s.vectors.Add(ctx, col, chunks, embeddings, sources, uuid.NewString()); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (s *StudyService) ListDocuments(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByUserID(userID)
}

// DeleteDocument removes the upload, its vector entries and the ownership row.
func (s *StudyService) DeleteDocument(ctx context.Context, userID uint, filename string) error {
	if userID == 0 || strings.TrimSpace(filename) == "" {
		return ErrInvalidInput
	}

	doc, err := s.docs.GetByUserIDAndFilename(userID, filename)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.uploads.Remove(s.owner(userID), filename); err != nil {
		return err
	}

	col, err := s.vectors.Collection(s.owner(userID))
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteBySource(ctx, col, filename); err != nil {
		return err
	}

	return s.docs.DeleteByUserIDAndFilename(userID, filename)
}

// StreamChat runs the query flow and streams the answer through onChunk. An
// embedding failure aborts (no retrieval is possible without a query vector);
// a generation failure degrades to sentinel text inside the stream. Both chat
// turns are enqueued for async persistence.
func (s *StudyService) StreamChat(ctx context.Context, userID uint, query string, onChunk func(chunk string) error) (string, error) {
	if userID == 0 {
		return "", ErrInvalidInput
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrInvalidInput
	}

	if err := s.recordTurn(ctx, userID, "user", query); err != nil {
		return "", err
	}

	queryVectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	var queryEmbedding []float32
	if len(queryVectors) > 0 {
		queryEmbedding = queryVectors[0]
	}

	col, err := s.vectors.Collection(s.owner(userID))
	if err != nil {
		return "", err
	}
	contextChunks, err := s.vectors.Query(ctx, col, queryEmbedding, s.topK)
	if err != nil {
		return "", err
	}

	answer, err := s.generator.GenerateStream(ctx, contextChunks, query, onChunk)
	if err != nil {
		// Consumer is gone; the answer was never delivered, don't record it.
		return "", err
	}

	if err := s.recordTurn(ctx, userID, "assistant", answer); err != nil {
		return "", err
	}
	return answer, nil
}

// GetHistory returns the user's chat turns, served from the Redis cache when
// it is neither missed nor dirty.
func (s *StudyService) GetHistory(ctx context.Context, userID uint, limit int) ([]model.ChatMessage, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	if s.history != nil {
		dirty, err := s.history.IsDirty(ctx, userID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.history.GetHistory(ctx, userID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.chats.ListByUserID(userID, limit)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		if dirty, dirtyErr := s.history.IsDirty(ctx, userID); dirtyErr == nil && !dirty {
			_ = s.history.SetHistory(ctx, userID, messages)
		}
	}
	return messages, nil
}

type QuizResult struct {
	AttemptID uint               `json:"attempt_id"`
	Questions []rag.QuizQuestion `json:"questions"`
}

// GenerateQuiz builds a quiz from the chunks nearest to a fixed probe. The
// model's output is parsed tolerantly and then schema-checked; anything
// unusable surfaces as *rag.MalformedQuizError, never retried (the model is
// non-deterministic, a blind retry proves nothing).
func (s *StudyService) GenerateQuiz(ctx context.Context, userID uint) (*QuizResult, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	probeVectors, err := s.embedder.Embed(ctx, []string{quizProbe})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	var probe []float32
	if len(probeVectors) > 0 {
		probe = probeVectors[0]
	}

	col, err := s.vectors.Collection(s.owner(userID))
	if err != nil {
		return nil, err
	}
	contextChunks, err := s.vectors.Query(ctx, col, probe, quizContextSize)
	if err != nil {
		return nil, err
	}
	if len(contextChunks) == 0 {
		return nil, ErrNoStudyMaterial
	}

	raw := s.generator.GenerateComplete(ctx, ai.BuildQuizPrompt(contextChunks))
	if raw == s.generator.Sentinel() {
		return nil, ErrGenerationFailed
	}

	questions, err := rag.ParseQuiz(raw)
	if err != nil {
		return nil, err
	}
	if err := rag.ValidateQuestions(raw, questions); err != nil {
		return nil, err
	}

	attempt := &model.QuizAttempt{UserID: userID, Score: 0, TotalQuestions: len(questions)}
	if err := s.quizzes.Create(attempt); err != nil {
		return nil, err
	}

	return &QuizResult{AttemptID: attempt.ID, Questions: questions}, nil
}

// SubmitQuizScore records the outcome of a quiz attempt.
func (s *StudyService) SubmitQuizScore(userID, attemptID uint, score int) error {
	if userID == 0 || attemptID == 0 || score < 0 {
		return ErrInvalidInput
	}
	return s.quizzes.UpdateScore(userID, attemptID, score)
}

func (s *StudyService) ListQuizAttempts(userID uint) ([]model.QuizAttempt, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.quizzes.ListByUserID(userID)
}

func (s *StudyService) recordTurn(ctx context.Context, userID uint, role, content string) error {
	if s.publisher == nil {
		return ErrMessageEnqueue
	}
	if s.history != nil {
		_ = s.history.MarkDirty(ctx, userID)
		_ = s.history.DeleteHistory(ctx, userID)
	}
	msg := model.ChatMessage{UserID: userID, Role: role, Content: content}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		return ErrMessageEnqueue
	}
	return nil
}

func (s *StudyService) owner(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

func trimMessages(messages []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
