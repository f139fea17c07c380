package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
)

// metadata key carrying the originating filename of each entry.
const sourceKey = "source"

// Store keeps one vector collection per owner on top of chromem-go. All
// embeddings are computed upstream and passed in explicitly; chromem's own
// embedding hook is disabled. chromem serializes concurrent writes to a
// collection and allows concurrent reads, so the store adds no locking.
type Store struct {
	db *chromem.DB
}

// NewStore opens (or creates) a persistent store under dir. Collections and
// their entries survive process restarts.
func NewStore(dir string) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store failed: %w", err)
	}
	return &Store{db: db}, nil
}

// NewMemoryStore returns a non-persistent store, used in tests.
func NewMemoryStore() *Store {
	return &Store{db: chromem.NewDB()}
}

// Collection returns the owner's collection, creating it on first use.
// Repeated calls for the same owner return a handle to the same storage.
func (s *Store) Collection(owner string) (*chromem.Collection, error) {
	if owner == "" {
		return nil, fmt.Errorf("vector store: owner must not be empty")
	}
	col, err := s.db.GetOrCreateCollection("user-"+owner, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("get or create collection for %q failed: %w", owner, err)
	}
	return col, nil
}

// Add appends one entry per chunk with ids "{batchID}_{i}". Passing no
// embeddings is a no-op; mismatched slice lengths are rejected before anything
// is written.
func (s *Store) Add(ctx context.Context, col *chromem.Collection, chunks []string, embeddings [][]float32, sources []string, batchID string) error {
	if len(embeddings) == 0 {
		return nil
	}
	if len(chunks) != len(embeddings) || len(chunks) != len(sources) {
		return fmt.Errorf("vector store: length mismatch: %d chunks, %d embeddings, %d sources",
			len(chunks), len(embeddings), len(sources))
	}

	docs := make([]chromem.Document, len(chunks))
	for i := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%s_%d", batchID, i),
			Content:   chunks[i],
			Embedding: embeddings[i],
			Metadata:  map[string]string{sourceKey: sources[i]},
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents failed: %w", err)
	}
	return nil
}

// Query returns up to topK chunk texts ranked nearest-first by cosine
// similarity. An empty query embedding or an empty collection yields no
// results rather than an error; fewer stored entries than topK yields all of
// them.
func (s *Store) Query(ctx context.Context, col *chromem.Collection, queryEmbedding []float32, topK int) ([]string, error) {
	if len(queryEmbedding) == 0 || topK <= 0 {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := col.QueryEmbedding(ctx, queryEmbedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection failed: %w", err)
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content
	}
	return texts, nil
}

// DeleteBySource removes every entry whose source filename matches. Removing a
// filename with no entries is a no-op.
func (s *Store) DeleteBySource(ctx context.Context, col *chromem.Collection, filename string) error {
	if col.Count() == 0 {
		return nil
	}
	if err := col.Delete(ctx, map[string]string{sourceKey: filename}, nil); err != nil {
		return fmt.Errorf("delete by source %q failed: %w", filename, err)
	}
	return nil
}

// rejectEmbedding guards against chromem silently calling out to a default
// embedding provider; every write and query in this store carries a
// precomputed vector.
func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("vector store: embeddings must be precomputed")
}
