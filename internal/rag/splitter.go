package rag

import "fmt"

const (
	DefaultChunkSize = 800
	DefaultOverlap   = 100
)

// Splitter cuts document text into fixed-width overlapping windows. It has no
// notion of sentences or paragraphs; retrieval quality comes from the overlap,
// not from semantic boundaries.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter validates the window parameters once. Overlap >= chunkSize would
// stop the window from advancing, so it is rejected here instead of being
// clamped at split time.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("splitter: chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("splitter: overlap %d must be in [0, %d)", overlap, chunkSize)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split returns the overlapping windows of text, in order. Windows advance by
// chunkSize-overlap runes; the final window may be shorter. Empty text yields nil.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := s.chunkSize - s.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func (s *Splitter) ChunkSize() int { return s.chunkSize }
func (s *Splitter) Overlap() int   { return s.overlap }
