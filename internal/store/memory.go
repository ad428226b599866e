package store

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// MemorySink keeps documents in process memory. Useful for development and tests.
type MemorySink struct {
	mu   sync.RWMutex
	docs map[string][]Document
}

// NewMemorySink creates an empty memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{docs: make(map[string][]Document)}
}

// Name returns the sink type
func (s *MemorySink) Name() string { return "memory" }

// Insert stores a copy of doc under a new UUID
func (s *MemorySink) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "insert", Err: err}
	}
	if err := checkCollection(s.Name(), collection); err != nil {
		return "", err
	}

	id := uuid.NewString()
	stored := maps.Clone(doc)
	if stored == nil {
		stored = Document{}
	}
	stored["id"] = id

	s.mu.Lock()
	s.docs[collection] = append(s.docs[collection], stored)
	s.mu.Unlock()
	return id, nil
}

// Documents returns copies of the documents stored in collection, oldest first
func (s *MemorySink) Documents(collection string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.docs[collection]))
	for _, d := range s.docs[collection] {
		out = append(out, maps.Clone(d))
	}
	return out
}

// Close is a no-op
func (s *MemorySink) Close() error { return nil }
