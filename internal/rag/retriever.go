package rag

import (
	"context"
	"sync"

	"coachrag/pkg/domain"
)

// Retriever serves similarity search over the currently active collection.
// The active collection name is swapped atomically after a rebuild, so
// readers never observe a half-built index.
type Retriever struct {
	index *Index
	topK  int

	mu     sync.RWMutex
	active string
}

// NewRetriever builds a retriever with no active collection.
func NewRetriever(index *Index, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{index: index, topK: topK}
}

// Ready reports whether an index has been activated.
func (r *Retriever) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active != ""
}

// Active returns the name of the active collection, empty if none.
func (r *Retriever) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Retrieve returns the chunks most similar to the query from the active
// collection. ErrNotReady is returned before the first successful build.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error) {
	r.mu.RLock()
	active := r.active
	r.mu.RUnlock()
	if active == "" {
		return nil, ErrNotReady
	}
	return r.index.Search(ctx, active, query, r.topK)
}

// Swap activates a new collection and returns the previous one so the
// caller can discard it.
func (r *Retriever) Swap(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.active
	r.active = name
	return old
}
