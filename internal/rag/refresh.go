package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"coachrag/pkg/domain"
)

// DocumentSource produces the documents to index.
type DocumentSource interface {
	Load() ([]domain.Document, error)
}

// RefreshResult summarizes one successful rebuild.
type RefreshResult struct {
	Documents  int    `json:"documents"`
	Chunks     int    `json:"chunks"`
	Collection string `json:"-"`
}

// RefreshController rebuilds the index from all document sources and
// swaps the retriever to the new collection. At most one rebuild runs at
// a time; the previous index keeps serving queries until the swap.
type RefreshController struct {
	sources   []DocumentSource
	splitter  *Splitter
	index     *Index
	retriever *Retriever
	logger    *slog.Logger

	mu sync.Mutex
}

// NewRefreshController wires a controller over the given sources.
func NewRefreshController(sources []DocumentSource, splitter *Splitter, index *Index, retriever *Retriever, logger *slog.Logger) *RefreshController {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshController{
		sources:   sources,
		splitter:  splitter,
		index:     index,
		retriever: retriever,
		logger:    logger,
	}
}

// Refresh rebuilds the index. The new collection is built completely
// before the retriever is swapped to it; only then is the old collection
// dropped. A failed build drops the partial collection and leaves the
// previous index untouched. Returns ErrRebuildInProgress when a rebuild
// is already running.
func (c *RefreshController) Refresh(ctx context.Context) (RefreshResult, error) {
	if !c.mu.TryLock() {
		return RefreshResult{}, ErrRebuildInProgress
	}
	defer c.mu.Unlock()

	var docs []domain.Document
	for _, source := range c.sources {
		loaded, err := source.Load()
		if err != nil {
			return RefreshResult{}, fmt.Errorf("load documents: %w", err)
		}
		docs = append(docs, loaded...)
	}
	chunks := c.splitter.SplitDocuments(docs)

	name := "rag-" + uuid.NewString()
	c.logger.Info("rebuilding index", "collection", name, "documents", len(docs), "chunks", len(chunks))

	if err := c.index.Build(ctx, name, chunks); err != nil {
		if dropErr := c.index.Drop(name); dropErr != nil {
			c.logger.Warn("drop partial collection failed", "collection", name, "error", dropErr)
		}
		return RefreshResult{}, err
	}

	// Report what the collection actually holds, not the pre-insert tally.
	stored, err := c.index.Count(name)
	if err != nil {
		c.logger.Warn("count new collection failed", "collection", name, "error", err)
		stored = len(chunks)
	}

	old := c.retriever.Swap(name)
	if old != "" {
		if err := c.index.Drop(old); err != nil {
			c.logger.Warn("drop previous collection failed", "collection", old, "error", err)
		}
	}
	c.logger.Info("index rebuilt", "collection", name, "chunks", stored)
	return RefreshResult{Documents: len(docs), Chunks: stored, Collection: name}, nil
}
