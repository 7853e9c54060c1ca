package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coachrag/pkg/ai"
	"coachrag/pkg/domain"
	"coachrag/pkg/store"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"

	defaultBatchSize   = 16
	defaultConcurrency = 4
)

// Index embeds chunks into a vector store and serves similarity search
// over named collections.
type Index struct {
	vectors     store.VectorStore
	embedder    ai.Embedder
	batchSize   int
	concurrency int
}

// NewIndex builds an index over the vector store.
func NewIndex(vectors store.VectorStore, embedder ai.Embedder, batchSize, concurrency int) *Index {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Index{
		vectors:     vectors,
		embedder:    embedder,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// Build embeds all chunks and inserts them into the named collection.
// An empty chunk list still produces a valid, empty collection.
func (x *Index) Build(ctx context.Context, name string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return x.vectors.AddChunks(name, nil)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(x.concurrency)
	for start := 0; start < len(chunks); start += x.batchSize {
		end := start + x.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		group.Go(func() error {
			indexed, err := x.embedBatch(ctx, batch)
			if err != nil {
				return err
			}
			return x.vectors.AddChunks(name, indexed)
		})
	}
	return group.Wait()
}

func (x *Index) embedBatch(ctx context.Context, chunks []domain.Chunk) ([]store.IndexedChunk, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	if batcher, ok := x.embedder.(ai.BatchEmbedder); ok {
		batched, err := batcher.EmbedTexts(ctx, texts, taskTypeDocument)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ai.ErrEmbeddingFailure, err)
		}
		embeddings = batched
	} else {
		embeddings = make([][]float32, len(texts))
		for i, text := range texts {
			vec, err := x.embedder.EmbedText(ctx, text, taskTypeDocument)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ai.ErrEmbeddingFailure, err)
			}
			embeddings[i] = vec
		}
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", ai.ErrEmbeddingFailure, len(embeddings), len(chunks))
	}

	indexed := make([]store.IndexedChunk, len(chunks))
	for i, chunk := range chunks {
		indexed[i] = store.IndexedChunk{
			ID:        uuid.NewString(),
			Content:   chunk.Content,
			Metadata:  chunk.Metadata,
			Embedding: embeddings[i],
		}
	}
	return indexed, nil
}

// Search embeds the query and returns the closest chunks from the collection.
func (x *Index) Search(ctx context.Context, name, query string, limit int) ([]domain.RetrievedChunk, error) {
	vec, err := x.embedder.EmbedText(ctx, query, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrEmbeddingFailure, err)
	}
	return x.vectors.Search(name, vec, limit)
}

// Count returns the number of chunks in the collection.
func (x *Index) Count(name string) (int, error) {
	return x.vectors.Count(name)
}

// Drop removes the collection.
func (x *Index) Drop(name string) error {
	return x.vectors.DropCollection(name)
}
