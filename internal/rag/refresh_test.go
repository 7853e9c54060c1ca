package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"coachrag/pkg/ai"
	"coachrag/pkg/domain"
	"coachrag/pkg/store"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text, taskType string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("provider down")
	}
	// Deterministic pseudo-embedding keyed on text length.
	return []float32{float32(len(text)), 1, 0}, nil
}

type staticSource struct {
	docs []domain.Document
	err  error
}

func (s staticSource) Load() ([]domain.Document, error) {
	return s.docs, s.err
}

func newTestController(t *testing.T, sources ...DocumentSource) (*RefreshController, *Retriever, *store.MemoryStore, *fakeEmbedder) {
	t.Helper()
	vectors := store.NewMemoryStore()
	embedder := &fakeEmbedder{}
	index := NewIndex(vectors, embedder, 2, 2)
	retriever := NewRetriever(index, 3)
	splitter, err := NewSplitter(100, 20)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}
	controller := NewRefreshController(sources, splitter, index, retriever, nil)
	return controller, retriever, vectors, embedder
}

func TestRefreshBuildsAndActivatesIndex(t *testing.T) {
	source := staticSource{docs: []domain.Document{
		{Text: "le fractionné améliore la vitesse.", Metadata: map[string]string{"source": "a.txt"}},
	}}
	controller, retriever, _, _ := newTestController(t, source)

	if retriever.Ready() {
		t.Fatalf("expected retriever not ready before first build")
	}
	result, err := controller.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if result.Documents != 1 || result.Chunks == 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !retriever.Ready() {
		t.Fatalf("expected retriever ready after build")
	}
	chunks, err := retriever.Retrieve(context.Background(), "fractionné")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("expected retrieved chunks")
	}
}

func TestRefreshReportsStoredChunkCount(t *testing.T) {
	source := staticSource{docs: []domain.Document{
		{Text: strings.Repeat("la régularité paie.\n\n", 20), Metadata: map[string]string{"source": "a.txt"}},
	}}
	controller, retriever, vectors, _ := newTestController(t, source)

	result, err := controller.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	stored, err := vectors.Count(retriever.Active())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if stored == 0 {
		t.Fatalf("expected chunks in the active collection")
	}
	if result.Chunks != stored {
		t.Fatalf("result reports %d chunks, collection holds %d", result.Chunks, stored)
	}
}

func TestRefreshSwapsAndDropsOldCollection(t *testing.T) {
	source := staticSource{docs: []domain.Document{
		{Text: "un document.", Metadata: map[string]string{"source": "a.txt"}},
	}}
	controller, retriever, vectors, _ := newTestController(t, source)

	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	first := retriever.Active()

	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	second := retriever.Active()
	if first == second {
		t.Fatalf("expected a new collection per rebuild")
	}
	if vectors.HasCollection(first) {
		t.Fatalf("expected old collection to be dropped")
	}
	if !vectors.HasCollection(second) {
		t.Fatalf("expected new collection to exist")
	}
}

func TestRefreshFailureKeepsOldIndex(t *testing.T) {
	source := staticSource{docs: []domain.Document{
		{Text: "un document.", Metadata: map[string]string{"source": "a.txt"}},
	}}
	controller, retriever, vectors, embedder := newTestController(t, source)

	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	active := retriever.Active()

	embedder.fail = true
	_, err := controller.Refresh(context.Background())
	if err == nil {
		t.Fatalf("expected refresh to fail")
	}
	if !errors.Is(err, ai.ErrEmbeddingFailure) {
		t.Fatalf("expected embedding failure category, got %v", err)
	}
	if retriever.Active() != active {
		t.Fatalf("expected failed rebuild to keep previous index active")
	}
	if !vectors.HasCollection(active) {
		t.Fatalf("expected previous collection to survive failed rebuild")
	}
}

func TestRefreshRejectsConcurrentRebuild(t *testing.T) {
	controller, _, _, _ := newTestController(t, staticSource{})

	controller.mu.Lock()
	_, err := controller.Refresh(context.Background())
	controller.mu.Unlock()
	if !errors.Is(err, ErrRebuildInProgress) {
		t.Fatalf("expected ErrRebuildInProgress, got %v", err)
	}
}

func TestRefreshEmptySourcesBuildsEmptyIndex(t *testing.T) {
	controller, retriever, _, _ := newTestController(t, staticSource{})

	result, err := controller.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if result.Chunks != 0 {
		t.Fatalf("expected no chunks, got %d", result.Chunks)
	}
	if !retriever.Ready() {
		t.Fatalf("expected empty build to still activate an index")
	}
	chunks, err := retriever.Retrieve(context.Background(), "question")
	if err != nil {
		t.Fatalf("retrieve on empty index: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks from empty index")
	}
}

func TestRetrieveBeforeBuildReturnsNotReady(t *testing.T) {
	_, retriever, _, _ := newTestController(t, staticSource{})
	if _, err := retriever.Retrieve(context.Background(), "question"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestRefreshLoadErrorPropagates(t *testing.T) {
	controller, retriever, _, _ := newTestController(t, staticSource{err: errors.New("disk gone")})
	if _, err := controller.Refresh(context.Background()); err == nil {
		t.Fatalf("expected load error to propagate")
	}
	if retriever.Ready() {
		t.Fatalf("expected retriever to stay not ready after failed load")
	}
}
