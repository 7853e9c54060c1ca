package store

import (
	"testing"

	"coachrag/pkg/domain"
)

func TestMemoryStoreSearchOrdersByScore(t *testing.T) {
	s := NewMemoryStore()
	err := s.AddChunks("col", []IndexedChunk{
		{ID: "a", Content: "far", Embedding: []float32{0, 1, 0}},
		{ID: "b", Content: "near", Embedding: []float32{1, 0, 0}},
		{ID: "c", Content: "close", Embedding: []float32{0.9, 0.1, 0}},
	})
	if err != nil {
		t.Fatalf("add chunks: %v", err)
	}
	got, err := s.Search("col", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Content != "near" || got[1].Content != "close" {
		t.Fatalf("expected results ordered by similarity, got %q then %q", got[0].Content, got[1].Content)
	}
	if got[0].Score < got[1].Score {
		t.Fatalf("expected scores descending, got %f then %f", got[0].Score, got[1].Score)
	}
}

func TestMemoryStoreDropCollection(t *testing.T) {
	s := NewMemoryStore()
	if err := s.AddChunks("col", []IndexedChunk{{ID: "a", Content: "x", Embedding: []float32{1}}}); err != nil {
		t.Fatalf("add chunks: %v", err)
	}
	if err := s.DropCollection("col"); err != nil {
		t.Fatalf("drop collection: %v", err)
	}
	count, err := s.Count("col")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty collection after drop, got %d", count)
	}
}

func TestMemoryStoreParametersUpsert(t *testing.T) {
	s := NewMemoryStore()
	age := 30
	if err := s.UpsertParameters(domain.UserParameters{UserID: "u1", Age: &age}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	goal := "marathon"
	if err := s.UpsertParameters(domain.UserParameters{UserID: "u1", SportGoal: &goal}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p, ok, err := s.GetParameters("u1")
	if err != nil || !ok {
		t.Fatalf("get parameters: ok=%v err=%v", ok, err)
	}
	if p.Age != nil {
		t.Fatalf("expected full replace to clear age")
	}
	if p.SportGoal == nil || *p.SportGoal != "marathon" {
		t.Fatalf("expected sport goal to be saved")
	}
}
