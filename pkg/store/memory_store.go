package store

import (
	"math"
	"sort"
	"sync"

	"coachrag/pkg/domain"
)

// MemoryStore is an in-memory Store and VectorStore used in tests and
// local development without Postgres.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	parameters  map[string]domain.UserParameters
	collections map[string][]IndexedChunk
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		parameters:  make(map[string]domain.UserParameters),
		collections: make(map[string][]IndexedChunk),
	}
}

func (s *MemoryStore) SaveUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) HasUserEmail(email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	delete(s.parameters, id)
	return nil
}

func (s *MemoryStore) UserCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStore) GetParameters(userID string) (domain.UserParameters, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parameters[userID]
	return p, ok, nil
}

func (s *MemoryStore) UpsertParameters(p domain.UserParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parameters[p.UserID] = p
	return nil
}

func (s *MemoryStore) AddChunks(name string, chunks []IndexedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = append(s.collections[name], chunks...)
	return nil
}

func (s *MemoryStore) Search(name string, embedding []float32, limit int) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		return []domain.RetrievedChunk{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.collections[name]
	scored := make([]domain.RetrievedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, domain.RetrievedChunk{
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			Score:    cosineSimilarity(embedding, chunk.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryStore) Count(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[name]), nil
}

func (s *MemoryStore) DropCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// HasCollection reports whether a collection exists. Test helper.
func (s *MemoryStore) HasCollection(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
