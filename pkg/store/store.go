package store

import (
	"coachrag/pkg/domain"
)

// Store persists users and their coaching parameters.
type Store interface {
	// SaveUser registers or updates a user.
	SaveUser(u domain.User) error
	// HasUserEmail checks if email exists.
	HasUserEmail(email string) (bool, error)
	// GetUserByEmail looks up a user by email.
	GetUserByEmail(email string) (domain.User, bool, error)
	// GetUserByID returns a user by ID.
	GetUserByID(id string) (domain.User, bool, error)
	// DeleteUser removes a user and its parameters.
	DeleteUser(id string) error
	// UserCount returns number of users.
	UserCount() (int, error)
	// GetParameters returns the coaching profile for a user.
	GetParameters(userID string) (domain.UserParameters, bool, error)
	// UpsertParameters creates or fully replaces the coaching profile.
	UpsertParameters(p domain.UserParameters) error
}

// IndexedChunk is a chunk ready for insertion into a vector collection.
type IndexedChunk struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// VectorStore holds named collections of embedded chunks and serves
// similarity search over one collection at a time.
type VectorStore interface {
	// AddChunks inserts chunks into a collection, creating it implicitly.
	AddChunks(name string, chunks []IndexedChunk) error
	// Search returns the chunks of a collection closest to the embedding,
	// best match first.
	Search(name string, embedding []float32, limit int) ([]domain.RetrievedChunk, error)
	// Count returns the number of chunks in a collection.
	Count(name string) (int, error)
	// DropCollection removes a collection and all its chunks.
	DropCollection(name string) error
}
