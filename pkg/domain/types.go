package domain

import "time"

// User is a registered account. Authentication is email/password only.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserParameters holds the coaching profile used to personalize program
// generation. Every field is optional; nil means "not provided" and is
// rendered as an explicit placeholder in prompts, never as a default value.
type UserParameters struct {
	UserID              string   `json:"-"`
	Age                 *int     `json:"age"`
	WeightKg            *float64 `json:"weight_kg"`
	HeightCm            *int     `json:"height_cm"`
	Gender              *string  `json:"gender"`
	WeeklyTrainingHours *float64 `json:"weekly_training_hours"`
	SleepHours          *float64 `json:"sleep_hours"`
	DietaryRestrictions *string  `json:"dietary_restrictions"`
	Equipment           *string  `json:"equipment"`
	TrainingPreference  *string  `json:"training_preference"`
	SportGoal           *string  `json:"sport_goal"`
	ActivityLevel       *string  `json:"activity_level"`
}

// IsEmpty reports whether no profile field has been provided at all.
func (p UserParameters) IsEmpty() bool {
	return p.Age == nil && p.WeightKg == nil && p.HeightCm == nil &&
		p.Gender == nil && p.WeeklyTrainingHours == nil && p.SleepHours == nil &&
		p.DietaryRestrictions == nil && p.Equipment == nil &&
		p.TrainingPreference == nil && p.SportGoal == nil && p.ActivityLevel == nil
}

// Document is a raw ingested unit of text with provenance metadata
// ("source" plus optionally "title" and "url"). Discarded after chunking.
type Document struct {
	Text     string
	Metadata map[string]string
}

// Chunk is a bounded, overlapping segment of a document. It carries the
// document metadata plus its position ("chunk").
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// RetrievedChunk is a chunk returned by similarity search, closest first.
// Score is cosine similarity in [0, 1] range for normalized embeddings.
type RetrievedChunk struct {
	Content  string
	Metadata map[string]string
	Score    float64
}

// Answer is the response to a retrieval-augmented query.
type Answer struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
	Model  string `json:"model"`
}

// Program is a generated training and nutrition plan.
type Program struct {
	Program   string `json:"program"`
	UserEmail string `json:"user_email"`
	Model     string `json:"model"`
}

// DocumentInfo describes one source file in the watched directory.
type DocumentInfo struct {
	Name string `json:"name"`
	Size string `json:"size"`
}
