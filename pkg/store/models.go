package store

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type UserParametersModel struct {
	UserID              string `gorm:"primaryKey"`
	Age                 *int
	WeightKg            *float64
	HeightCm            *int
	Gender              *string
	WeeklyTrainingHours *float64
	SleepHours          *float64
	DietaryRestrictions *string
	Equipment           *string
	TrainingPreference  *string
	SportGoal           *string
	ActivityLevel       *string
	UpdatedAt           time.Time
}

type ChunkModel struct {
	ID         string           `gorm:"primaryKey"`
	Collection string           `gorm:"not null;index"`
	Content    string           `gorm:"type:text;not null"`
	Metadata   datatypes.JSON   `gorm:"type:jsonb"`
	Embedding  *pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt  time.Time        `gorm:"not null"`
}
