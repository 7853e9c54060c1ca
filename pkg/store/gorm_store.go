package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"coachrag/pkg/domain"
)

const migrateLockID int64 = 52415241

const (
	defaultEmbeddingDim      = 768
	canonicalEmbeddingDimEnv = "COACHRAG_EMBEDDING_DIM"
)

type GormStoreOptions struct {
	EmbeddingDim int
}

type GormStoreOption func(*GormStoreOptions)

// WithEmbeddingDim sets the canonical embedding dimension used by storage.
func WithEmbeddingDim(dim int) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.EmbeddingDim = dim
	}
}

// GormStore implements Store and VectorStore using GORM + Postgres with
// the pgvector extension.
type GormStore struct {
	db           *gorm.DB
	embeddingDim int
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	embeddingDim, err := resolveEmbeddingDim(opts.EmbeddingDim)
	if err != nil {
		return nil, err
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("create pgvector extension: %w", err)
		}
		if err := tx.AutoMigrate(&UserModel{}, &UserParametersModel{}, &ChunkModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(fmt.Sprintf(`
			DO $$
			BEGIN
			IF EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'chunk_models' AND column_name = 'embedding'
			) THEN
				ALTER TABLE chunk_models ALTER COLUMN embedding TYPE vector(%d);
			END IF;
			END $$;
		`, embeddingDim)).Error; err != nil {
			return fmt.Errorf("alter chunk embedding type: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, embeddingDim: embeddingDim}, nil
}

func resolveEmbeddingDim(configValue int) (int, error) {
	if configValue > 0 {
		return configValue, nil
	}
	raw := strings.TrimSpace(os.Getenv(canonicalEmbeddingDimEnv))
	if raw == "" {
		return defaultEmbeddingDim, nil
	}
	dim, err := strconv.Atoi(raw)
	if err != nil || dim <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", canonicalEmbeddingDimEnv, raw)
	}
	return dim, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// DeleteUser removes a user and its parameters.
func (s *GormStore) DeleteUser(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&UserParametersModel{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, "id = ?", id).Error
	})
}

// UserCount returns number of users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// GetParameters returns the coaching profile for a user.
func (s *GormStore) GetParameters(userID string) (domain.UserParameters, bool, error) {
	var model UserParametersModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.UserParameters{}, false, nil
		}
		return domain.UserParameters{}, false, err
	}
	return parametersFromModel(model), true, nil
}

// UpsertParameters creates or fully replaces the coaching profile.
func (s *GormStore) UpsertParameters(p domain.UserParameters) error {
	model := parametersToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"age", "weight_kg", "height_cm", "gender", "weekly_training_hours",
			"sleep_hours", "dietary_restrictions", "equipment",
			"training_preference", "sport_goal", "activity_level", "updated_at",
		}),
	}).Create(&model).Error
}

// AddChunks inserts chunks into a collection, creating it implicitly.
func (s *GormStore) AddChunks(name string, chunks []IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]ChunkModel, 0, len(chunks))
	for _, chunk := range chunks {
		if err := s.validateEmbeddingDim(chunk.Embedding); err != nil {
			return err
		}
		vec := pgvector.NewVector(chunk.Embedding)
		meta, _ := json.Marshal(chunk.Metadata)
		models = append(models, ChunkModel{
			ID:         chunk.ID,
			Collection: name,
			Content:    chunk.Content,
			Metadata:   meta,
			Embedding:  &vec,
			CreatedAt:  time.Now().UTC(),
		})
	}
	return s.db.CreateInBatches(&models, 200).Error
}

// Search finds the chunks of a collection closest to the embedding by cosine
// distance. Score is 1 minus distance, so higher means closer.
func (s *GormStore) Search(name string, embedding []float32, limit int) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		return []domain.RetrievedChunk{}, nil
	}
	if err := s.validateEmbeddingDim(embedding); err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(embedding)
	var rows []chunkSearchRow
	if err := s.db.Model(&ChunkModel{}).
		Select("chunk_models.*, (embedding <=> ?) AS distance", vec).
		Where("collection = ? AND embedding IS NOT NULL", name).
		Order(clause.Expr{SQL: "embedding <=> ?", Vars: []any{vec}}).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	chunks := make([]domain.RetrievedChunk, 0, len(rows))
	for _, row := range rows {
		var meta map[string]string
		if len(row.Metadata) > 0 {
			_ = json.Unmarshal(row.Metadata, &meta)
		}
		chunks = append(chunks, domain.RetrievedChunk{
			Content:  row.Content,
			Metadata: meta,
			Score:    1 - row.Distance,
		})
	}
	return chunks, nil
}

// Count returns the number of chunks in a collection.
func (s *GormStore) Count(name string) (int, error) {
	var count int64
	if err := s.db.Model(&ChunkModel{}).Where("collection = ?", name).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// DropCollection removes a collection and all its chunks.
func (s *GormStore) DropCollection(name string) error {
	return s.db.Delete(&ChunkModel{}, "collection = ?", name).Error
}

func (s *GormStore) validateEmbeddingDim(embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}
	if s.embeddingDim > 0 && len(embedding) != s.embeddingDim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), s.embeddingDim)
	}
	return nil
}

type chunkSearchRow struct {
	ChunkModel
	Distance float64
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func parametersToModel(p domain.UserParameters) UserParametersModel {
	return UserParametersModel{
		UserID:              p.UserID,
		Age:                 p.Age,
		WeightKg:            p.WeightKg,
		HeightCm:            p.HeightCm,
		Gender:              p.Gender,
		WeeklyTrainingHours: p.WeeklyTrainingHours,
		SleepHours:          p.SleepHours,
		DietaryRestrictions: p.DietaryRestrictions,
		Equipment:           p.Equipment,
		TrainingPreference:  p.TrainingPreference,
		SportGoal:           p.SportGoal,
		ActivityLevel:       p.ActivityLevel,
		UpdatedAt:           time.Now().UTC(),
	}
}

func parametersFromModel(m UserParametersModel) domain.UserParameters {
	return domain.UserParameters{
		UserID:              m.UserID,
		Age:                 m.Age,
		WeightKg:            m.WeightKg,
		HeightCm:            m.HeightCm,
		Gender:              m.Gender,
		WeeklyTrainingHours: m.WeeklyTrainingHours,
		SleepHours:          m.SleepHours,
		DietaryRestrictions: m.DietaryRestrictions,
		Equipment:           m.Equipment,
		TrainingPreference:  m.TrainingPreference,
		SportGoal:           m.SportGoal,
		ActivityLevel:       m.ActivityLevel,
	}
}
