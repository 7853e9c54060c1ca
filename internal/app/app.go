package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachrag/internal/rag"
	"coachrag/pkg/ai"
	"coachrag/pkg/auth"
	"coachrag/pkg/domain"
	"coachrag/pkg/store"
)

const (
	qaTemperature      = 0.0
	programTemperature = 0.7

	providerTimeout = 30 * time.Second
)

// SessionStore issues and validates bearer tokens.
type SessionStore interface {
	NewSession(email string) (string, error)
	GetSubjectByToken(token string) (string, bool, error)
}

// App implements the use cases behind the HTTP surface.
type App struct {
	store     store.Store
	sessions  SessionStore
	retriever *rag.Retriever
	refresher *rag.RefreshController
	generator ai.TextGenerator
	logger    *slog.Logger

	docsDir         string
	generationModel string
}

// Config carries the App dependencies.
type Config struct {
	Store           store.Store
	Sessions        SessionStore
	Retriever       *rag.Retriever
	Refresher       *rag.RefreshController
	Generator       ai.TextGenerator
	Logger          *slog.Logger
	DocsDir         string
	GenerationModel string
}

// New wires the application service.
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		store:           cfg.Store,
		sessions:        cfg.Sessions,
		retriever:       cfg.Retriever,
		refresher:       cfg.Refresher,
		generator:       cfg.Generator,
		logger:          logger,
		docsDir:         cfg.DocsDir,
		generationModel: cfg.GenerationModel,
	}
}

// Register creates a user and returns a session token.
func (a *App) Register(email, password string) (string, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return "", ErrEmailAlreadyExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return "", fmt.Errorf("save user: %w", err)
	}
	return a.sessions.NewSession(user.Email)
}

// Login verifies credentials and returns a session token. The same error
// is returned for an unknown email and a wrong password.
func (a *App) Login(email, password string) (string, error) {
	email = normalizeEmail(email)
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return a.sessions.NewSession(user.Email)
}

// Authorize validates a bearer token and resolves its user. A valid token
// for a deleted account is rejected.
func (a *App) Authorize(token string) (domain.User, error) {
	email, ok, err := a.sessions.GetSubjectByToken(token)
	if err != nil || !ok {
		return domain.User{}, ErrUnauthenticated
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUnauthenticated
	}
	return user, nil
}

// Query answers a question with retrieval-augmented generation. Before the
// first index build completes the answer is a polite initializing message
// rather than an error.
func (a *App) Query(ctx context.Context, user domain.User, query string) (domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Answer{}, fmt.Errorf("%w: query required", ErrInvalidInput)
	}
	a.logger.Info("query received", "user", user.Email)

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	chunks, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		if err == rag.ErrNotReady {
			return domain.Answer{Query: query, Answer: rag.NotReadyAnswer, Model: a.generationModel}, nil
		}
		return domain.Answer{}, err
	}

	system, prompt := rag.QAPrompt(rag.BuildContext(chunks), query)
	answer, err := a.generator.GenerateText(ctx, system, prompt, qaTemperature)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %v", ai.ErrGenerationFailure, err)
	}
	return domain.Answer{Query: query, Answer: answer, Model: a.generationModel}, nil
}

// GenerateProgram builds a personalized 4-week training program from the
// saved coaching parameters and the document index.
func (a *App) GenerateProgram(ctx context.Context, user domain.User) (domain.Program, error) {
	params, ok, err := a.store.GetParameters(user.ID)
	if err != nil {
		return domain.Program{}, fmt.Errorf("get parameters: %w", err)
	}
	if !ok || params.IsEmpty() {
		return domain.Program{}, ErrParametersMissing
	}
	a.logger.Info("program generation requested", "user", user.Email)

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	var chunks []domain.RetrievedChunk
	retrieved, err := a.retriever.Retrieve(ctx, rag.ProgramQuery(params))
	switch {
	case err == rag.ErrNotReady:
		// Generate from the profile alone until the index is ready.
	case err != nil:
		return domain.Program{}, err
	default:
		chunks = retrieved
	}

	system, prompt := rag.ProgramPrompt(params, rag.BuildContext(chunks))
	program, err := a.generator.GenerateText(ctx, system, prompt, programTemperature)
	if err != nil {
		return domain.Program{}, fmt.Errorf("%w: %v", ai.ErrGenerationFailure, err)
	}
	return domain.Program{Program: program, UserEmail: user.Email, Model: a.generationModel}, nil
}

// UpdateIndex triggers a full rebuild of the document index.
func (a *App) UpdateIndex(ctx context.Context, user domain.User) (rag.RefreshResult, error) {
	a.logger.Info("index update requested", "user", user.Email)
	return a.refresher.Refresh(ctx)
}

// ListDocuments returns the indexable files in the documents directory
// with human-readable sizes.
func (a *App) ListDocuments() ([]domain.DocumentInfo, error) {
	entries, err := os.ReadDir(a.docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.DocumentInfo{}, nil
		}
		return nil, fmt.Errorf("read documents dir: %w", err)
	}
	docs := make([]domain.DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !rag.AllowedExtensions[ext] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			a.logger.Warn("skipping unreadable file", "file", entry.Name(), "error", err)
			continue
		}
		docs = append(docs, domain.DocumentInfo{
			Name: entry.Name(),
			Size: formatSize(info.Size()),
		})
	}
	return docs, nil
}

// GetParameters returns the saved coaching profile, empty if none yet.
func (a *App) GetParameters(user domain.User) (domain.UserParameters, error) {
	params, ok, err := a.store.GetParameters(user.ID)
	if err != nil {
		return domain.UserParameters{}, fmt.Errorf("get parameters: %w", err)
	}
	if !ok {
		return domain.UserParameters{UserID: user.ID}, nil
	}
	return params, nil
}

// SaveParameters fully replaces the coaching profile.
func (a *App) SaveParameters(user domain.User, params domain.UserParameters) error {
	if err := validateParameters(params); err != nil {
		return err
	}
	params.UserID = user.ID
	if err := a.store.UpsertParameters(params); err != nil {
		return fmt.Errorf("save parameters: %w", err)
	}
	return nil
}

func validateParameters(p domain.UserParameters) error {
	if p.Age != nil && (*p.Age < 1 || *p.Age > 120) {
		return fmt.Errorf("%w: age out of range", ErrInvalidInput)
	}
	if p.WeightKg != nil && (*p.WeightKg < 20 || *p.WeightKg > 300) {
		return fmt.Errorf("%w: weight out of range", ErrInvalidInput)
	}
	if p.HeightCm != nil && (*p.HeightCm < 50 || *p.HeightCm > 250) {
		return fmt.Errorf("%w: height out of range", ErrInvalidInput)
	}
	if p.WeeklyTrainingHours != nil && (*p.WeeklyTrainingHours < 0 || *p.WeeklyTrainingHours > 80) {
		return fmt.Errorf("%w: weekly training hours out of range", ErrInvalidInput)
	}
	if p.SleepHours != nil && (*p.SleepHours < 0 || *p.SleepHours > 24) {
		return fmt.Errorf("%w: sleep hours out of range", ErrInvalidInput)
	}
	return nil
}

// formatSize renders a byte count the way the API reports document sizes.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f Mo", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.0f Ko", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d octets", bytes)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return nil
}
