package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-quiz-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewCatalog([]domain.Quiz{sampleQuiz()})}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "os"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "os"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	_ = repo.Invalidate(context.Background(), "os")
	if _, err := repo.GetQuiz(context.Background(), "os"); err != nil {
		t.Fatalf("get quiz 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewCatalog([]domain.Quiz{sampleQuiz()})}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "os")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "os")
	if loader.calls != 2 {
		t.Fatalf("expected expired entry to reload, loader calls %d", loader.calls)
	}
}

func TestCatalogUnknownQuiz(t *testing.T) {
	catalog := NewCatalog(nil)
	if _, err := catalog.LoadQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if err := catalog.IncrementPlays(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestCatalogSaveAndPlays(t *testing.T) {
	catalog := NewCatalog([]domain.Quiz{sampleQuiz()})
	authored := sampleQuiz()
	authored.ID = "custom"
	if err := catalog.SaveQuiz(context.Background(), authored); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := catalog.IncrementPlays(context.Background(), "custom"); err != nil {
		t.Fatalf("plays: %v", err)
	}
	got, err := catalog.LoadQuiz(context.Background(), "custom")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Plays != 1 {
		t.Fatalf("expected 1 play, got %d", got.Plays)
	}
	if n := len(catalog.Quizzes()); n != 2 {
		t.Fatalf("expected 2 quizzes, got %d", n)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:          "os",
		Title:       "Operating Systems",
		Description: "Processes, memory, scheduling.",
		Questions: []domain.Question{
			{
				ID:     "1",
				Prompt: "Which of these is not a process state?",
				Options: []domain.Option{
					{Key: "A", Text: "Ready"},
					{Key: "B", Text: "Running"},
					{Key: "C", Text: "Compiled"},
					{Key: "D", Text: "Blocked"},
				},
				Answer: "C",
			},
		},
	}
}
