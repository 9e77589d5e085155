package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/infra/memory"
)

type testEnv struct {
	service  *app.QuizService
	sessions *memory.SessionStore
	catalog  *memory.Catalog
	history  app.HistoryStore
	now      *time.Time
}

func newTestEnv(t *testing.T, history app.HistoryStore, policy app.ScoringPolicy) *testEnv {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	env := &testEnv{
		sessions: memory.NewSessionStore(),
		catalog: memory.NewCatalog([]domain.Quiz{
			{ID: "os", Title: "Operating Systems", Description: "OS basics", Questions: makeQuestions(5)},
			{ID: "empty", Title: "Empty", Description: "nothing yet"},
		}),
		history: history,
		now:     &now,
	}
	quizRepo := memory.NewQuizRepository(env.catalog, 5*time.Minute)
	env.service = app.NewQuizService(env.sessions, quizRepo, env.catalog, history, app.ServiceOptions{
		Scoring:  policy,
		Selector: app.NewSelectorWithSource(rand.NewSource(3)),
		Now:      func() time.Time { return *env.now },
	})
	return env
}

func TestServicePlaysQuizToCompletion(t *testing.T) {
	ctx := context.Background()
	history := memory.NewHistoryStore()
	env := newTestEnv(t, history, app.SimpleScoring)

	view, err := env.service.Start(ctx, "u1", "os", 3)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Progress.Total != 3 || view.Topic != "Operating Systems" {
		t.Fatalf("unexpected view %+v", view)
	}

	var result *app.QuizResult
	for i := 0; i < 3; i++ {
		ans, err := env.service.Answer(ctx, view.SessionID, "u1", "A")
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if !ans.Outcome.IsCorrect {
			t.Fatalf("expected correct")
		}
		next, err := env.service.Next(ctx, view.SessionID, "u1")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		result = next.Result
		if i < 2 && (next.Question == nil || next.Question.Progress.Index != i+1) {
			t.Fatalf("expected question %d, got %+v", i+1, next)
		}
	}

	if result == nil || !result.HistorySaved {
		t.Fatalf("expected saved result, got %+v", result)
	}
	if result.Summary.FinalScore != 3 || result.Summary.Status != domain.StatusCompleted {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	if env.sessions.Len() != 0 {
		t.Fatalf("finished session should be dropped")
	}

	entries, err := env.service.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].Topic != "Operating Systems" || entries[0].Percentage != 100 {
		t.Fatalf("unexpected history %+v", entries)
	}

	quiz, _ := env.catalog.LoadQuiz(ctx, "os")
	if quiz.Plays != 1 {
		t.Fatalf("expected plays to be counted, got %d", quiz.Plays)
	}
}

func TestServiceQuitRecordsAbandonedAttempt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, memory.NewHistoryStore(), app.PenaltyScoring)

	view, err := env.service.Start(ctx, "u1", "os", app.AllQuestions)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.service.Answer(ctx, view.SessionID, "u1", "B"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	result, err := env.service.Quit(ctx, view.SessionID, "u1")
	if err != nil {
		t.Fatalf("quit: %v", err)
	}
	if result.Summary.TotalQuestions != 5 || len(result.Summary.AnswerLog) != 1 || result.Summary.FinalScore != -0.25 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	if _, err := env.service.Quit(ctx, view.SessionID, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected closed session to be gone, got %v", err)
	}
}

func TestServiceRejectsOtherUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, memory.NewHistoryStore(), app.SimpleScoring)

	view, err := env.service.Start(ctx, "u1", "os", 2)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.service.Answer(ctx, view.SessionID, "u2", "A"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceStartFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, memory.NewHistoryStore(), app.SimpleScoring)

	if _, err := env.service.Start(ctx, "u1", "empty", 10); !errors.Is(err, domain.ErrEmptyQuestionBank) {
		t.Fatalf("expected ErrEmptyQuestionBank, got %v", err)
	}
	if _, err := env.service.Start(ctx, "u1", "missing", 10); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if env.sessions.Len() != 0 {
		t.Fatalf("failed starts must not leave sessions behind")
	}
}

func TestServiceThrottlesHistoryWrites(t *testing.T) {
	ctx := context.Background()
	history := memory.NewHistoryStore()
	env := newTestEnv(t, history, app.SimpleScoring)

	quitFresh := func() app.QuizResult {
		view, err := env.service.Start(ctx, "u1", "os", 1)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		result, err := env.service.Quit(ctx, view.SessionID, "u1")
		if err != nil {
			t.Fatalf("quit: %v", err)
		}
		return result
	}

	if !quitFresh().HistorySaved {
		t.Fatalf("first write should be saved")
	}
	if quitFresh().HistorySaved {
		t.Fatalf("second write inside the window should be throttled")
	}
	*env.now = env.now.Add(3 * time.Second)
	if !quitFresh().HistorySaved {
		t.Fatalf("write after the window should be saved")
	}

	entries, _ := history.List(ctx, "u1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
}

type failingHistory struct{ *memory.HistoryStore }

func (failingHistory) Append(context.Context, string, domain.HistoryEntry) error {
	return errors.New("store unavailable")
}

func TestServiceHistoryFailureStillReturnsSummary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, failingHistory{memory.NewHistoryStore()}, app.SimpleScoring)

	view, err := env.service.Start(ctx, "u1", "os", 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.service.Answer(ctx, view.SessionID, "u1", "A"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	next, err := env.service.Next(ctx, view.SessionID, "u1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next.Result == nil || next.Result.HistorySaved {
		t.Fatalf("expected unsaved result, got %+v", next.Result)
	}
	if next.Result.Summary.FinalScore != 1 {
		t.Fatalf("summary lost on history failure: %+v", next.Result.Summary)
	}
}

func TestServiceDeleteHistory(t *testing.T) {
	ctx := context.Background()
	history := memory.NewHistoryStore()
	env := newTestEnv(t, history, app.SimpleScoring)
	_ = history.Append(ctx, "u1", domain.HistoryEntry{Topic: "first"})
	_ = history.Append(ctx, "u1", domain.HistoryEntry{Topic: "second"})

	if err := env.service.DeleteHistory(ctx, "u1", 0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries, _ := env.service.History(ctx, "u1")
	if len(entries) != 1 || entries[0].Topic != "second" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestServiceCreateQuiz(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, memory.NewHistoryStore(), app.SimpleScoring)

	_, err := env.service.CreateQuiz(ctx, domain.Author{UserID: "u1"}, domain.Quiz{Title: "Untitled"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	info, err := env.service.CreateQuiz(ctx, domain.Author{UserID: "u1", Name: "Ada"}, domain.Quiz{
		Title:       "Go basics",
		Description: "Goroutines and channels",
		Questions: []domain.Question{{
			Prompt:  "Which keyword starts a goroutine?",
			Options: []domain.Option{{Key: "a", Text: "go"}, {Key: "b", Text: "async"}},
			Answer:  "a",
		}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if info.AuthorName != "Ada" || info.QuestionCount != 1 || info.Plays != 0 {
		t.Fatalf("unexpected info %+v", info)
	}

	view, err := env.service.Start(ctx, "u2", info.ID, 1)
	if err != nil {
		t.Fatalf("start authored quiz: %v", err)
	}
	ans, err := env.service.Answer(ctx, view.SessionID, "u2", "A")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !ans.Outcome.IsCorrect {
		t.Fatalf("expected normalised answer key to match")
	}
}

func TestServiceCreateQuizIgnoresClientID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, memory.NewHistoryStore(), app.SimpleScoring)

	info, err := env.service.CreateQuiz(ctx, domain.Author{UserID: "mallory"}, domain.Quiz{
		ID:          "os",
		Title:       "Hijacked",
		Description: "Replaces a built-in topic",
		Questions: []domain.Question{{
			Prompt:  "Still there?",
			Options: []domain.Option{{Key: "A", Text: "yes"}, {Key: "B", Text: "no"}},
			Answer:  "A",
		}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if info.ID == "os" || info.ID == "" {
		t.Fatalf("expected a fresh id, got %q", info.ID)
	}

	original, err := env.catalog.LoadQuiz(ctx, "os")
	if err != nil {
		t.Fatalf("load os: %v", err)
	}
	if original.Title != "Operating Systems" || len(original.Questions) != 5 || original.AuthorID != "" {
		t.Fatalf("existing topic was modified: %+v", original)
	}
}

func TestServiceQuizReflectsPlaysAfterStart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, memory.NewHistoryStore(), app.SimpleScoring)

	if _, err := env.service.Start(ctx, "u1", "os", 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	info, err := env.service.Quiz(ctx, "os")
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if info.Plays != 1 {
		t.Fatalf("expected cached quiz refreshed with 1 play, got %d", info.Plays)
	}
}
