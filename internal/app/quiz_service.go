package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"study-quiz-service/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// CacheInvalidator is implemented by quiz repositories that cache loaded quizzes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, quizID string) error
}

// QuizWriter persists user-authored quizzes.
type QuizWriter interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	IncrementPlays(ctx context.Context, quizID string) error
}

// HistoryStore is the per-user, append-only record of finished attempts.
type HistoryStore interface {
	Append(ctx context.Context, userID string, entry domain.HistoryEntry) error
	List(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
	Delete(ctx context.Context, userID string, index int) error
}

// ServiceOptions tunes a QuizService. Zero values fall back to defaults.
type ServiceOptions struct {
	Scoring         ScoringPolicy
	HistoryThrottle time.Duration
	Selector        *Selector
	Now             func() time.Time
	NewID           func() string
}

// DefaultHistoryThrottle drops repeated history writes for the same user inside this window.
const DefaultHistoryThrottle = 2 * time.Second

// QuizService contains the quiz use cases driven by the presentation layer.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	writer   QuizWriter
	history  HistoryStore
	selector *Selector
	scoring  ScoringPolicy
	now      func() time.Time
	newID    func() string

	throttle   time.Duration
	throttleMu sync.Mutex
	lastWrite  map[string]time.Time
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, writer QuizWriter, history HistoryStore, opts ServiceOptions) *QuizService {
	svc := &QuizService{
		sessions:  store,
		quizzes:   quizzes,
		writer:    writer,
		history:   history,
		selector:  opts.Selector,
		scoring:   opts.Scoring,
		now:       opts.Now,
		newID:     opts.NewID,
		throttle:  opts.HistoryThrottle,
		lastWrite: make(map[string]time.Time),
	}
	if svc.selector == nil {
		svc.selector = NewSelector()
	}
	if svc.scoring == (ScoringPolicy{}) {
		svc.scoring = SimpleScoring
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	if svc.throttle == 0 {
		svc.throttle = DefaultHistoryThrottle
	}
	return svc
}

// SessionView is what a player sees of the active question.
type SessionView struct {
	SessionID string              `json:"sessionId"`
	QuizID    string              `json:"quizId"`
	Topic     string              `json:"topic"`
	Question  domain.QuestionView `json:"question"`
	Progress  domain.Progress     `json:"progress"`
}

// AnswerResult is returned after an answer or skip for immediate display.
type AnswerResult struct {
	Outcome  domain.AnswerOutcome `json:"outcome"`
	Progress domain.Progress      `json:"progress"`
}

// QuizResult is the terminal summary plus whether it reached the history store.
type QuizResult struct {
	SessionID    string               `json:"sessionId"`
	Topic        string               `json:"topic"`
	Summary      domain.ResultSummary `json:"summary"`
	HistorySaved bool                 `json:"historySaved"`
}

// NextResult holds exactly one of the next question or the final result.
type NextResult struct {
	Question *SessionView `json:"question,omitempty"`
	Result   *QuizResult  `json:"result,omitempty"`
}

// Start selects questions from a quiz and opens a session for userID.
func (s *QuizService) Start(ctx context.Context, userID, quizID string, count int) (SessionView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return SessionView{}, err
	}
	questions, err := s.selector.Select(quiz.Questions, count)
	if err != nil {
		return SessionView{}, err
	}
	session, err := NewSession(questions, SessionOptions{
		ID:     s.newID(),
		QuizID: quiz.ID,
		UserID: userID,
		Topic:  quiz.Title,
		Policy: s.scoring,
		Now:    s.now,
	})
	if err != nil {
		return SessionView{}, err
	}
	s.sessions.Put(session)

	if s.writer != nil {
		switch err := s.writer.IncrementPlays(ctx, quiz.ID); {
		case err == nil:
			s.invalidate(ctx, quiz.ID)
		case !errors.Is(err, domain.ErrQuizNotFound):
			log.Printf("increment plays for %s: %v", quiz.ID, err)
		}
	}
	return s.view(session)
}

// Current returns the active question of a session.
func (s *QuizService) Current(_ context.Context, sessionID, userID string) (SessionView, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session)
}

// Answer submits an option key for the current question.
func (s *QuizService) Answer(_ context.Context, sessionID, userID, optionKey string) (AnswerResult, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return AnswerResult{}, err
	}
	outcome, err := session.SubmitAnswer(optionKey)
	if err != nil {
		return AnswerResult{}, err
	}
	return AnswerResult{Outcome: outcome, Progress: session.Progress()}, nil
}

// Skip gives up on the current question.
func (s *QuizService) Skip(_ context.Context, sessionID, userID string, reason domain.SkipReason) (AnswerResult, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return AnswerResult{}, err
	}
	outcome, err := session.Skip(reason)
	if err != nil {
		return AnswerResult{}, err
	}
	return AnswerResult{Outcome: outcome, Progress: session.Progress()}, nil
}

// Next advances the session; past the last question it records history and closes it.
func (s *QuizService) Next(ctx context.Context, sessionID, userID string) (NextResult, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return NextResult{}, err
	}
	summary, err := session.Advance()
	if err != nil {
		return NextResult{}, err
	}
	if summary == nil {
		view, err := s.view(session)
		if err != nil {
			return NextResult{}, err
		}
		return NextResult{Question: &view}, nil
	}
	result := s.finish(ctx, session, *summary)
	return NextResult{Result: &result}, nil
}

// Quit abandons the session and records whatever was answered so far.
func (s *QuizService) Quit(ctx context.Context, sessionID, userID string) (QuizResult, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return QuizResult{}, err
	}
	summary, err := session.Abandon()
	if err != nil {
		return QuizResult{}, err
	}
	return s.finish(ctx, session, summary), nil
}

// History lists a user's past attempts, oldest first.
func (s *QuizService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	return s.history.List(ctx, userID)
}

// DeleteHistory removes one history entry by position.
func (s *QuizService) DeleteHistory(ctx context.Context, userID string, index int) error {
	return s.history.Delete(ctx, userID, index)
}

// Quiz returns public quiz details.
func (s *QuizService) Quiz(ctx context.Context, quizID string) (domain.QuizInfo, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizInfo{}, err
	}
	return quiz.Info(), nil
}

// CreateQuiz validates and stores a user-authored quiz.
func (s *QuizService) CreateQuiz(ctx context.Context, author domain.Author, quiz domain.Quiz) (domain.QuizInfo, error) {
	if s.writer == nil {
		return domain.QuizInfo{}, errors.New("quiz authoring is not configured")
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.ID == "" {
			q.ID = domain.QuestionID(uuid.NewString())
		}
		q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
		for j := range q.Options {
			q.Options[j].Key = strings.ToUpper(strings.TrimSpace(q.Options[j].Key))
		}
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.QuizInfo{}, err
	}

	// Authored quizzes always get a fresh id so they never replace an existing topic.
	quiz.ID = s.newID()
	quiz.AuthorID = author.UserID
	quiz.AuthorName = author.Name
	if strings.TrimSpace(quiz.AuthorName) == "" {
		quiz.AuthorName = "Anonymous"
	}
	quiz.CreatedAt = s.now().UTC()
	quiz.Plays = 0

	if err := s.writer.SaveQuiz(ctx, quiz); err != nil {
		return domain.QuizInfo{}, err
	}
	s.invalidate(ctx, quiz.ID)
	return quiz.Info(), nil
}

// invalidate drops a cached copy after the stored quiz changed.
func (s *QuizService) invalidate(ctx context.Context, quizID string) {
	cache, ok := s.quizzes.(CacheInvalidator)
	if !ok {
		return
	}
	if err := cache.Invalidate(ctx, quizID); err != nil {
		log.Printf("invalidate cached quiz %s: %v", quizID, err)
	}
}

func (s *QuizService) session(sessionID, userID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok || session.UserID() != userID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *QuizService) view(session *Session) (SessionView, error) {
	q, progress, err := session.Current()
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{
		SessionID: session.ID(),
		QuizID:    session.QuizID(),
		Topic:     session.Topic(),
		Question:  q,
		Progress:  progress,
	}, nil
}

// finish drops the session and hands the summary to the history store.
// A failed write is logged; the summary is still returned to the caller.
func (s *QuizService) finish(ctx context.Context, session *Session, summary domain.ResultSummary) QuizResult {
	s.sessions.Delete(session.ID())

	result := QuizResult{SessionID: session.ID(), Topic: session.Topic(), Summary: summary}
	err := s.recordHistory(ctx, session.UserID(), domain.HistoryEntry{
		SessionID:  session.ID(),
		Score:      summary.FinalScore,
		Total:      summary.TotalQuestions,
		Percentage: summary.Percentage,
		Topic:      session.Topic(),
		Status:     summary.Status,
		Details:    summary.AnswerLog,
		Date:       s.now().UTC(),
	})
	switch {
	case err == nil:
		result.HistorySaved = true
	case errors.Is(err, domain.ErrHistoryThrottled):
		log.Printf("history update throttled for user %s", session.UserID())
	default:
		log.Printf("failed to save history for user %s: %v", session.UserID(), err)
	}
	return result
}

func (s *QuizService) recordHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	if s.history == nil {
		return errors.New("history store not configured")
	}
	now := s.now()

	s.throttleMu.Lock()
	if last, ok := s.lastWrite[userID]; ok && now.Sub(last) < s.throttle {
		s.throttleMu.Unlock()
		return domain.ErrHistoryThrottled
	}
	s.lastWrite[userID] = now
	s.throttleMu.Unlock()

	return s.history.Append(ctx, userID, entry)
}
