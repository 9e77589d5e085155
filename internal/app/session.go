package app

import (
	"strings"
	"sync"
	"time"

	"study-quiz-service/internal/domain"
)

// Session is one user's attempt at a fixed, ordered question sequence.
// Every mutation checks its preconditions so callers cannot double count.
type Session struct {
	id        string
	quizID    string
	userID    string
	topic     string
	createdAt time.Time
	now       func() time.Time
	policy    ScoringPolicy

	mu        sync.Mutex
	questions []domain.Question
	current   int
	answered  bool
	score     float64
	log       []domain.AnswerOutcome
	status    domain.SessionStatus
}

// SessionOptions carries identity and bookkeeping for a new session.
type SessionOptions struct {
	ID     string
	QuizID string
	UserID string
	Topic  string
	Policy ScoringPolicy
	Now    func() time.Time
}

// NewSession starts a session over questions, which must already be selected by the caller.
func NewSession(questions []domain.Question, opts SessionOptions) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionBank
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.Policy
	if policy == (ScoringPolicy{}) {
		policy = SimpleScoring
	}
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	return &Session{
		id:        opts.ID,
		quizID:    opts.QuizID,
		userID:    opts.UserID,
		topic:     opts.Topic,
		createdAt: now(),
		now:       now,
		policy:    policy,
		questions: qs,
		log:       make([]domain.AnswerOutcome, 0, len(qs)),
		status:    domain.StatusInProgress,
	}, nil
}

func (s *Session) ID() string           { return s.id }
func (s *Session) QuizID() string       { return s.quizID }
func (s *Session) UserID() string       { return s.userID }
func (s *Session) Topic() string        { return s.topic }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Status returns the lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Score returns the running total.
func (s *Session) Score() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Current returns the active question without its answer.
func (s *Session) Current() (domain.QuestionView, domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return domain.QuestionView{}, s.progressLocked(), domain.ErrSessionClosed
	}
	return s.questions[s.current].View(), s.progressLocked(), nil
}

// Progress reports position, answered count and score.
func (s *Session) Progress() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// SubmitAnswer scores optionKey against the current question. It does not advance.
func (s *Session) SubmitAnswer(optionKey string) (domain.AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAnswerableLocked(); err != nil {
		return domain.AnswerOutcome{}, err
	}
	q := s.questions[s.current]
	if !q.HasOption(optionKey) {
		return domain.AnswerOutcome{}, domain.ErrOptionNotFound
	}

	selected := strings.ToUpper(strings.TrimSpace(optionKey))
	// An answer key that matches no option can never be correct.
	correct := q.HasOption(q.Answer) && domain.SameKey(selected, q.Answer)
	outcome := domain.AnswerOutcome{
		QuestionID:     q.ID,
		QuestionPrompt: q.Prompt,
		SelectedOption: &selected,
		CorrectOption:  q.Answer,
		IsCorrect:      correct,
		Explanation:    q.ExplanationOrDefault(),
	}
	s.recordLocked(outcome)
	return outcome, nil
}

// Skip records the current question as skipped; give-up and timeout score identically.
func (s *Session) Skip(reason domain.SkipReason) (domain.AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAnswerableLocked(); err != nil {
		return domain.AnswerOutcome{}, err
	}
	if reason == "" {
		reason = domain.SkipGiveUp
	}
	q := s.questions[s.current]
	outcome := domain.AnswerOutcome{
		QuestionID:     q.ID,
		QuestionPrompt: q.Prompt,
		CorrectOption:  q.Answer,
		IsSkipped:      true,
		SkipReason:     reason,
		Explanation:    q.ExplanationOrDefault(),
	}
	s.recordLocked(outcome)
	return outcome, nil
}

// Advance moves past an answered question. On the last question it completes the
// session and returns the summary; otherwise the summary is nil.
func (s *Session) Advance() (*domain.ResultSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return nil, domain.ErrSessionClosed
	}
	if !s.answered {
		return nil, domain.ErrQuestionUnanswered
	}
	if s.current == len(s.questions)-1 {
		s.status = domain.StatusCompleted
		summary := s.summaryLocked()
		return &summary, nil
	}
	s.current++
	s.answered = false
	return nil, nil
}

// Abandon ends the session early. The summary still reports against the full question count.
func (s *Session) Abandon() (domain.ResultSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return domain.ResultSummary{}, domain.ErrSessionClosed
	}
	s.status = domain.StatusAbandoned
	return s.summaryLocked(), nil
}

func (s *Session) checkAnswerableLocked() error {
	if s.status.Terminal() {
		return domain.ErrSessionClosed
	}
	if s.answered {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (s *Session) recordLocked(outcome domain.AnswerOutcome) {
	s.score += s.policy.delta(outcome.IsCorrect, outcome.IsSkipped)
	s.log = append(s.log, outcome)
	s.answered = true
}

func (s *Session) progressLocked() domain.Progress {
	return domain.Progress{
		Index:    s.current,
		Total:    len(s.questions),
		Answered: len(s.log),
		Score:    s.score,
	}
}

func (s *Session) summaryLocked() domain.ResultSummary {
	log := make([]domain.AnswerOutcome, len(s.log))
	copy(log, s.log)
	return domain.ResultSummary{
		Status:         s.status,
		FinalScore:     s.score,
		TotalQuestions: len(s.questions),
		Percentage:     percentage(s.score, len(s.questions)),
		AnswerLog:      log,
	}
}
