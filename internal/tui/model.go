package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

// Player is the slice of the quiz service the terminal UI drives.
type Player interface {
	Answer(ctx context.Context, sessionID, userID, optionKey string) (app.AnswerResult, error)
	Skip(ctx context.Context, sessionID, userID string, reason domain.SkipReason) (app.AnswerResult, error)
	Next(ctx context.Context, sessionID, userID string) (app.NextResult, error)
	Quit(ctx context.Context, sessionID, userID string) (app.QuizResult, error)
}

// Options configures the play model.
type Options struct {
	NoColor bool
	// TimeLimit skips the current question with reason timeout once it elapses. Zero disables it.
	TimeLimit time.Duration
}

// Model is a Bubble Tea model for one quiz session.
type Model struct {
	ctx       context.Context
	player    Player
	userID    string
	view      app.SessionView
	outcome   *domain.AnswerOutcome
	result    *app.QuizResult
	score     float64
	err       string
	noColor   bool
	timeLimit time.Duration
	shownAt   time.Time
	now       time.Time
}

// NewModel constructs a play model for a session that has already been started.
func NewModel(ctx context.Context, player Player, userID string, start app.SessionView, opts Options) Model {
	now := time.Now()
	return Model{
		ctx:       ctx,
		player:    player,
		userID:    userID,
		view:      start,
		score:     start.Progress.Score,
		noColor:   opts.NoColor,
		timeLimit: opts.TimeLimit,
		shownAt:   now,
		now:       now,
	}
}

// Result returns the final summary once the session has ended.
func (m Model) Result() *app.QuizResult {
	return m.result
}

// Init starts the question timer when one is configured.
func (m Model) Init() tea.Cmd {
	if m.timeLimit <= 0 {
		return nil
	}
	return tick()
}

// Update handles key presses and timer ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed.String())
	case tickMsg:
		m.now = time.Time(typed)
		if m.result != nil {
			return m, nil
		}
		if m.outcome == nil && m.timeLimit > 0 && m.now.Sub(m.shownAt) >= m.timeLimit {
			m = m.skip(domain.SkipTimeout)
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if m.result != nil {
		switch key {
		case "q", "enter", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	m.err = ""
	switch {
	case key == "ctrl+c" || key == "q":
		result, err := m.player.Quit(m.ctx, m.view.SessionID, m.userID)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.result = &result
		return m, nil
	case key == "enter":
		return m.next(), nil
	case m.outcome == nil && isOptionKey(m.view.Question, key):
		res, err := m.player.Answer(m.ctx, m.view.SessionID, m.userID, key)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.outcome = &res.Outcome
		m.score = res.Progress.Score
		return m, nil
	case key == "s":
		return m.skip(domain.SkipGiveUp), nil
	}
	return m, nil
}

func (m Model) skip(reason domain.SkipReason) Model {
	if m.outcome != nil {
		return m
	}
	res, err := m.player.Skip(m.ctx, m.view.SessionID, m.userID, reason)
	if err != nil {
		m.err = err.Error()
		return m
	}
	m.outcome = &res.Outcome
	m.score = res.Progress.Score
	return m
}

func (m Model) next() Model {
	if m.outcome == nil {
		m.err = "answer or skip first"
		return m
	}
	res, err := m.player.Next(m.ctx, m.view.SessionID, m.userID)
	if err != nil {
		m.err = err.Error()
		return m
	}
	if res.Result != nil {
		m.result = res.Result
		return m
	}
	m.view = *res.Question
	m.outcome = nil
	m.now = time.Now()
	m.shownAt = m.now
	return m
}

// View renders either the active question or the final summary.
func (m Model) View() string {
	if m.result != nil {
		return renderResult(*m.result, m.noColor)
	}
	return renderQuestion(m)
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// isOptionKey reports whether a single key press names an option of q.
func isOptionKey(q domain.QuestionView, key string) bool {
	if len(key) != 1 {
		return false
	}
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Key, key) {
			return true
		}
	}
	return false
}
