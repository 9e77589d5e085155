package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DefaultExplanation is shown when a question carries no explanation of its own.
const DefaultExplanation = "No additional explanation provided for this question."

// QuestionID identifies a question within its quiz. Bank files may use numbers or strings.
type QuestionID string

// UnmarshalJSON accepts both `1` and `"1"`.
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = QuestionID(n.String())
	return nil
}

// Option is one labelled answer choice.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct option key.
type Question struct {
	ID          QuestionID `json:"id"`
	Prompt      string     `json:"question"`
	Options     []Option   `json:"options"`
	Answer      string     `json:"answer"`
	Explanation string     `json:"explanation,omitempty"`
}

// HasOption reports whether key names one of the question's options.
func (q Question) HasOption(key string) bool {
	for _, opt := range q.Options {
		if SameKey(opt.Key, key) {
			return true
		}
	}
	return false
}

// ExplanationOrDefault returns the explanation to display after answering.
func (q Question) ExplanationOrDefault() string {
	if strings.TrimSpace(q.Explanation) == "" {
		return DefaultExplanation
	}
	return q.Explanation
}

// SameKey compares option keys the way users type them.
func SameKey(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// QuestionView is a question as shown to a player: the answer is withheld.
type QuestionView struct {
	ID      QuestionID `json:"id"`
	Prompt  string     `json:"question"`
	Options []Option   `json:"options"`
}

// View strips the answer and explanation.
func (q Question) View() QuestionView {
	opts := make([]Option, len(q.Options))
	copy(opts, q.Options)
	return QuestionView{ID: q.ID, Prompt: q.Prompt, Options: opts}
}

// Quiz is a topic: a titled collection of questions, built in or user authored.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Questions   []Question `json:"questions"`
	AuthorID    string     `json:"createdBy,omitempty"`
	AuthorName  string     `json:"authorName,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
	Plays       int        `json:"plays"`
}

// QuizInfo is the public description of a quiz without its answer keys.
type QuizInfo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category,omitempty"`
	AuthorName    string `json:"authorName,omitempty"`
	QuestionCount int    `json:"questionCount"`
	Plays         int    `json:"plays"`
}

// Info summarises the quiz for listings and detail pages.
func (q Quiz) Info() QuizInfo {
	return QuizInfo{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Category:      q.Category,
		AuthorName:    q.AuthorName,
		QuestionCount: len(q.Questions),
		Plays:         q.Plays,
	}
}

// Author identifies who is creating a quiz.
type Author struct {
	UserID string
	Name   string
}

// SessionStatus is the lifecycle state of a quiz session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether no further mutation is allowed.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// SkipReason distinguishes an explicit give-up from a timer expiring. Scoring treats both alike.
type SkipReason string

const (
	SkipGiveUp  SkipReason = "give_up"
	SkipTimeout SkipReason = "timeout"
)

// AnswerOutcome is the recorded result of answering or skipping one question.
type AnswerOutcome struct {
	QuestionID     QuestionID `json:"questionId"`
	QuestionPrompt string     `json:"question"`
	SelectedOption *string    `json:"selected"`
	CorrectOption  string     `json:"correct"`
	IsCorrect      bool       `json:"isCorrect"`
	IsSkipped      bool       `json:"isSkipped"`
	SkipReason     SkipReason `json:"skipReason,omitempty"`
	Explanation    string     `json:"explanation"`
}

// ResultSummary is emitted once when a session reaches a terminal state.
type ResultSummary struct {
	Status         SessionStatus   `json:"status"`
	FinalScore     float64         `json:"finalScore"`
	TotalQuestions int             `json:"totalQuestions"`
	Percentage     int             `json:"percentage"`
	AnswerLog      []AnswerOutcome `json:"answerLog"`
}

// Progress describes where a player is within a session.
type Progress struct {
	Index    int     `json:"index"`
	Total    int     `json:"total"`
	Answered int     `json:"answered"`
	Score    float64 `json:"score"`
}

// HistoryEntry is one past attempt as kept by a history store.
type HistoryEntry struct {
	SessionID  string          `json:"sessionId"`
	Score      float64         `json:"score"`
	Total      int             `json:"total"`
	Percentage int             `json:"percentage"`
	Topic      string          `json:"topic"`
	Status     SessionStatus   `json:"status"`
	Details    []AnswerOutcome `json:"details"`
	Date       time.Time       `json:"date"`
}
