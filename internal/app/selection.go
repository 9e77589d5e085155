package app

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"study-quiz-service/internal/domain"
)

// AllQuestions requests the whole shuffled bank.
const AllQuestions = -1

// ParseCount accepts a positive integer or "all".
func ParseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return AllQuestions, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domain.ErrInvalidQuestionCount
	}
	return n, nil
}

// Selector shuffles question banks into session sequences.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource allows deterministic shuffles in tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// Select returns a shuffled copy of source truncated to count. The source is never mutated.
func (s *Selector) Select(source []domain.Question, count int) ([]domain.Question, error) {
	if count != AllQuestions && count <= 0 {
		return nil, domain.ErrInvalidQuestionCount
	}
	if len(source) == 0 {
		return nil, domain.ErrEmptyQuestionBank
	}

	out := make([]domain.Question, len(source))
	copy(out, source)

	s.mu.Lock()
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.mu.Unlock()

	if count != AllQuestions && count < len(out) {
		out = out[:count]
	}
	return out, nil
}
