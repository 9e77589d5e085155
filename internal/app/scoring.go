package app

import (
	"fmt"
	"math"
)

// ScoringPolicy holds the score deltas applied per outcome.
type ScoringPolicy struct {
	CorrectDelta   float64 `yaml:"correct" json:"correct"`
	IncorrectDelta float64 `yaml:"incorrect" json:"incorrect"`
	SkipDelta      float64 `yaml:"skip" json:"skip"`
}

var (
	// SimpleScoring awards a point per correct answer and never deducts.
	SimpleScoring = ScoringPolicy{CorrectDelta: 1}
	// PenaltyScoring deducts a quarter point for each wrong answer.
	PenaltyScoring = ScoringPolicy{CorrectDelta: 1, IncorrectDelta: -0.25}
)

// ScoringByName resolves a named policy.
func ScoringByName(name string) (ScoringPolicy, error) {
	switch name {
	case "", "simple":
		return SimpleScoring, nil
	case "penalty":
		return PenaltyScoring, nil
	default:
		return ScoringPolicy{}, fmt.Errorf("unknown scoring mode %q", name)
	}
}

func (p ScoringPolicy) delta(correct, skipped bool) float64 {
	switch {
	case skipped:
		return p.SkipDelta
	case correct:
		return p.CorrectDelta
	default:
		return p.IncorrectDelta
	}
}

// percentage is the rounded share of the full session length.
func percentage(score float64, total int) int {
	if total <= 0 {
		return 0
	}
	// Halves round toward +Inf, so -12.5 becomes -12.
	return int(math.Floor(score/float64(total)*100 + 0.5))
}
