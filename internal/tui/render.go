package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

var (
	colorHeader  = lipgloss.Color("33")
	colorMuted   = lipgloss.Color("242")
	colorCorrect = lipgloss.Color("42")
	colorWrong   = lipgloss.Color("196")
	colorSkipped = lipgloss.Color("214")
)

// renderQuestion renders the header, the question with its options, and the last outcome.
func renderQuestion(m Model) string {
	p := m.view.Progress
	header := fmt.Sprintf("%s | Question %d/%d | Score: %s", m.view.Topic, p.Index+1, p.Total, formatScore(m.score))
	if m.timeLimit > 0 && m.outcome == nil {
		remaining := m.timeLimit - m.now.Sub(m.shownAt)
		if remaining < 0 {
			remaining = 0
		}
		header += " | " + remaining.Round(time.Second).String() + " left"
	}

	lines := []string{
		stylize(header, m.noColor, colorHeader, true),
		"",
		m.view.Question.Prompt,
		"",
	}
	for _, opt := range m.view.Question.Options {
		lines = append(lines, renderOption(opt, m.outcome, m.noColor))
	}
	lines = append(lines, "")
	if m.outcome != nil {
		lines = append(lines, renderOutcome(*m.outcome, m.noColor), stylize(m.outcome.Explanation, m.noColor, colorMuted, false), "")
	}
	if m.err != "" {
		lines = append(lines, stylize("! "+m.err, m.noColor, colorWrong, false))
	}
	lines = append(lines, stylize(footerHelp(m.outcome != nil), m.noColor, colorMuted, false))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderOption(opt domain.Option, outcome *domain.AnswerOutcome, noColor bool) string {
	line := "  " + opt.Key + ") " + opt.Text
	if outcome == nil {
		return line
	}
	switch {
	case domain.SameKey(opt.Key, outcome.CorrectOption):
		return stylize("> "+opt.Key+") "+opt.Text, noColor, colorCorrect, true)
	case outcome.SelectedOption != nil && domain.SameKey(opt.Key, *outcome.SelectedOption):
		return stylize("x "+opt.Key+") "+opt.Text, noColor, colorWrong, false)
	}
	return line
}

func renderOutcome(outcome domain.AnswerOutcome, noColor bool) string {
	switch {
	case outcome.IsSkipped && outcome.SkipReason == domain.SkipTimeout:
		return stylize("Time's up. Correct answer: "+outcome.CorrectOption, noColor, colorSkipped, true)
	case outcome.IsSkipped:
		return stylize("Skipped. Correct answer: "+outcome.CorrectOption, noColor, colorSkipped, true)
	case outcome.IsCorrect:
		return stylize("Correct!", noColor, colorCorrect, true)
	default:
		return stylize("Incorrect. Correct answer: "+outcome.CorrectOption, noColor, colorWrong, true)
	}
}

func footerHelp(answered bool) string {
	if answered {
		return "enter: next  q: quit"
	}
	return "a-d: answer  s: skip  q: quit"
}

// renderResult renders the final score and the per-question review.
func renderResult(result app.QuizResult, noColor bool) string {
	s := result.Summary
	title := "Quiz complete"
	if s.Status == domain.StatusAbandoned {
		title = "Quiz ended early"
	}
	lines := []string{
		stylize(title+": "+result.Topic, noColor, colorHeader, true),
		fmt.Sprintf("Score: %s / %d (%d%%)", formatScore(s.FinalScore), s.TotalQuestions, s.Percentage),
		"",
	}
	for i, o := range s.AnswerLog {
		mark, color := "x", colorWrong
		switch {
		case o.IsSkipped:
			mark, color = "-", colorSkipped
		case o.IsCorrect:
			mark, color = "v", colorCorrect
		}
		lines = append(lines, stylize(fmt.Sprintf("%s %d. %s", mark, i+1, truncate(o.QuestionPrompt, 70)), noColor, color, false))
	}
	if !result.HistorySaved {
		lines = append(lines, "", stylize("history was not saved", noColor, colorMuted, false))
	}
	lines = append(lines, "", stylize("press enter to exit", noColor, colorMuted, false))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// formatScore drops the fraction for whole scores.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func truncate(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if len(normalized) <= limit {
		return normalized
	}
	return normalized[:limit-3] + "..."
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color, bold bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}
