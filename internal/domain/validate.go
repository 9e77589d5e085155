package domain

import (
	"fmt"
	"strings"
)

// Issue captures one validation problem.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates validation issues.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// ValidateQuestion checks option keys and the answer key of a single question.
func ValidateQuestion(q Question) []Issue {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if strings.TrimSpace(q.Prompt) == "" {
		add("question", "is required")
	}
	if len(q.Options) < 2 {
		add("options", "at least two options are required")
	}
	seen := make(map[string]struct{}, len(q.Options))
	for i, opt := range q.Options {
		key := strings.ToUpper(strings.TrimSpace(opt.Key))
		if key == "" {
			add(fmt.Sprintf("options[%d].key", i), "is required")
			continue
		}
		if _, dup := seen[key]; dup {
			add(fmt.Sprintf("options[%d].key", i), fmt.Sprintf("duplicate key %q", opt.Key))
		}
		seen[key] = struct{}{}
		if strings.TrimSpace(opt.Text) == "" {
			add(fmt.Sprintf("options[%d].text", i), "is required")
		}
	}
	if strings.TrimSpace(q.Answer) == "" {
		add("answer", "is required")
	} else if !q.HasOption(q.Answer) {
		add("answer", fmt.Sprintf("%q does not match any option", q.Answer))
	}
	return issues
}

// ValidateQuiz validates a quiz before it is accepted into a bank or stored.
func ValidateQuiz(quiz Quiz) error {
	var issues []Issue
	if strings.TrimSpace(quiz.Title) == "" {
		issues = append(issues, Issue{Field: "title", Message: "is required"})
	}
	if strings.TrimSpace(quiz.Description) == "" {
		issues = append(issues, Issue{Field: "description", Message: "is required"})
	}
	if len(quiz.Questions) == 0 {
		issues = append(issues, Issue{Field: "questions", Message: "at least one question is required"})
	}
	for i, q := range quiz.Questions {
		for _, issue := range ValidateQuestion(q) {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("questions[%d].%s", i, issue.Field),
				Message: issue.Message,
			})
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
