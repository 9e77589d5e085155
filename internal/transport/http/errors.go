package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"study-quiz-service/internal/domain"
)

type errorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Issues  []domain.Issue `json:"issues,omitempty"`
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{domain.ErrQuizNotFound, http.StatusNotFound, "quiz_not_found"},
	{domain.ErrHistoryNotFound, http.StatusNotFound, "history_not_found"},
	{domain.ErrOptionNotFound, http.StatusBadRequest, "option_not_found"},
	{domain.ErrInvalidQuestionCount, http.StatusBadRequest, "invalid_count"},
	{domain.ErrEmptyQuestionBank, http.StatusUnprocessableEntity, "empty_question_bank"},
	{domain.ErrSessionClosed, http.StatusConflict, "session_closed"},
	{domain.ErrAlreadyAnswered, http.StatusConflict, "already_answered"},
	{domain.ErrQuestionUnanswered, http.StatusConflict, "question_unanswered"},
}

// describeError maps a service error to an HTTP status and a client-facing payload.
func describeError(err error) (int, errorPayload) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, errorPayload{Code: "invalid_quiz", Message: "quiz failed validation", Issues: verr.Issues}
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.status, errorPayload{Code: c.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorPayload{Code: "internal", Message: "internal error"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := describeError(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorPayload{Code: "bad_request", Message: message})
}
