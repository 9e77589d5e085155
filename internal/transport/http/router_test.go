package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"study-quiz-service/internal/domain"
)

func TestGetQuizHidesAnswers(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/quizzes/quiz-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["questionCount"] != float64(2) || body["questions"] != nil {
		t.Fatalf("unexpected quiz info %v", body)
	}

	missing, err := http.Get(srv.URL + "/api/quizzes/none")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestCreateQuiz(t *testing.T) {
	srv := newTestServer(t)
	payload := `{
		"title": "Go basics",
		"description": "Channels and goroutines.",
		"questions": [
			{"question": "Unbuffered send blocks until?", "options": [{"key": "a", "text": "a receiver is ready"}, {"key": "b", "text": "never"}], "answer": "a"}
		]
	}`

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/quizzes", strings.NewReader(payload))
	req.Header.Set("X-User-ID", "author-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var info domain.QuizInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.ID == "" || info.AuthorName != "Anonymous" || info.QuestionCount != 1 {
		t.Fatalf("unexpected info %+v", info)
	}
	stored, err := srv.catalog.LoadQuiz(context.Background(), info.ID)
	if err != nil {
		t.Fatalf("load created quiz: %v", err)
	}
	if stored.AuthorID != "author-1" || stored.Questions[0].Answer != "A" {
		t.Fatalf("unexpected stored quiz %+v", stored)
	}
}

func TestCreateQuizRejectsInvalid(t *testing.T) {
	srv := newTestServer(t)

	noUser, err := http.Post(srv.URL+"/api/quizzes", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	noUser.Body.Close()
	if noUser.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", noUser.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/quizzes", strings.NewReader(`{"title": "", "questions": []}`))
	req.Header.Set("X-User-ID", "author-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var body errorPayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "invalid_quiz" || len(body.Issues) < 2 {
		t.Fatalf("expected aggregated issues, got %+v", body)
	}
}

func TestHistoryListAndDelete(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	for _, topic := range []string{"first", "second"} {
		if err := srv.history.Append(ctx, "u1", domain.HistoryEntry{Topic: topic, Date: time.Now()}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/users/u1/history/0", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	list, err := http.Get(srv.URL + "/api/users/u1/history")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer list.Body.Close()
	var entries []domain.HistoryEntry
	if err := json.NewDecoder(list.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Topic != "second" {
		t.Fatalf("unexpected history %+v", entries)
	}

	for path, want := range map[string]int{
		"/api/users/u1/history/5":   http.StatusNotFound,
		"/api/users/u1/history/abc": http.StatusBadRequest,
	} {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("delete %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("%s: expected %d, got %d", path, want, resp.StatusCode)
		}
	}
}
