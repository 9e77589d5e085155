package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

// NewRouter mounts the REST API and the websocket play endpoint.
func NewRouter(service *app.QuizService, ws *WSHandler) http.Handler {
	h := &restHandler{service: service}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/quizzes", h.createQuiz)
		r.Get("/quizzes/{quizID}", h.getQuiz)
		r.Route("/users/{userID}/history", func(r chi.Router) {
			r.Get("/", h.listHistory)
			r.Delete("/{index}", h.deleteHistory)
		})
	})
	return r
}

type restHandler struct {
	service *app.QuizService
}

func (h *restHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Quiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// createQuiz trusts X-User-ID/X-User-Name from the fronting auth proxy.
func (h *restHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Code: "unauthenticated", Message: "missing X-User-ID"})
		return
	}
	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		badRequest(w, "invalid quiz payload")
		return
	}
	info, err := h.service.CreateQuiz(r.Context(), domain.Author{
		UserID: userID,
		Name:   r.Header.Get("X-User-Name"),
	}, quiz)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *restHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *restHandler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		badRequest(w, "index must be an integer")
		return
	}
	if err := h.service.DeleteHistory(r.Context(), chi.URLParam(r, "userID"), index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
