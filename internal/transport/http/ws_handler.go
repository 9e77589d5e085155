package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

type WSHandler struct {
	service      *app.QuizService
	defaultCount int
	upgrader     websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, defaultCount int) *WSHandler {
	if defaultCount == 0 {
		defaultCount = 10
	}
	return &WSHandler{
		service:      service,
		defaultCount: defaultCount,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type skipPayload struct {
	Reason domain.SkipReason `json:"reason"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS runs one quiz session over a websocket. The session starts on connect;
// the client drives it with answer, skip, next and quit messages. Dropping the
// connection before the result abandons the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}
	count := h.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := app.ParseCount(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		count = n
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	view, err := h.service.Start(ctx, userID, quizID, count)
	if err != nil {
		h.sendError(conn, err)
		return
	}
	sessionID := view.SessionID
	finished := false
	defer func() {
		if finished {
			return
		}
		// The request context is already done once the peer has gone.
		quitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := h.service.Quit(quitCtx, sessionID, userID); err != nil {
			log.Printf("abandon session %s: %v", sessionID, err)
		}
	}()

	if err := h.send(conn, "question", view); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		var (
			typ     string
			payload any
			opErr   error
		)
		switch inbound.Type {
		case "answer":
			var p answerPayload
			if err := json.Unmarshal(inbound.Payload, &p); err != nil {
				h.sendError(conn, errBadPayload)
				continue
			}
			typ = "outcome"
			payload, opErr = h.service.Answer(ctx, sessionID, userID, p.Option)
		case "skip":
			var p skipPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &p); err != nil {
					h.sendError(conn, errBadPayload)
					continue
				}
			}
			typ = "outcome"
			payload, opErr = h.service.Skip(ctx, sessionID, userID, p.Reason)
		case "next":
			var next app.NextResult
			next, opErr = h.service.Next(ctx, sessionID, userID)
			if opErr == nil && next.Result != nil {
				finished = true
				typ, payload = "result", next.Result
			} else {
				typ, payload = "question", next.Question
			}
		case "quit":
			var result app.QuizResult
			result, opErr = h.service.Quit(ctx, sessionID, userID)
			if opErr == nil {
				finished = true
			}
			typ, payload = "result", result
		default:
			h.sendError(conn, errUnsupportedMessage)
			continue
		}

		if opErr != nil {
			h.sendError(conn, opErr)
			continue
		}
		if err := h.send(conn, typ, payload); err != nil {
			return
		}
		if finished {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "quiz finished"),
				time.Now().Add(time.Second))
			return
		}
	}
}

type protocolError string

func (e protocolError) Error() string { return string(e) }

const (
	errBadPayload         protocolError = "invalid message payload"
	errUnsupportedMessage protocolError = "unsupported message type"
)

func (h *WSHandler) send(conn *websocket.Conn, typ string, payload any) error {
	if err := conn.WriteJSON(outboundMessage{Type: typ, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
		return err
	}
	return nil
}

func (h *WSHandler) sendError(conn *websocket.Conn, err error) {
	payload := errorPayload{Code: "bad_request", Message: err.Error()}
	if _, ok := err.(protocolError); !ok {
		_, payload = describeError(err)
	}
	_ = h.send(conn, "error", payload)
}
