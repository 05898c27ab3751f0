package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"quiz-admin-console/internal/app"
	"quiz-admin-console/internal/domain"
)

// WSHandler is the participant-facing transport: a team connects over a
// websocket, registers while registration is open, submits free-text
// answers for the running question, and receives its final results when
// the operator sends them.
type WSHandler struct {
	session  *app.QuizSession
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[int64]chan outboundMessage[any]
}

func NewWSHandler(session *app.QuizSession) *WSHandler {
	h := &WSHandler{
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[int64]chan outboundMessage[any]),
	}
	session.SetResultsSender(h)
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// SendResults implements app.ResultsSender by pushing the summary down
// the team's live connection. The send happens under h.mu: teardown
// closes the channel under the same lock, so this can never hit a
// closed channel.
func (h *WSHandler) SendResults(teamID int64, results app.TeamResults) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	send, ok := h.conns[teamID]
	if !ok {
		return fmt.Errorf("team %d is not connected", teamID)
	}
	select {
	case send <- outboundMessage[any]{Type: "results", Payload: results}:
		return nil
	default:
		return fmt.Errorf("team %d connection is not keeping up", teamID)
	}
}

// ServeWS upgrades the request and wires the connection into the quiz
// session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(r.URL.Query().Get("teamId"), 10, 64)
	if err != nil || teamID <= 0 {
		http.Error(w, "missing or invalid teamId", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	team, err := h.session.RegisterTeam(r.Context(), teamID, name)
	if err != nil {
		// Already-registered teams may reconnect after registration closes,
		// e.g. to receive their results.
		existing, ok := h.session.Team(teamID)
		if !ok {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		team = existing
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	h.mu.Lock()
	h.conns[teamID] = send
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		// A reconnect may have replaced this entry already; only remove
		// it if it is still ours, or the live connection would be lost.
		if h.conns[teamID] == send {
			delete(h.conns, teamID)
		}
		close(send)
		h.mu.Unlock()
		<-writerDone
	}()

	send <- outboundMessage[any]{Type: "registered", Payload: team}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			answer, err := h.session.SubmitAnswer(r.Context(), teamID, payload.Answer)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerAccepted", Payload: domain.Answer{
				UpdateID: answer.UpdateID,
				Question: answer.Question,
				TeamID:   answer.TeamID,
				Answer:   answer.Answer,
			}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}
}
