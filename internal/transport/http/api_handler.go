package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"quiz-admin-console/internal/app"
)

// MaxPollTimeout caps the getUpdates long-poll budget regardless of what
// the client asks for.
const MaxPollTimeout = 30 * time.Second

// APIHandler serves the admin command channel: POST /api/<command> with
// a JSON argument bag, a JSON result on 200 and {"error": msg} with
// status 400 otherwise.
type APIHandler struct {
	session *app.QuizSession
}

func NewAPIHandler(session *app.QuizSession) *APIHandler {
	return &APIHandler{session: session}
}

// Register mounts every command on the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/getUpdates", h.handleGetUpdates)
	mux.HandleFunc("/api/startQuiz", h.handleStartQuiz)
	mux.HandleFunc("/api/stopQuiz", h.handleStopQuiz)
	mux.HandleFunc("/api/startRegistration", h.handleStartRegistration)
	mux.HandleFunc("/api/stopRegistration", h.handleStopRegistration)
	mux.HandleFunc("/api/startQuestion", h.handleStartQuestion)
	mux.HandleFunc("/api/stopQuestion", h.handleStopQuestion)
	mux.HandleFunc("/api/setAnswerPoints", h.handleSetAnswerPoints)
	mux.HandleFunc("/api/sendResults", h.handleSendResults)
}

// decodeArgs reads the JSON argument bag; an empty body means no args.
func decodeArgs(r *http.Request, out any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func writeResult(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

type getUpdatesArgs struct {
	MinStatusUpdateID  int64   `json:"min_status_update_id"`
	MinTeamsUpdateID   int64   `json:"min_teams_update_id"`
	MinAnswersUpdateID int64   `json:"min_answers_update_id"`
	Timeout            float64 `json:"timeout"`
}

// handleGetUpdates long-polls: if the first snapshot is empty and the
// client allowed a timeout, it parks on the session's update signal and
// re-snapshots until something arrives or the budget runs out. An empty
// batch on timeout is a normal response.
func (h *APIHandler) handleGetUpdates(w http.ResponseWriter, r *http.Request) {
	var args getUpdatesArgs
	if err := decodeArgs(r, &args); err != nil {
		writeError(w, errors.New("request is not a valid JSON object"))
		return
	}

	timeout := time.Duration(args.Timeout * float64(time.Second))
	if timeout > MaxPollTimeout {
		timeout = MaxPollTimeout
	}

	batch := h.session.GetUpdates(args.MinStatusUpdateID, args.MinTeamsUpdateID, args.MinAnswersUpdateID)
	if !batch.Empty() || timeout <= 0 {
		writeResult(w, batch)
		return
	}

	signal, cancel := h.session.Subscribe()
	defer cancel()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-signal:
			batch = h.session.GetUpdates(args.MinStatusUpdateID, args.MinTeamsUpdateID, args.MinAnswersUpdateID)
			if !batch.Empty() {
				writeResult(w, batch)
				return
			}
		case <-deadline.C:
			writeResult(w, batch)
			return
		case <-r.Context().Done():
			log.Printf("connection closed by the client")
			return
		}
	}
}

func (h *APIHandler) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var args struct {
		QuizID   string `json:"quiz_id"`
		Language string `json:"language"`
	}
	if err := decodeArgs(r, &args); err != nil {
		writeError(w, errors.New("request is not a valid JSON object"))
		return
	}
	if err := h.session.StartQuiz(r.Context(), args.QuizID, args.Language); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, struct{}{})
}

func (h *APIHandler) handleStopQuiz(w http.ResponseWriter, _ *http.Request) {
	h.session.StopQuiz()
	writeResult(w, struct{}{})
}

func (h *APIHandler) handleStartRegistration(w http.ResponseWriter, _ *http.Request) {
	if err := h.session.StartRegistration(); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, struct{}{})
}

func (h *APIHandler) handleStopRegistration(w http.ResponseWriter, _ *http.Request) {
	if err := h.session.StopRegistration(); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, struct{}{})
}

func (h *APIHandler) handleStartQuestion(w http.ResponseWriter, r *http.Request) {
	var args struct {
		Question *int `json:"question"`
	}
	if err := decodeArgs(r, &args); err != nil {
		writeError(w, errors.New("request is not a valid JSON object"))
		return
	}
	if args.Question == nil {
		writeError(w, errors.New("parameter question was not provided"))
		return
	}
	if err := h.session.StartQuestion(*args.Question); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, struct{}{})
}

func (h *APIHandler) handleStopQuestion(w http.ResponseWriter, _ *http.Request) {
	if err := h.session.StopQuestion(); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, struct{}{})
}

func (h *APIHandler) handleSetAnswerPoints(w http.ResponseWriter, r *http.Request) {
	var args struct {
		Question int   `json:"question"`
		TeamID   int64 `json:"team_id"`
		Points   int   `json:"points"`
	}
	if err := decodeArgs(r, &args); err != nil {
		writeError(w, errors.New("request is not a valid JSON object"))
		return
	}
	if err := h.session.SetAnswerPoints(r.Context(), args.Question, args.TeamID, args.Points); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, struct{}{})
}

func (h *APIHandler) handleSendResults(w http.ResponseWriter, r *http.Request) {
	var args struct {
		TeamID int64 `json:"team_id"`
	}
	if err := decodeArgs(r, &args); err != nil {
		writeError(w, errors.New("request is not a valid JSON object"))
		return
	}
	if err := h.session.SendResults(args.TeamID); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, struct{}{})
}
