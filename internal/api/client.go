package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quiz-admin-console/internal/domain"
)

// ErrBackendUnavailable wraps transport-level failures (dial errors,
// timeouts) so callers can tell them apart from backend rejections.
var ErrBackendUnavailable = errors.New("quiz backend unavailable")

// APIError is a non-200 response from the backend, carrying the message
// from its {"error": ...} body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("command failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Client is the command channel to the quiz backend: every command is a
// POST of a JSON argument bag to /api/<command>, answered with a JSON
// result on 200 or an {"error": ...} body otherwise.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a command channel for the given backend base URL.
// The HTTP client's timeout must leave room for the getUpdates long-poll
// budget on top of network latency.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type errorResponse struct {
	Error string `json:"error"`
}

// call posts one command. A nil args sends an empty argument bag; a nil
// out discards the result body after checking it is valid JSON.
func (c *Client) call(ctx context.Context, command string, args, out any) error {
	if args == nil {
		args = struct{}{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode %s args: %w", command, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/"+command, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", command, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, command, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", ErrBackendUnavailable, command, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload errorResponse
		if err := json.Unmarshal(raw, &payload); err == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		out = &json.RawMessage{}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", command, err)
	}
	return nil
}

type getUpdatesArgs struct {
	MinStatusUpdateID  int64 `json:"min_status_update_id"`
	MinTeamsUpdateID   int64 `json:"min_teams_update_id"`
	MinAnswersUpdateID int64 `json:"min_answers_update_id"`
	Timeout            int   `json:"timeout"`
}

// GetUpdates long-polls for every update with an id at or above the given
// lower bounds. The backend may hold the request for up to timeoutSeconds
// before returning an empty batch; a lower bound of -1 skips that kind.
func (c *Client) GetUpdates(ctx context.Context, minStatusID, minTeamsID, minAnswersID int64, timeoutSeconds int) (domain.UpdateBatch, error) {
	var batch domain.UpdateBatch
	err := c.call(ctx, "getUpdates", getUpdatesArgs{
		MinStatusUpdateID:  minStatusID,
		MinTeamsUpdateID:   minTeamsID,
		MinAnswersUpdateID: minAnswersID,
		Timeout:            timeoutSeconds,
	}, &batch)
	if err != nil {
		return domain.UpdateBatch{}, err
	}
	return batch, nil
}

// StartQuiz activates a quiz on the backend.
func (c *Client) StartQuiz(ctx context.Context, quizID, language string) error {
	return c.call(ctx, "startQuiz", map[string]string{
		"quiz_id":  quizID,
		"language": language,
	}, nil)
}

// StopQuiz deactivates the current quiz.
func (c *Client) StopQuiz(ctx context.Context) error {
	return c.call(ctx, "stopQuiz", nil, nil)
}

// StartRegistration opens team registration.
func (c *Client) StartRegistration(ctx context.Context) error {
	return c.call(ctx, "startRegistration", nil, nil)
}

// StopRegistration closes team registration.
func (c *Client) StopRegistration(ctx context.Context) error {
	return c.call(ctx, "stopRegistration", nil, nil)
}

// StartQuestion opens a question for answering.
func (c *Client) StartQuestion(ctx context.Context, question int) error {
	return c.call(ctx, "startQuestion", map[string]int{"question": question}, nil)
}

// StopQuestion closes the running question.
func (c *Client) StopQuestion(ctx context.Context) error {
	return c.call(ctx, "stopQuestion", nil, nil)
}

type setAnswerPointsArgs struct {
	Question int   `json:"question"`
	TeamID   int64 `json:"team_id"`
	Points   int   `json:"points"`
}

// SetAnswerPoints grades one team's answer to one question.
func (c *Client) SetAnswerPoints(ctx context.Context, question int, teamID int64, points int) error {
	return c.call(ctx, "setAnswerPoints", setAnswerPointsArgs{
		Question: question,
		TeamID:   teamID,
		Points:   points,
	}, nil)
}

// SendResults pushes the final results to one team.
func (c *Client) SendResults(ctx context.Context, teamID int64) error {
	return c.call(ctx, "sendResults", map[string]int64{"team_id": teamID}, nil)
}
