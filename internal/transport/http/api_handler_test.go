package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-admin-console/internal/api"
	"quiz-admin-console/internal/app"
	"quiz-admin-console/internal/infra/memory"
)

func newTestServer(t *testing.T) (*app.QuizSession, *httptest.Server) {
	t.Helper()
	session := app.NewQuizSession(memory.NewUpdateLog(), 24)
	mux := http.NewServeMux()
	NewAPIHandler(session).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return session, server
}

func TestCommandFlowOverHTTP(t *testing.T) {
	ctx := context.Background()
	session, server := newTestServer(t)
	client := api.NewClient(server.URL, server.Client())

	// Commands against a stopped quiz are rejected with an error body.
	err := client.StartRegistration(ctx)
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 APIError", err)
	}

	if err := client.StartQuiz(ctx, "test", "en"); err != nil {
		t.Fatalf("startQuiz: %v", err)
	}
	if err := client.StartRegistration(ctx); err != nil {
		t.Fatalf("startRegistration: %v", err)
	}
	if _, err := session.RegisterTeam(ctx, 5001, "Liverpool"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := client.StopRegistration(ctx); err != nil {
		t.Fatalf("stopRegistration: %v", err)
	}
	if err := client.StartQuestion(ctx, 4); err != nil {
		t.Fatalf("startQuestion: %v", err)
	}
	if _, err := session.SubmitAnswer(ctx, 5001, "Apple"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := client.SetAnswerPoints(ctx, 4, 5001, 1); err != nil {
		t.Fatalf("setAnswerPoints: %v", err)
	}

	batch, err := client.GetUpdates(ctx, 1, 1, 1, 0)
	if err != nil {
		t.Fatalf("getUpdates: %v", err)
	}
	if batch.Status == nil || batch.Status.Question == nil || *batch.Status.Question != 4 {
		t.Fatalf("status = %+v, want question 4", batch.Status)
	}
	if len(batch.Teams) != 1 || len(batch.Answers) != 1 {
		t.Fatalf("batch = %+v, want one team and one answer", batch)
	}
	if !batch.Answers[0].Graded() || *batch.Answers[0].Points != 1 {
		t.Fatalf("answer = %+v, want graded 1", batch.Answers[0])
	}

	// Grading a non-existent answer reports the backend's message.
	err = client.SetAnswerPoints(ctx, 9, 5001, 1)
	if !errors.As(err, &apiErr) || apiErr.Message == "" {
		t.Fatalf("err = %v, want APIError with message", err)
	}
}

func TestGetUpdatesReturnsEmptyBatchWithoutTimeout(t *testing.T) {
	ctx := context.Background()
	_, server := newTestServer(t)
	client := api.NewClient(server.URL, server.Client())

	batch, err := client.GetUpdates(ctx, 1, 1, 1, 0)
	if err != nil {
		t.Fatalf("getUpdates: %v", err)
	}
	if !batch.Empty() {
		t.Fatalf("batch = %+v, want empty", batch)
	}
}

func TestGetUpdatesLongPollWakesOnUpdate(t *testing.T) {
	ctx := context.Background()
	session, server := newTestServer(t)
	client := api.NewClient(server.URL, server.Client())

	if err := session.StartQuiz(ctx, "test", "en"); err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	first, err := client.GetUpdates(ctx, 1, 1, 1, 0)
	if err != nil {
		t.Fatalf("getUpdates: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		batch, err := client.GetUpdates(ctx, first.Status.UpdateID+1, 1, 1, 10)
		if err == nil && batch.Status == nil {
			err = errors.New("woke without a status update")
		}
		done <- err
	}()

	// Give the poller a moment to park, then trigger an update.
	time.Sleep(100 * time.Millisecond)
	if err := session.StartRegistration(); err != nil {
		t.Fatalf("start registration: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("long poll: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("long poll did not wake on update")
	}
}
