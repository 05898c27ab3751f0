package render

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"quiz-admin-console/internal/domain"
	"quiz-admin-console/internal/state"
)

func populatedStore(t *testing.T) *state.Store {
	t.Helper()
	store := state.NewStore()
	err := store.Apply(domain.UpdateBatch{
		Status: &domain.Status{
			UpdateID: 1, QuizID: "test", Language: "en",
			Time: "2020-01-01 10:00:00", Registration: false,
		},
		Teams: []domain.Team{
			{UpdateID: 2, ID: 1, Name: "Liverpool"},
			{UpdateID: 3, ID: 2, Name: "Arsenal"},
		},
		Answers: []domain.Answer{
			{UpdateID: 4, Question: 1, TeamID: 1, Answer: "Apple", Points: domain.IntPtr(1)},
			{UpdateID: 5, Question: 1, TeamID: 2, Answer: "Pear", Points: domain.IntPtr(0)},
			{UpdateID: 6, Question: 2, TeamID: 1, Answer: "Plum"},
		},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return store
}

func TestRedrawIsIdempotent(t *testing.T) {
	store := populatedStore(t)

	var first, second bytes.Buffer
	NewConsole(&first, 3).Redraw(store)
	NewConsole(&second, 3).Redraw(store)

	if first.String() != second.String() {
		t.Fatalf("same store produced different frames:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestRedrawShowsTotalsAndGrades(t *testing.T) {
	store := populatedStore(t)

	var out bytes.Buffer
	NewConsole(&out, 3).Redraw(store)
	frame := out.String()

	for _, want := range []string{"quiz: test", "registration: closed", "Liverpool", "Arsenal", "Apple", "Pear"} {
		if !strings.Contains(frame, want) {
			t.Fatalf("frame missing %q:\n%s", want, frame)
		}
	}
	// Question 1 is graded: Liverpool correct, Arsenal wrong-with-zero.
	if !strings.Contains(frame, correctMark) || !strings.Contains(frame, wrongMark) {
		t.Fatalf("frame missing grade marks:\n%s", frame)
	}
}

func TestRedrawAnswersFollowViewedQuestion(t *testing.T) {
	store := populatedStore(t)
	store.SetViewedQuestion(2)

	var out bytes.Buffer
	NewConsole(&out, 3).Redraw(store)
	frame := out.String()

	if !strings.Contains(frame, "Answers for question 2") {
		t.Fatalf("frame not following viewed question:\n%s", frame)
	}
	if !strings.Contains(frame, "Plum") {
		t.Fatalf("frame missing ungraded answer for question 2:\n%s", frame)
	}
}

func TestConcurrentRedrawsKeepFramesWhole(t *testing.T) {
	store := populatedStore(t)

	var reference bytes.Buffer
	NewConsole(&reference, 3).Redraw(store)
	frame := reference.String()

	var out bytes.Buffer
	console := NewConsole(&out, 3)

	const workers, redraws = 4, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < redraws; j++ {
				console.Redraw(store)
			}
		}()
	}
	wg.Wait()

	if got, want := out.String(), strings.Repeat(frame, workers*redraws); got != want {
		t.Fatalf("concurrent redraws interleaved mid-frame")
	}
}

func TestRedrawBeforeFirstStatus(t *testing.T) {
	var out bytes.Buffer
	NewConsole(&out, 3).Redraw(state.NewStore())

	if !strings.Contains(out.String(), "waiting for first update") {
		t.Fatalf("empty store frame = %q", out.String())
	}
}
