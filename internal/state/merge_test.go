package state

import (
	"errors"
	"reflect"
	"testing"

	"quiz-admin-console/internal/domain"
)

type storeSnapshot struct {
	statusWM, teamsWM, answersWM int64
	status                       domain.Status
	hasStatus                    bool
	teams                        []domain.Team
	answers                      map[int][]domain.Answer
}

// snapshotOf captures everything observable about a store so two stores
// can be compared for equivalence.
func snapshotOf(s *Store) storeSnapshot {
	snap := storeSnapshot{
		teams:   s.Teams(),
		answers: make(map[int][]domain.Answer),
	}
	snap.statusWM, snap.teamsWM, snap.answersWM = s.Watermarks()
	snap.status, snap.hasStatus = s.Status()
	for question := 1; question <= 30; question++ {
		if answers := s.AnswersFor(question); len(answers) > 0 {
			snap.answers[question] = answers
		}
	}
	return snap
}

func sampleBatch() domain.UpdateBatch {
	return domain.UpdateBatch{
		Status: &domain.Status{
			UpdateID:     123,
			QuizID:       "test",
			Language:     "en",
			Question:     domain.IntPtr(4),
			Time:         "2020-01-01 10:00:00",
			Registration: false,
		},
		Teams: []domain.Team{
			{UpdateID: 456, ID: 5001, Name: "Liverpool"},
		},
		Answers: []domain.Answer{
			{UpdateID: 789, Question: 4, TeamID: 5001, Answer: "Apple"},
		},
	}
}

func TestApplyMergesBatchIntoEmptyStore(t *testing.T) {
	store := NewStore()
	if err := store.Apply(sampleBatch()); err != nil {
		t.Fatalf("apply: %v", err)
	}

	statusWM, teamsWM, answersWM := store.Watermarks()
	if statusWM != 123 || teamsWM != 456 || answersWM != 789 {
		t.Fatalf("watermarks = (%d, %d, %d), want (123, 456, 789)", statusWM, teamsWM, answersWM)
	}

	team, ok := store.Team(5001)
	if !ok || team.Name != "Liverpool" {
		t.Fatalf("team = %+v ok=%v, want Liverpool", team, ok)
	}
	answer, ok := store.Answer(4, 5001)
	if !ok || answer.Answer != "Apple" {
		t.Fatalf("answer = %+v ok=%v, want Apple", answer, ok)
	}
	if answer.Graded() {
		t.Fatalf("answer should be ungraded")
	}
	if grade := store.Classify(4, 5001); grade != domain.GradeMissing {
		t.Fatalf("grade = %v, want missing", grade)
	}
	if total := store.TotalScore(5001); total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
	if running, ok := store.RunningQuestion(); !ok || running != 4 {
		t.Fatalf("running question = %d ok=%v, want 4", running, ok)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	once := NewStore()
	twice := NewStore()

	if err := once.Apply(sampleBatch()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := twice.Apply(sampleBatch()); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}

	if !reflect.DeepEqual(snapshotOf(once), snapshotOf(twice)) {
		t.Fatalf("replaying the same batch changed the store:\nonce:  %+v\ntwice: %+v", snapshotOf(once), snapshotOf(twice))
	}
}

func TestApplyIsCommutativeWithinBatch(t *testing.T) {
	batch := domain.UpdateBatch{
		Teams: []domain.Team{
			{UpdateID: 2, ID: 1, Name: "A"},
			{UpdateID: 3, ID: 2, Name: "B"},
		},
		Answers: []domain.Answer{
			{UpdateID: 5, Question: 1, TeamID: 1, Answer: "x"},
			{UpdateID: 6, Question: 1, TeamID: 2, Answer: "y"},
			{UpdateID: 7, Question: 2, TeamID: 1, Answer: "z"},
		},
	}
	permuted := domain.UpdateBatch{
		Teams:   []domain.Team{batch.Teams[1], batch.Teams[0]},
		Answers: []domain.Answer{batch.Answers[2], batch.Answers[0], batch.Answers[1]},
	}

	a, b := NewStore(), NewStore()
	if err := a.Apply(batch); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := b.Apply(permuted); err != nil {
		t.Fatalf("apply permuted: %v", err)
	}

	if !reflect.DeepEqual(snapshotOf(a), snapshotOf(b)) {
		t.Fatalf("permuting a batch changed the result:\n%+v\n%+v", snapshotOf(a), snapshotOf(b))
	}
}

func TestWatermarksAreMonotonic(t *testing.T) {
	store := NewStore()

	batches := []domain.UpdateBatch{
		{Teams: []domain.Team{{UpdateID: 10, ID: 1, Name: "A"}}},
		{Teams: []domain.Team{{UpdateID: 4, ID: 2, Name: "B"}}}, // replayed window
		{Answers: []domain.Answer{{UpdateID: 8, Question: 1, TeamID: 1, Answer: "x"}}},
		{Answers: []domain.Answer{{UpdateID: 3, Question: 2, TeamID: 1, Answer: "y"}}},
	}

	var lastTeams, lastAnswers int64
	for i, batch := range batches {
		if err := store.Apply(batch); err != nil {
			t.Fatalf("apply #%d: %v", i, err)
		}
		_, teamsWM, answersWM := store.Watermarks()
		if teamsWM < lastTeams || answersWM < lastAnswers {
			t.Fatalf("watermark regressed after batch %d: teams %d->%d answers %d->%d",
				i, lastTeams, teamsWM, lastAnswers, answersWM)
		}
		lastTeams, lastAnswers = teamsWM, answersWM
	}

	_, teamsWM, answersWM := store.Watermarks()
	if teamsWM != 10 || answersWM != 8 {
		t.Fatalf("final watermarks = (%d, %d), want (10, 8)", teamsWM, answersWM)
	}
}

func TestTeamRenameReplacesRecord(t *testing.T) {
	store := NewStore()

	if err := store.Apply(domain.UpdateBatch{
		Teams: []domain.Team{{UpdateID: 1, ID: 7, Name: "Old Name"}},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.Apply(domain.UpdateBatch{
		Teams: []domain.Team{{UpdateID: 2, ID: 7, Name: "New Name"}},
	}); err != nil {
		t.Fatalf("apply rename: %v", err)
	}

	if teams := store.Teams(); len(teams) != 1 || teams[0].Name != "New Name" {
		t.Fatalf("teams = %+v, want single renamed record", teams)
	}
}

func TestMalformedBatchIsRejectedWhole(t *testing.T) {
	store := NewStore()

	err := store.Apply(domain.UpdateBatch{
		Teams: []domain.Team{
			{UpdateID: 1, ID: 1, Name: "Good"},
			{UpdateID: 2, ID: 0, Name: "Bad"}, // missing identity
		},
	})
	if !errors.Is(err, domain.ErrMalformedUpdate) {
		t.Fatalf("err = %v, want ErrMalformedUpdate", err)
	}

	// Nothing from the batch may have been merged.
	if len(store.Teams()) != 0 {
		t.Fatalf("store partially merged a rejected batch: %+v", store.Teams())
	}
	if _, teamsWM, _ := store.Watermarks(); teamsWM != 0 {
		t.Fatalf("teams watermark advanced on rejected batch: %d", teamsWM)
	}
}

func TestViewedQuestionIsIndependentOfRunningQuestion(t *testing.T) {
	store := NewStore()
	if store.ViewedQuestion() != 1 {
		t.Fatalf("viewed question starts at %d, want 1", store.ViewedQuestion())
	}

	store.SetViewedQuestion(7)
	if err := store.Apply(domain.UpdateBatch{
		Status: &domain.Status{UpdateID: 1, QuizID: "test", Question: domain.IntPtr(3)},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if store.ViewedQuestion() != 7 {
		t.Fatalf("status delta moved the viewed-question cursor to %d", store.ViewedQuestion())
	}
	if running, _ := store.RunningQuestion(); running != 3 {
		t.Fatalf("running question = %d, want 3", running)
	}

	// A status with no question clears the running signal but not the cursor.
	if err := store.Apply(domain.UpdateBatch{
		Status: &domain.Status{UpdateID: 2, QuizID: "test"},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, ok := store.RunningQuestion(); ok {
		t.Fatalf("running question should be cleared")
	}
	if store.ViewedQuestion() != 7 {
		t.Fatalf("viewed question = %d, want 7", store.ViewedQuestion())
	}
}
