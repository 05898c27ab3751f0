package memory

import (
	"context"
	"sync"

	"quiz-admin-console/internal/domain"
)

type answerKey struct {
	question int
	teamID   int64
}

// UpdateLog is an in-memory implementation of app.UpdateLog, useful for
// tests and single-process demos. It keeps the latest record per
// identity, like the durable backends.
type UpdateLog struct {
	mu      sync.Mutex
	teams   map[string]map[int64]domain.Team
	answers map[string]map[answerKey]domain.Answer
}

func NewUpdateLog() *UpdateLog {
	return &UpdateLog{
		teams:   make(map[string]map[int64]domain.Team),
		answers: make(map[string]map[answerKey]domain.Answer),
	}
}

func (l *UpdateLog) SaveTeam(_ context.Context, quizID string, team domain.Team) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	byID, ok := l.teams[quizID]
	if !ok {
		byID = make(map[int64]domain.Team)
		l.teams[quizID] = byID
	}
	byID[team.ID] = team
	return nil
}

func (l *UpdateLog) SaveAnswer(_ context.Context, quizID string, answer domain.Answer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	byKey, ok := l.answers[quizID]
	if !ok {
		byKey = make(map[answerKey]domain.Answer)
		l.answers[quizID] = byKey
	}
	byKey[answerKey{answer.Question, answer.TeamID}] = answer
	return nil
}

func (l *UpdateLog) LoadTeams(_ context.Context, quizID string) ([]domain.Team, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	teams := make([]domain.Team, 0, len(l.teams[quizID]))
	for _, team := range l.teams[quizID] {
		teams = append(teams, team)
	}
	return teams, nil
}

func (l *UpdateLog) LoadAnswers(_ context.Context, quizID string) ([]domain.Answer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	answers := make([]domain.Answer, 0, len(l.answers[quizID]))
	for _, answer := range l.answers[quizID] {
		answers = append(answers, answer)
	}
	return answers, nil
}
