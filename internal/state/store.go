package state

import (
	"sort"
	"sync"

	"quiz-admin-console/internal/domain"
)

// Store is the local authoritative snapshot the sync loop maintains. It
// holds one watermark per entity kind plus the two identity-keyed
// indices. The store does no I/O. The sync loop is the only writer of
// quiz data; the read lock lets the operator's command loop project and
// redraw while a poll is in flight.
type Store struct {
	mu sync.RWMutex

	status *domain.Status
	// teamID -> Team
	teams map[int64]domain.Team
	// question -> teamID -> Answer
	answers map[int]map[int64]domain.Answer

	statusWatermark  int64
	teamsWatermark   int64
	answersWatermark int64

	// Question currently open for answering, per the last Status delta.
	// Independent of viewedQuestion, which is the operator's grading cursor.
	runningQuestion *int
	viewedQuestion  int
}

// NewStore returns an empty store with all watermarks at zero and the
// viewed-question cursor on question 1.
func NewStore() *Store {
	return &Store{
		teams:          make(map[int64]domain.Team),
		answers:        make(map[int]map[int64]domain.Answer),
		viewedQuestion: 1,
	}
}

// Watermarks returns the highest update id merged so far per kind
// (status, teams, answers). Zero means no updates of that kind were seen.
func (s *Store) Watermarks() (status, teams, answers int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusWatermark, s.teamsWatermark, s.answersWatermark
}

// Status returns the last merged status record, if any.
func (s *Store) Status() (domain.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == nil {
		return domain.Status{}, false
	}
	return *s.status, true
}

// Teams returns all known teams ordered by id.
func (s *Store) Teams() []domain.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teamsLocked()
}

func (s *Store) teamsLocked() []domain.Team {
	teams := make([]domain.Team, 0, len(s.teams))
	for _, team := range s.teams {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams
}

// Team returns one team by id.
func (s *Store) Team(id int64) (domain.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	return team, ok
}

// Answer returns one answer by its (question, team) identity.
func (s *Store) Answer(question int, teamID int64) (domain.Answer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answerLocked(question, teamID)
}

func (s *Store) answerLocked(question int, teamID int64) (domain.Answer, bool) {
	byTeam, ok := s.answers[question]
	if !ok {
		return domain.Answer{}, false
	}
	answer, ok := byTeam[teamID]
	return answer, ok
}

// AnswersFor returns all answers to one question ordered by team id.
func (s *Store) AnswersFor(question int) []domain.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byTeam := s.answers[question]
	answers := make([]domain.Answer, 0, len(byTeam))
	for _, answer := range byTeam {
		answers = append(answers, answer)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].TeamID < answers[j].TeamID })
	return answers
}

// RunningQuestion reports the question currently open for answering, per
// the latest status delta.
func (s *Store) RunningQuestion() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.runningQuestion == nil {
		return 0, false
	}
	return *s.runningQuestion, true
}

// ViewedQuestion is the operator's grading cursor, unrelated to the
// running question.
func (s *Store) ViewedQuestion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewedQuestion
}

// SetViewedQuestion moves the grading cursor.
func (s *Store) SetViewedQuestion(question int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewedQuestion = question
}

// putStatusLocked replaces the status record and advances the status
// watermark.
func (s *Store) putStatusLocked(status domain.Status) {
	copied := status
	s.status = &copied
	if status.UpdateID > s.statusWatermark {
		s.statusWatermark = status.UpdateID
	}
	s.runningQuestion = status.Question
}

// putTeamLocked upserts a team by id and advances the teams watermark.
func (s *Store) putTeamLocked(team domain.Team) {
	s.teams[team.ID] = team
	if team.UpdateID > s.teamsWatermark {
		s.teamsWatermark = team.UpdateID
	}
}

// putAnswerLocked upserts an answer by (question, team) and advances the
// answers watermark.
func (s *Store) putAnswerLocked(answer domain.Answer) {
	byTeam, ok := s.answers[answer.Question]
	if !ok {
		byTeam = make(map[int64]domain.Answer)
		s.answers[answer.Question] = byTeam
	}
	byTeam[answer.TeamID] = answer
	if answer.UpdateID > s.answersWatermark {
		s.answersWatermark = answer.UpdateID
	}
}
