package state

import "quiz-admin-console/internal/domain"

// Projections are pure reads recomputed on demand; nothing here mutates
// the store or caches results, so an edit to any single answer is
// reflected on the next call.

// TotalScore sums the graded points of one team across all questions.
// Ungraded and absent answers contribute zero.
func (s *Store) TotalScore(teamID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, byTeam := range s.answers {
		if answer, ok := byTeam[teamID]; ok && answer.Graded() {
			total += *answer.Points
		}
	}
	return total
}

// Classify returns the tri-state grade of one (question, team) cell.
func (s *Store) Classify(question int, teamID int64) domain.Grade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answer, ok := s.answerLocked(question, teamID)
	if !ok {
		return domain.GradeMissing
	}
	return domain.ClassifyPoints(answer.Points)
}

// TeamResult is one scoreboard row: a team, its running total, and the
// per-question points (nil where ungraded or unanswered).
type TeamResult struct {
	Team   domain.Team
	Total  int
	Points []*int
}

// Results projects the scoreboard for questions 1..numberOfQuestions,
// one row per team, ordered by team id.
func (s *Store) Results(numberOfQuestions int) []TeamResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := s.teamsLocked()
	results := make([]TeamResult, 0, len(teams))
	for _, team := range teams {
		row := TeamResult{
			Team:   team,
			Points: make([]*int, numberOfQuestions),
		}
		for question := 1; question <= numberOfQuestions; question++ {
			answer, ok := s.answerLocked(question, team.ID)
			if !ok || !answer.Graded() {
				continue
			}
			points := *answer.Points
			row.Points[question-1] = &points
			row.Total += points
		}
		results = append(results, row)
	}
	return results
}

// AnswerView is one row of the grading table for the viewed question.
type AnswerView struct {
	Team   domain.Team
	Answer string
	Grade  domain.Grade
}

// AnswerViews projects the grading table for one question: every known
// team appears, with empty text and a missing grade when it has not
// answered.
func (s *Store) AnswerViews(question int) []AnswerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := s.teamsLocked()
	views := make([]AnswerView, 0, len(teams))
	for _, team := range teams {
		view := AnswerView{Team: team, Grade: domain.GradeMissing}
		if answer, ok := s.answerLocked(question, team.ID); ok {
			view.Answer = answer.Answer
			view.Grade = domain.ClassifyPoints(answer.Points)
		}
		views = append(views, view)
	}
	return views
}
