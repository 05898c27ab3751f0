package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quiz-admin-console/internal/domain"
)

// UpdateLog persists the update stream so a quiz survives a backend
// restart (in-memory, Redis, Postgres).
type UpdateLog interface {
	SaveTeam(ctx context.Context, quizID string, team domain.Team) error
	SaveAnswer(ctx context.Context, quizID string, answer domain.Answer) error
	LoadTeams(ctx context.Context, quizID string) ([]domain.Team, error)
	LoadAnswers(ctx context.Context, quizID string) ([]domain.Answer, error)
}

// TeamResults is the final summary pushed to one team by sendResults.
type TeamResults struct {
	TeamID int64  `json:"team_id"`
	Name   string `json:"name"`
	Total  int    `json:"total"`
	Points []*int `json:"points"`
}

// ResultsSender delivers results to a team's live connection. The
// websocket transport registers itself here.
type ResultsSender interface {
	SendResults(teamID int64, results TeamResults) error
}

// QuizSession owns the authoritative quiz state: the current phase, the
// team roster and the answer log, with one strictly increasing update-id
// sequence per entity kind. Admin consoles observe it through GetUpdates
// deltas; a mutex serializes all writers.
type QuizSession struct {
	log               UpdateLog
	now               func() time.Time
	numberOfQuestions int

	mu               sync.Mutex
	quizID           string
	language         string
	registration     bool
	question         *int
	statusUpdateID   int64
	teamsUpdateID    int64
	answersUpdateID  int64
	teams            map[int64]domain.Team
	answers          map[int]map[int64]domain.Answer
	resultsSender    ResultsSender
	subscribers      map[chan struct{}]struct{}
}

func NewQuizSession(log UpdateLog, numberOfQuestions int) *QuizSession {
	return NewQuizSessionWithClock(log, numberOfQuestions, time.Now)
}

// NewQuizSessionWithClock allows deterministic status timestamps in tests.
func NewQuizSessionWithClock(log UpdateLog, numberOfQuestions int, now func() time.Time) *QuizSession {
	return &QuizSession{
		log:               log,
		now:               now,
		numberOfQuestions: numberOfQuestions,
		teams:             make(map[int64]domain.Team),
		answers:           make(map[int]map[int64]domain.Answer),
		subscribers:       make(map[chan struct{}]struct{}),
	}
}

// NumberOfQuestions is the configured size of the quiz.
func (s *QuizSession) NumberOfQuestions() int {
	return s.numberOfQuestions
}

// SetResultsSender attaches the delivery channel used by SendResults.
func (s *QuizSession) SetResultsSender(sender ResultsSender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultsSender = sender
}

// StartQuiz activates a quiz and replays its persisted update log so a
// restarted backend resumes with the roster and answers it had.
func (s *QuizSession) StartQuiz(ctx context.Context, quizID, language string) error {
	if quizID == "" {
		return fmt.Errorf("quiz id must not be empty")
	}

	teams, err := s.log.LoadTeams(ctx, quizID)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	answers, err := s.log.LoadAnswers(ctx, quizID)
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.quizID = quizID
	s.language = language
	s.registration = false
	s.question = nil
	s.teams = make(map[int64]domain.Team)
	s.answers = make(map[int]map[int64]domain.Answer)
	s.teamsUpdateID = 0
	s.answersUpdateID = 0

	for _, team := range teams {
		s.teams[team.ID] = team
		if team.UpdateID > s.teamsUpdateID {
			s.teamsUpdateID = team.UpdateID
		}
	}
	for _, answer := range answers {
		byTeam, ok := s.answers[answer.Question]
		if !ok {
			byTeam = make(map[int64]domain.Answer)
			s.answers[answer.Question] = byTeam
		}
		byTeam[answer.TeamID] = answer
		if answer.UpdateID > s.answersUpdateID {
			s.answersUpdateID = answer.UpdateID
		}
	}

	s.bumpStatusLocked()
	return nil
}

// StopQuiz deactivates the current quiz.
func (s *QuizSession) StopQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizID = ""
	s.language = ""
	s.registration = false
	s.question = nil
	s.bumpStatusLocked()
}

// StartRegistration opens the roster. It cannot co-occur with a running
// question.
func (s *QuizSession) StartRegistration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quizID == "" {
		return domain.ErrQuizNotStarted
	}
	if s.question != nil {
		return domain.ErrQuestionRunning
	}
	s.registration = true
	s.bumpStatusLocked()
	return nil
}

func (s *QuizSession) StopRegistration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quizID == "" {
		return domain.ErrQuizNotStarted
	}
	s.registration = false
	s.bumpStatusLocked()
	return nil
}

// StartQuestion opens a question for answering.
func (s *QuizSession) StartQuestion(question int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quizID == "" {
		return domain.ErrQuizNotStarted
	}
	if s.registration {
		return domain.ErrRegistrationOpen
	}
	if question < 1 || question > s.numberOfQuestions {
		return fmt.Errorf("%w: %d", domain.ErrQuestionOutOfRange, question)
	}
	s.question = &question
	s.bumpStatusLocked()
	return nil
}

func (s *QuizSession) StopQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quizID == "" {
		return domain.ErrQuizNotStarted
	}
	s.question = nil
	s.bumpStatusLocked()
	return nil
}

// RegisterTeam adds a team to the roster, or renames it if the id is
// already registered. Only allowed while registration is open.
func (s *QuizSession) RegisterTeam(ctx context.Context, teamID int64, name string) (domain.Team, error) {
	s.mu.Lock()
	if s.quizID == "" {
		s.mu.Unlock()
		return domain.Team{}, domain.ErrQuizNotStarted
	}
	if !s.registration {
		s.mu.Unlock()
		return domain.Team{}, domain.ErrRegistrationClosed
	}

	s.teamsUpdateID++
	team := domain.Team{UpdateID: s.teamsUpdateID, ID: teamID, Name: name}
	s.teams[teamID] = team
	quizID := s.quizID
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.log.SaveTeam(ctx, quizID, team); err != nil {
		return domain.Team{}, fmt.Errorf("persist team: %w", err)
	}
	return team, nil
}

// SubmitAnswer records a team's answer to the running question.
// Resubmission replaces the previous answer and clears its grade.
func (s *QuizSession) SubmitAnswer(ctx context.Context, teamID int64, text string) (domain.Answer, error) {
	s.mu.Lock()
	if s.quizID == "" {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrQuizNotStarted
	}
	if s.question == nil {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrQuestionNotRunning
	}
	if _, ok := s.teams[teamID]; !ok {
		s.mu.Unlock()
		return domain.Answer{}, domain.ErrTeamNotFound
	}

	question := *s.question
	s.answersUpdateID++
	answer := domain.Answer{
		UpdateID: s.answersUpdateID,
		Question: question,
		TeamID:   teamID,
		Answer:   text,
	}
	byTeam, ok := s.answers[question]
	if !ok {
		byTeam = make(map[int64]domain.Answer)
		s.answers[question] = byTeam
	}
	byTeam[teamID] = answer
	quizID := s.quizID
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.log.SaveAnswer(ctx, quizID, answer); err != nil {
		return domain.Answer{}, fmt.Errorf("persist answer: %w", err)
	}
	return answer, nil
}

// SetAnswerPoints grades an existing answer under a fresh update id.
func (s *QuizSession) SetAnswerPoints(ctx context.Context, question int, teamID int64, points int) error {
	s.mu.Lock()
	if s.quizID == "" {
		s.mu.Unlock()
		return domain.ErrQuizNotStarted
	}
	byTeam, ok := s.answers[question]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: question %d team %d", domain.ErrAnswerNotFound, question, teamID)
	}
	answer, ok := byTeam[teamID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: question %d team %d", domain.ErrAnswerNotFound, question, teamID)
	}

	s.answersUpdateID++
	answer.UpdateID = s.answersUpdateID
	answer.Points = &points
	byTeam[teamID] = answer
	quizID := s.quizID
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.log.SaveAnswer(ctx, quizID, answer); err != nil {
		return fmt.Errorf("persist answer: %w", err)
	}
	return nil
}

// SendResults pushes a team's final summary down its live connection.
func (s *QuizSession) SendResults(teamID int64) error {
	s.mu.Lock()
	if s.quizID == "" {
		s.mu.Unlock()
		return domain.ErrQuizNotStarted
	}
	team, ok := s.teams[teamID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrTeamNotFound
	}
	sender := s.resultsSender

	results := TeamResults{
		TeamID: teamID,
		Name:   team.Name,
		Points: make([]*int, s.numberOfQuestions),
	}
	for question := 1; question <= s.numberOfQuestions; question++ {
		answer, ok := s.answers[question][teamID]
		if !ok || !answer.Graded() {
			continue
		}
		points := *answer.Points
		results.Points[question-1] = &points
		results.Total += points
	}
	s.mu.Unlock()

	if sender == nil {
		return fmt.Errorf("no results channel for team %d", teamID)
	}
	return sender.SendResults(teamID, results)
}

// Team returns a registered team by id.
func (s *QuizSession) Team(teamID int64) (domain.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	return team, ok
}

// Status returns the current phase record.
func (s *QuizSession) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *QuizSession) statusLocked() domain.Status {
	return domain.Status{
		UpdateID:     s.statusUpdateID,
		QuizID:       s.quizID,
		Language:     s.language,
		Question:     s.question,
		Time:         s.now().Format("2006-01-02 15:04:05"),
		Registration: s.registration,
	}
}

// GetUpdates snapshots every update with an id at or above the given
// lower bounds. A bound of -1 skips that kind entirely.
func (s *QuizSession) GetUpdates(minStatusID, minTeamsID, minAnswersID int64) domain.UpdateBatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := domain.UpdateBatch{Teams: []domain.Team{}, Answers: []domain.Answer{}}

	if minStatusID >= 0 && s.statusUpdateID >= minStatusID && s.statusUpdateID > 0 {
		status := s.statusLocked()
		batch.Status = &status
	}
	if minTeamsID >= 0 {
		for _, team := range s.teams {
			if team.UpdateID >= minTeamsID {
				batch.Teams = append(batch.Teams, team)
			}
		}
	}
	if minAnswersID >= 0 {
		for _, byTeam := range s.answers {
			for _, answer := range byTeam {
				if answer.UpdateID >= minAnswersID {
					batch.Answers = append(batch.Answers, answer)
				}
			}
		}
	}
	return batch
}

// Subscribe returns a signal channel pulsed on every update-id bump,
// used by the long-poll handler. The cancel function must be called to
// avoid leaks.
func (s *QuizSession) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *QuizSession) bumpStatusLocked() {
	s.statusUpdateID++
	s.notifyLocked()
}

func (s *QuizSession) notifyLocked() {
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
