package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-admin-console/internal/domain"
)

// UpdateLog persists the update stream in Postgres, one row per record
// identity. Saves upsert on the identity key so the tables always hold
// the latest version of each record.
type UpdateLog struct {
	pool *pgxpool.Pool
}

func NewUpdateLog(pool *pgxpool.Pool) *UpdateLog {
	return &UpdateLog{pool: pool}
}

func (l *UpdateLog) SaveTeam(ctx context.Context, quizID string, team domain.Team) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO quiz_teams (quiz_id, team_id, update_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (quiz_id, team_id)
		DO UPDATE SET update_id = EXCLUDED.update_id, name = EXCLUDED.name`,
		quizID, team.ID, team.UpdateID, team.Name)
	if err != nil {
		return fmt.Errorf("save team: %w", err)
	}
	return nil
}

func (l *UpdateLog) SaveAnswer(ctx context.Context, quizID string, answer domain.Answer) error {
	var points sql.NullInt64
	if answer.Points != nil {
		points = sql.NullInt64{Int64: int64(*answer.Points), Valid: true}
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO quiz_answers (quiz_id, question, team_id, update_id, answer, points)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (quiz_id, question, team_id)
		DO UPDATE SET update_id = EXCLUDED.update_id, answer = EXCLUDED.answer, points = EXCLUDED.points`,
		quizID, answer.Question, answer.TeamID, answer.UpdateID, answer.Answer, points)
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

func (l *UpdateLog) LoadTeams(ctx context.Context, quizID string) ([]domain.Team, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT update_id, team_id, name FROM quiz_teams WHERE quiz_id = $1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.UpdateID, &team.ID, &team.Name); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (l *UpdateLog) LoadAnswers(ctx context.Context, quizID string) ([]domain.Answer, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT update_id, question, team_id, answer, points FROM quiz_answers WHERE quiz_id = $1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var answer domain.Answer
		var points sql.NullInt64
		if err := rows.Scan(&answer.UpdateID, &answer.Question, &answer.TeamID, &answer.Answer, &points); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if points.Valid {
			answer.Points = domain.IntPtr(int(points.Int64))
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}
