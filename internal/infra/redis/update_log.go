package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-admin-console/internal/domain"
)

// UpdateLog persists the update stream in Redis, one hash per quiz and
// entity kind:
//
//	HSET quiz:{quizID}:teams   {teamID}            {team JSON}
//	HSET quiz:{quizID}:answers {question}:{teamID} {answer JSON}
//
// Hash fields carry the record identity, so a re-registration or a
// re-graded answer overwrites its previous version in place.
type UpdateLog struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUpdateLog(client *redis.Client, ttl time.Duration) *UpdateLog {
	return &UpdateLog{client: client, ttl: ttl}
}

func (l *UpdateLog) SaveTeam(ctx context.Context, quizID string, team domain.Team) error {
	raw, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("encode team: %w", err)
	}
	key := l.teamsKey(quizID)
	pipe := l.client.Pipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(team.ID, 10), raw)
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save team: %w", err)
	}
	return nil
}

func (l *UpdateLog) SaveAnswer(ctx context.Context, quizID string, answer domain.Answer) error {
	raw, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	key := l.answersKey(quizID)
	field := strconv.Itoa(answer.Question) + ":" + strconv.FormatInt(answer.TeamID, 10)
	pipe := l.client.Pipeline()
	pipe.HSet(ctx, key, field, raw)
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

func (l *UpdateLog) LoadTeams(ctx context.Context, quizID string) ([]domain.Team, error) {
	fields, err := l.client.HGetAll(ctx, l.teamsKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	teams := make([]domain.Team, 0, len(fields))
	for _, raw := range fields {
		var team domain.Team
		if err := json.Unmarshal([]byte(raw), &team); err != nil {
			return nil, fmt.Errorf("decode team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (l *UpdateLog) LoadAnswers(ctx context.Context, quizID string) ([]domain.Answer, error) {
	fields, err := l.client.HGetAll(ctx, l.answersKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	answers := make([]domain.Answer, 0, len(fields))
	for _, raw := range fields {
		var answer domain.Answer
		if err := json.Unmarshal([]byte(raw), &answer); err != nil {
			return nil, fmt.Errorf("decode answer: %w", err)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func (l *UpdateLog) teamsKey(quizID string) string {
	return "quiz:" + quizID + ":teams"
}

func (l *UpdateLog) answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}
