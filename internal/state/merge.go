package state

import (
	"fmt"

	"quiz-admin-console/internal/domain"
)

// Apply merges one delta batch into the store. The batch is validated as
// a whole before anything is merged, so a malformed record rejects the
// entire batch and leaves the store untouched. Within a batch every
// record is an independent fact: order does not matter, and replaying the
// same batch is a no-op beyond overwriting records with equal values.
func (s *Store) Apply(batch domain.UpdateBatch) error {
	if err := validateBatch(batch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.Status != nil {
		s.putStatusLocked(*batch.Status)
	}
	for _, team := range batch.Teams {
		s.putTeamLocked(team)
	}
	for _, answer := range batch.Answers {
		s.putAnswerLocked(answer)
	}
	return nil
}

func validateBatch(batch domain.UpdateBatch) error {
	if status := batch.Status; status != nil && status.UpdateID <= 0 {
		return fmt.Errorf("%w: status update_id %d", domain.ErrMalformedUpdate, status.UpdateID)
	}
	for _, team := range batch.Teams {
		if team.UpdateID <= 0 || team.ID <= 0 {
			return fmt.Errorf("%w: team update_id=%d id=%d", domain.ErrMalformedUpdate, team.UpdateID, team.ID)
		}
	}
	for _, answer := range batch.Answers {
		if answer.UpdateID <= 0 || answer.Question <= 0 || answer.TeamID <= 0 {
			return fmt.Errorf("%w: answer update_id=%d question=%d team_id=%d",
				domain.ErrMalformedUpdate, answer.UpdateID, answer.Question, answer.TeamID)
		}
	}
	return nil
}
