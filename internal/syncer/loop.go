package syncer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"quiz-admin-console/internal/domain"
	"quiz-admin-console/internal/state"
)

const (
	// DefaultPollTimeout is the server-side long-poll budget per request.
	DefaultPollTimeout = 30 * time.Second
	// DefaultBackoff is the pause after a failed poll.
	DefaultBackoff = time.Second
	// DefaultFailureBudget is the number of consecutive failures after
	// which the loop stops for good.
	DefaultFailureBudget = 60
)

// ErrGaveUp is returned when the failure budget is exhausted. It is the
// only fatal condition in the engine and must reach the operator.
var ErrGaveUp = errors.New("stopped syncing: retry budget exhausted")

// UpdateSource is the slice of the command channel the loop needs.
type UpdateSource interface {
	GetUpdates(ctx context.Context, minStatusID, minTeamsID, minAnswersID int64, timeoutSeconds int) (domain.UpdateBatch, error)
}

// Renderer is told to redraw after each successfully merged batch.
type Renderer interface {
	Redraw(store *state.Store)
}

// Config tunes the loop; zero values fall back to the defaults above.
type Config struct {
	PollTimeout   time.Duration
	Backoff       time.Duration
	FailureBudget int
}

// Loop drives the delta merger: it repeatedly asks the source for
// everything newer than the store's watermarks and merges the result.
// One request is outstanding at a time, which serializes all mutation of
// the store.
type Loop struct {
	source        UpdateSource
	store         *state.Store
	renderer      Renderer
	clock         clockwork.Clock
	pollTimeout   time.Duration
	backoff       time.Duration
	failureBudget int
}

// New builds a loop on the real clock.
func New(source UpdateSource, store *state.Store, renderer Renderer, cfg Config) *Loop {
	return NewWithClock(source, store, renderer, cfg, clockwork.NewRealClock())
}

// NewWithClock allows tests to drive the backoff timer deterministically.
func NewWithClock(source UpdateSource, store *state.Store, renderer Renderer, cfg Config, clock clockwork.Clock) *Loop {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.FailureBudget <= 0 {
		cfg.FailureBudget = DefaultFailureBudget
	}
	return &Loop{
		source:        source,
		store:         store,
		renderer:      renderer,
		clock:         clock,
		pollTimeout:   cfg.PollTimeout,
		backoff:       cfg.Backoff,
		failureBudget: cfg.FailureBudget,
	}
}

// Run polls until the context is canceled or the failure budget is
// exhausted, in which case it returns ErrGaveUp. Transient failures back
// off and retry without advancing any watermark; an empty batch is a
// normal long-poll timeout, not a failure.
func (l *Loop) Run(ctx context.Context) error {
	failedAttempts := 0
	for failedAttempts < l.failureBudget {
		if err := ctx.Err(); err != nil {
			return err
		}

		statusWM, teamsWM, answersWM := l.store.Watermarks()
		timeoutSeconds := int(l.pollTimeout / time.Second)
		batch, err := l.source.GetUpdates(ctx, statusWM+1, teamsWM+1, answersWM+1, timeoutSeconds)
		if err == nil {
			// A malformed batch must not be partially merged; Apply
			// rejects it whole and we treat it like a transport failure.
			err = l.store.Apply(batch)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			failedAttempts++
			log.Printf("could not get updates (attempt %d/%d): %v", failedAttempts, l.failureBudget, err)
			select {
			case <-l.clock.After(l.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		failedAttempts = 0
		if l.renderer != nil {
			l.renderer.Redraw(l.store)
		}
		// No artificial delay on success: the long-poll budget paces us.
	}

	log.Printf("gave up after %d failed attempts", failedAttempts)
	return ErrGaveUp
}
