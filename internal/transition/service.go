// AngelaMos | 2026
// service.go

package transition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
)

// Records is the part of the record service a transition drives.
type Records interface {
	Get(ctx context.Context, id string) (*record.Record, error)
	Transition(
		ctx context.Context,
		actor record.Actor,
		id, target string,
		details record.BorrowDetails,
	) (*record.Record, error)
}

type Service struct {
	store   Store
	records Records
	ttl     time.Duration
	now     func() time.Time
}

func NewService(store Store, records Records, ttl time.Duration) *Service {
	return &Service{
		store:   store,
		records: records,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a pending action toward the opposite of the record's current
// status. Nothing is written to the record.
func (s *Service) Start(
	ctx context.Context,
	actor record.Actor,
	recordID string,
) (*Action, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &Action{
		ID:        core.NewID(),
		RecordID:  rec.ID,
		From:      rec.Status,
		Target:    opposite(rec.Status),
		UserID:    actor.ID,
		State:     Idle,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := a.Apply(EventStart); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(
	ctx context.Context,
	actor record.Actor,
	actionID string,
) (*Action, error) {
	return s.load(ctx, actor, actionID)
}

// Confirm records the user's intent; details may now be submitted.
func (s *Service) Confirm(
	ctx context.Context,
	actor record.Actor,
	actionID string,
) (*Action, error) {
	a, err := s.load(ctx, actor, actionID)
	if err != nil {
		return nil, err
	}
	if err := a.Apply(EventConfirm); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Submit performs the status change. It is refused unless the action was
// confirmed, and a borrow with missing details is rejected while the action
// stays open for correction. In both cases the record is untouched.
func (s *Service) Submit(
	ctx context.Context,
	actor record.Actor,
	actionID string,
	details record.BorrowDetails,
) (*record.Record, error) {
	a, err := s.load(ctx, actor, actionID)
	if err != nil {
		return nil, err
	}

	if _, err := Next(a.State, EventSubmit); err != nil {
		return nil, fmt.Errorf("submit transition: %w", err)
	}

	if a.Target == record.StatusBorrowed {
		if err := details.Validate(); err != nil {
			return nil, err
		}
	}

	rec, err := s.records.Transition(ctx, actor, a.RecordID, a.Target, details)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, a.ID); err != nil {
		slog.Warn("submitted transition not cleared",
			"action_id", a.ID,
			"error", err,
		)
	}
	return rec, nil
}

// Cancel discards the action from any open state.
func (s *Service) Cancel(
	ctx context.Context,
	actor record.Actor,
	actionID string,
) error {
	a, err := s.load(ctx, actor, actionID)
	if err != nil {
		return err
	}
	if err := a.Apply(EventCancel); err != nil {
		return err
	}
	return s.store.Delete(ctx, a.ID)
}

// load fetches an action owned by actor. Another user's action reads as
// missing.
func (s *Service) load(
	ctx context.Context,
	actor record.Actor,
	actionID string,
) (*Action, error) {
	if !core.ValidID(actionID) {
		return nil, fmt.Errorf("load transition: %w", core.ErrNotFound)
	}

	a, err := s.store.Get(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if a.UserID != actor.ID || !s.now().Before(a.ExpiresAt) {
		return nil, fmt.Errorf("load transition: %w", core.ErrNotFound)
	}
	return a, nil
}

func opposite(status string) string {
	if status == record.StatusBorrowed {
		return record.StatusArchived
	}
	return record.StatusBorrowed
}
