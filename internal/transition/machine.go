// AngelaMos | 2026
// machine.go

package transition

import (
	"fmt"
	"time"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

// State is the step a pending borrow or return has reached.
type State string

const (
	Idle           State = "idle"
	Confirming     State = "confirming"
	EditingDetails State = "editing_details"
	Submitted      State = "submitted"
	Cancelled      State = "cancelled"
)

type Event string

const (
	EventStart   Event = "start"
	EventConfirm Event = "confirm"
	EventSubmit  Event = "submit"
	EventCancel  Event = "cancel"
)

// Terminal states accept no further events.
func (s State) Terminal() bool {
	return s == Submitted || s == Cancelled
}

// Next is the transition function of the confirm-then-act flow:
//
//	idle --start--> confirming --confirm--> editing_details --submit--> submitted
//
// cancel is accepted from every non-terminal state. Anything else is a
// conflict and leaves the state unchanged.
func Next(s State, e Event) (State, error) {
	if s.Terminal() {
		return s, fmt.Errorf("action already %s: %w", s, core.ErrConflict)
	}

	switch {
	case e == EventCancel:
		return Cancelled, nil
	case s == Idle && e == EventStart:
		return Confirming, nil
	case s == Confirming && e == EventConfirm:
		return EditingDetails, nil
	case s == EditingDetails && e == EventSubmit:
		return Submitted, nil
	}

	return s, fmt.Errorf("cannot %s while %s: %w", e, s, core.ErrConflict)
}

// Action is one pending status change owned by the user who started it.
type Action struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"record_id"`
	From      string    `json:"from"`
	Target    string    `json:"target"`
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Apply advances the action in place.
func (a *Action) Apply(e Event) error {
	next, err := Next(a.State, e)
	if err != nil {
		return err
	}
	a.State = next
	return nil
}
