// AngelaMos | 2026
// entity.go

package record

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	StatusBorrowed = "borrowed"
	StatusArchived = "archived"
)

const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

type Record struct {
	ID            string     `db:"id"              json:"id"`
	PRNumber      string     `db:"pr_number"       json:"pr_number"`
	Description   string     `db:"description"     json:"description"`
	ShelfID       string     `db:"shelf_id"        json:"shelf_id"`
	CabinetID     string     `db:"cabinet_id"      json:"cabinet_id"`
	FolderID      string     `db:"folder_id"       json:"folder_id"`
	Status        string     `db:"status"          json:"status"`
	UrgencyLevel  string     `db:"urgency_level"   json:"urgency_level"`
	DateAdded     time.Time  `db:"date_added"      json:"date_added"`
	StackNumber   *int       `db:"stack_number"    json:"stack_number,omitempty"`
	BorrowedBy    *string    `db:"borrowed_by"     json:"borrowed_by,omitempty"`
	Division      *string    `db:"division"        json:"division,omitempty"`
	BorrowedDate  *time.Time `db:"borrowed_date"   json:"borrowed_date,omitempty"`
	ReturnDate    *time.Time `db:"return_date"     json:"return_date,omitempty"`
	CreatedBy     string     `db:"created_by"      json:"created_by"`
	CreatedByName string     `db:"created_by_name" json:"created_by_name"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
	EditedBy      *string    `db:"edited_by"       json:"edited_by,omitempty"`
	EditedByName  *string    `db:"edited_by_name"  json:"edited_by_name,omitempty"`
	LastEditedAt  *time.Time `db:"last_edited_at"  json:"last_edited_at,omitempty"`
	Tags          Tags       `db:"tags"            json:"tags"`
	Notes         *string    `db:"notes"           json:"notes,omitempty"`
}

func (r *Record) IsArchived() bool {
	return r.Status == StatusArchived
}

func (r *Record) IsBorrowed() bool {
	return r.Status == StatusBorrowed
}

// Tags is stored as a JSONB array.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}

// Actor identifies the user performing a write.
type Actor struct {
	ID   string
	Name string
}

func ptr[T any](v T) *T {
	return &v
}
