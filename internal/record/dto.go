// AngelaMos | 2026
// dto.go

package record

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
)

type CreateRecordRequest struct {
	PRNumber     string     `json:"pr_number"     validate:"required,max=100"`
	Description  string     `json:"description"   validate:"required,max=1000"`
	ShelfID      string     `json:"shelf_id"      validate:"required,uuid"`
	CabinetID    string     `json:"cabinet_id"    validate:"required,uuid"`
	FolderID     string     `json:"folder_id"     validate:"required,uuid"`
	Status       string     `json:"status"        validate:"required,oneof=borrowed archived"`
	UrgencyLevel string     `json:"urgency_level" validate:"omitempty,oneof=low medium high critical"`
	DateAdded    *time.Time `json:"date_added,omitempty"`
	BorrowedBy   string     `json:"borrowed_by"   validate:"max=200"`
	Division     string     `json:"division"      validate:"max=200"`
	Tags         []string   `json:"tags"          validate:"max=20,dive,min=1,max=50"`
	Notes        *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateRecordRequest edits record details. Status is not editable here;
// borrow and return go through transitions. Location fields move together.
type UpdateRecordRequest struct {
	PRNumber     *string    `json:"pr_number,omitempty"     validate:"omitempty,min=1,max=100"`
	Description  *string    `json:"description,omitempty"   validate:"omitempty,min=1,max=1000"`
	ShelfID      *string    `json:"shelf_id,omitempty"      validate:"omitempty,uuid"`
	CabinetID    *string    `json:"cabinet_id,omitempty"    validate:"omitempty,uuid"`
	FolderID     *string    `json:"folder_id,omitempty"     validate:"omitempty,uuid"`
	UrgencyLevel *string    `json:"urgency_level,omitempty" validate:"omitempty,oneof=low medium high critical"`
	DateAdded    *time.Time `json:"date_added,omitempty"`
	BorrowedBy   *string    `json:"borrowed_by,omitempty"   validate:"omitempty,min=1,max=200"`
	Division     *string    `json:"division,omitempty"      validate:"omitempty,min=1,max=200"`
	Tags         *[]string  `json:"tags,omitempty"          validate:"omitempty,max=20,dive,min=1,max=50"`
	Notes        *string    `json:"notes,omitempty"         validate:"omitempty,max=2000"`
}

// BorrowDetails are required when a record moves to borrowed.
type BorrowDetails struct {
	BorrowedBy string `json:"borrowed_by" validate:"max=200"`
	Division   string `json:"division"    validate:"max=200"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,uuid"`
}

type BulkDeleteResult struct {
	Requested int `json:"requested"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

// PickerResponse is the cascading location picker state. StackPreview is
// set only once a folder is selected.
type PickerResponse struct {
	location.Options
	StackPreview *int `json:"stack_preview"`
}

// ListParams is the parsed query string of the list and export endpoints.
type ListParams struct {
	Filter   Filter
	Sort     Sort
	Page     int
	PageSize int
}

// ParseListParams reads filters, sort and paging from q. Unknown sort keys
// fall back to DefaultSort and page sizes are capped at maxPageSize. An
// unknown status is a validation error, since dropping it would widen the
// result to every status.
func ParseListParams(q url.Values, pageSize, maxPageSize int) (ListParams, error) {
	p := ListParams{
		Filter: Filter{
			Search:    strings.TrimSpace(q.Get("search")),
			ShelfID:   q.Get("shelf_id"),
			CabinetID: q.Get("cabinet_id"),
			FolderID:  q.Get("folder_id"),
			Urgency:   q.Get("urgency"),
			Tag:       strings.TrimSpace(q.Get("tag")),
		},
		Sort:     DefaultSort,
		Page:     intOr(q.Get("page"), 1),
		PageSize: intOr(q.Get("page_size"), pageSize),
	}

	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			switch s {
			case "":
			case StatusArchived, StatusBorrowed:
				p.Filter.Statuses = append(p.Filter.Statuses, s)
			default:
				return ListParams{}, core.ValidationError(fmt.Sprintf(
					"status must be %s or %s, got %q", StatusArchived, StatusBorrowed, s))
			}
		}
	}

	if key := SortKey(q.Get("sort")); key.Valid() {
		p.Sort.Key = key
		p.Sort.Dir = Asc
	}
	if SortDir(q.Get("dir")) == Desc {
		p.Sort.Dir = Desc
	}

	if p.PageSize < 1 {
		p.PageSize = pageSize
	}
	if maxPageSize > 0 && p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}

	return p, nil
}

func intOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
