// AngelaMos | 2026
// query.go

package record

import (
	"cmp"
	"slices"
	"strings"
)

type SortKey string

const (
	SortDescription SortKey = "description"
	SortPRNumber    SortKey = "pr_number"
	SortDateAdded   SortKey = "date_added"
	SortStackNumber SortKey = "stack_number"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortDescription, SortPRNumber, SortDateAdded, SortStackNumber:
		return true
	}
	return false
}

// Filter criteria are AND-combined; zero values disable a criterion. An
// empty Statuses set lets every status through.
type Filter struct {
	Search    string
	ShelfID   string
	CabinetID string
	FolderID  string
	Statuses  []string
	Urgency   string
	Tag       string
}

type Sort struct {
	Key SortKey
	Dir SortDir
}

// DefaultSort lists newest records first.
var DefaultSort = Sort{Key: SortDateAdded, Dir: Asc}

type Page struct {
	Items      []Record `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}

func (f Filter) Match(r *Record) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.PRNumber), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}
	if f.ShelfID != "" && r.ShelfID != f.ShelfID {
		return false
	}
	if f.CabinetID != "" && r.CabinetID != f.CabinetID {
		return false
	}
	if f.FolderID != "" && r.FolderID != f.FolderID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if f.Urgency != "" && r.UrgencyLevel != f.Urgency {
		return false
	}
	if f.Tag != "" && !slices.ContainsFunc(r.Tags, func(t string) bool {
		return strings.EqualFold(t, f.Tag)
	}) {
		return false
	}
	return true
}

// Select filters and sorts a copy of records; the input is never modified.
func Select(records []Record, f Filter, s Sort) []Record {
	out := make([]Record, 0, len(records))
	for i := range records {
		if f.Match(&records[i]) {
			out = append(out, records[i])
		}
	}

	slices.SortStableFunc(out, comparator(s))
	return out
}

// comparator orders records for s. For SortDateAdded the ascending
// direction means newest first. Records without a stack number always sort
// after numbered ones under SortStackNumber.
func comparator(s Sort) func(a, b Record) int {
	sign := 1
	if s.Dir == Desc {
		sign = -1
	}

	switch s.Key {
	case SortDescription:
		return func(a, b Record) int {
			return sign * compareText(a.Description, b.Description)
		}
	case SortPRNumber:
		return func(a, b Record) int {
			return sign * compareText(a.PRNumber, b.PRNumber)
		}
	case SortStackNumber:
		return func(a, b Record) int {
			switch {
			case a.StackNumber == nil && b.StackNumber == nil:
				return 0
			case a.StackNumber == nil:
				return 1
			case b.StackNumber == nil:
				return -1
			}
			return sign * cmp.Compare(*a.StackNumber, *b.StackNumber)
		}
	default:
		return func(a, b Record) int {
			return sign * b.DateAdded.Compare(a.DateAdded)
		}
	}
}

func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Paginate slices records into one page. size < 1 falls back to
// defaultSize; page < 1 becomes 1 and a page past the end clamps to the last
// page.
func Paginate(records []Record, page, size int) Page {
	if size < 1 {
		size = defaultPageSize
	}

	total := len(records)
	totalPages := (total + size - 1) / size

	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	if totalPages == 0 {
		page = 1
	}

	start := min((page-1)*size, total)
	end := min(start+size, total)

	items := make([]Record, end-start)
	copy(items, records[start:end])

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}

// Query is the list-view pipeline: filter, sort, paginate.
func Query(records []Record, f Filter, s Sort, page, size int) Page {
	return Paginate(Select(records, f, s), page, size)
}

const defaultPageSize = 10
