// AngelaMos | 2026
// stack.go

package record

import (
	"cmp"
	"fmt"
	"slices"
)

// ComputeStackNumbers returns the 1-based position of every archived record
// in folderID. Records are ordered by their current stack number when both
// sides have one, otherwise by date added, oldest first. The sort is stable
// so equal keys keep their input order.
func ComputeStackNumbers(records []Record, folderID string) map[string]int {
	archived := archivedIn(records, folderID)

	slices.SortStableFunc(archived, compareStack)

	positions := make(map[string]int, len(archived))
	for i, r := range archived {
		positions[r.ID] = i + 1
	}
	return positions
}

func compareStack(a, b Record) int {
	if a.StackNumber != nil && b.StackNumber != nil {
		if c := cmp.Compare(*a.StackNumber, *b.StackNumber); c != 0 {
			return c
		}
	}
	return a.DateAdded.Compare(b.DateAdded)
}

// PreviewStackNumber is the position a new archived record would take in
// folderID: one past the current archived count.
func PreviewStackNumber(records []Record, folderID string) int {
	n := 0
	for i := range records {
		if records[i].FolderID == folderID && records[i].IsArchived() {
			n++
		}
	}
	return n + 1
}

// Assignment is one stack_number write. A nil StackNumber clears the field.
type Assignment struct {
	ID          string
	StackNumber *int
}

// Renumber computes the writes that bring folderID back to a contiguous
// 1..k stack: archived records whose number differs from their computed
// position, and borrowed records still carrying a stale number.
func Renumber(records []Record, folderID string) []Assignment {
	positions := ComputeStackNumbers(records, folderID)

	var out []Assignment
	for i := range records {
		r := &records[i]
		if r.FolderID != folderID {
			continue
		}

		if r.IsArchived() {
			want := positions[r.ID]
			if r.StackNumber == nil || *r.StackNumber != want {
				out = append(out, Assignment{ID: r.ID, StackNumber: ptr(want)})
			}
			continue
		}

		if r.StackNumber != nil {
			out = append(out, Assignment{ID: r.ID})
		}
	}
	return out
}

// ApplyAssignments writes the assignments into records in place.
func ApplyAssignments(records []Record, assignments []Assignment) {
	byID := make(map[string]*int, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a.StackNumber
	}
	for i := range records {
		if n, ok := byID[records[i].ID]; ok {
			records[i].StackNumber = n
		}
	}
}

// CheckStack reports the first violation of the folder stack rules: archived
// numbers must be exactly 1..k and borrowed records must carry none.
func CheckStack(records []Record, folderID string) error {
	var seen []int
	for i := range records {
		r := &records[i]
		if r.FolderID != folderID {
			continue
		}
		if r.IsBorrowed() {
			if r.StackNumber != nil {
				return fmt.Errorf("record %s is borrowed but has stack number %d",
					r.ID, *r.StackNumber)
			}
			continue
		}
		if r.StackNumber == nil {
			return fmt.Errorf("record %s is archived without a stack number", r.ID)
		}
		seen = append(seen, *r.StackNumber)
	}

	slices.Sort(seen)
	for i, n := range seen {
		if n != i+1 {
			return fmt.Errorf("folder %s stack is not contiguous at position %d (found %d)",
				folderID, i+1, n)
		}
	}
	return nil
}

func archivedIn(records []Record, folderID string) []Record {
	out := make([]Record, 0)
	for i := range records {
		if records[i].FolderID == folderID && records[i].IsArchived() {
			out = append(out, records[i])
		}
	}
	return out
}
