// AngelaMos | 2026
// browser.go

package browser

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
)

// FolderView is one opened folder: its path, the archived stack in order
// and the records currently out on loan.
type FolderView struct {
	Path     location.Path   `json:"path"`
	Counts   location.Counts `json:"counts"`
	Stack    []record.Record `json:"stack"`
	Borrowed []record.Record `json:"borrowed"`
}

// CountByFolder tallies records per folder and status.
func CountByFolder(records []record.Record) map[string]location.Counts {
	out := make(map[string]location.Counts)
	for i := range records {
		c := out[records[i].FolderID]
		if records[i].IsArchived() {
			c.Archived++
		} else {
			c.Borrowed++
		}
		out[records[i].FolderID] = c
	}
	return out
}

// Tree is the whole hierarchy with record counts.
func Tree(h location.Hierarchy, records []record.Record) []*location.ShelfNode {
	return location.BuildTree(h, CountByFolder(records))
}

// Folder builds the view of folderID. The stack is ordered by stack number;
// borrowed records follow, most recently borrowed first.
func Folder(h location.Hierarchy, records []record.Record, folderID string) (FolderView, bool) {
	path, ok := h.PathOf(folderID)
	if !ok {
		return FolderView{}, false
	}

	view := FolderView{
		Path:     path,
		Stack:    []record.Record{},
		Borrowed: []record.Record{},
	}
	for i := range records {
		r := records[i]
		if r.FolderID != folderID {
			continue
		}
		if r.IsArchived() {
			view.Stack = append(view.Stack, r)
			view.Counts.Archived++
		} else {
			view.Borrowed = append(view.Borrowed, r)
			view.Counts.Borrowed++
		}
	}

	slices.SortStableFunc(view.Stack, func(a, b record.Record) int {
		return cmp.Compare(stackOf(a), stackOf(b))
	})
	slices.SortStableFunc(view.Borrowed, func(a, b record.Record) int {
		return borrowedAt(b).Compare(borrowedAt(a))
	})

	return view, true
}

func stackOf(r record.Record) int {
	if r.StackNumber == nil {
		return math.MaxInt
	}
	return *r.StackNumber
}

func borrowedAt(r record.Record) time.Time {
	if r.BorrowedDate != nil {
		return *r.BorrowedDate
	}
	return r.DateAdded
}
