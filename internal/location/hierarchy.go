// AngelaMos | 2026
// hierarchy.go

package location

import (
	"fmt"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

// Hierarchy is an in-memory view of the three location collections.
type Hierarchy struct {
	Shelves  []Shelf
	Cabinets []Cabinet
	Folders  []Folder
}

// CabinetsOf returns the cabinets whose parent is shelfID, in input order.
func CabinetsOf(cabinets []Cabinet, shelfID string) []Cabinet {
	out := make([]Cabinet, 0)
	if shelfID == "" {
		return out
	}
	for _, c := range cabinets {
		if c.ShelfID == shelfID {
			out = append(out, c)
		}
	}
	return out
}

// FoldersOf returns the folders whose parent is cabinetID, in input order.
func FoldersOf(folders []Folder, cabinetID string) []Folder {
	out := make([]Folder, 0)
	if cabinetID == "" {
		return out
	}
	for _, f := range folders {
		if f.CabinetID == cabinetID {
			out = append(out, f)
		}
	}
	return out
}

func (h Hierarchy) Shelf(id string) (Shelf, bool) {
	for _, s := range h.Shelves {
		if s.ID == id {
			return s, true
		}
	}
	return Shelf{}, false
}

func (h Hierarchy) Cabinet(id string) (Cabinet, bool) {
	for _, c := range h.Cabinets {
		if c.ID == id {
			return c, true
		}
	}
	return Cabinet{}, false
}

func (h Hierarchy) Folder(id string) (Folder, bool) {
	for _, f := range h.Folders {
		if f.ID == id {
			return f, true
		}
	}
	return Folder{}, false
}

// PathOf walks up from a folder to its shelf. ok is false when any link is
// missing.
func (h Hierarchy) PathOf(folderID string) (Path, bool) {
	folder, ok := h.Folder(folderID)
	if !ok {
		return Path{}, false
	}
	cabinet, ok := h.Cabinet(folder.CabinetID)
	if !ok {
		return Path{}, false
	}
	shelf, ok := h.Shelf(cabinet.ShelfID)
	if !ok {
		return Path{}, false
	}
	return Path{Shelf: shelf, Cabinet: cabinet, Folder: folder}, true
}

// CheckPath verifies that the three ids form a single branch of the tree.
func (h Hierarchy) CheckPath(shelfID, cabinetID, folderID string) error {
	path, ok := h.PathOf(folderID)
	if !ok {
		return fmt.Errorf("folder %q: %w", folderID, core.ErrNotFound)
	}
	if path.Cabinet.ID != cabinetID || path.Shelf.ID != shelfID {
		return fmt.Errorf(
			"folder %q is not inside cabinet %q on shelf %q: %w",
			folderID, cabinetID, shelfID, core.ErrInvalidInput,
		)
	}
	return nil
}

// Selection is the cascading picker state.
type Selection struct {
	ShelfID   string `json:"shelf_id"`
	CabinetID string `json:"cabinet_id"`
	FolderID  string `json:"folder_id"`
}

// SelectShelf picks a shelf and clears the cabinet and folder.
func (s Selection) SelectShelf(id string) Selection {
	return Selection{ShelfID: id}
}

// SelectCabinet picks a cabinet and clears the folder.
func (s Selection) SelectCabinet(id string) Selection {
	return Selection{ShelfID: s.ShelfID, CabinetID: id}
}

func (s Selection) SelectFolder(id string) Selection {
	s.FolderID = id
	return s
}

// Options is what the picker may offer for a given selection.
type Options struct {
	Selection Selection `json:"selection"`
	Shelves   []Shelf   `json:"shelves"`
	Cabinets  []Cabinet `json:"cabinets"`
	Folders   []Folder  `json:"folders"`
}

// Resolve normalizes sel against h and returns the valid choices at every
// tier. A lower-tier id that does not belong to its selected parent (or a
// missing parent) is reset to empty, together with everything below it.
func Resolve(h Hierarchy, sel Selection) Options {
	norm := Selection{}

	if _, ok := h.Shelf(sel.ShelfID); ok {
		norm = norm.SelectShelf(sel.ShelfID)

		if c, ok := h.Cabinet(sel.CabinetID); ok && c.ShelfID == norm.ShelfID {
			norm = norm.SelectCabinet(sel.CabinetID)

			if f, ok := h.Folder(sel.FolderID); ok && f.CabinetID == norm.CabinetID {
				norm = norm.SelectFolder(sel.FolderID)
			}
		}
	}

	shelves := make([]Shelf, len(h.Shelves))
	copy(shelves, h.Shelves)

	return Options{
		Selection: norm,
		Shelves:   shelves,
		Cabinets:  CabinetsOf(h.Cabinets, norm.ShelfID),
		Folders:   FoldersOf(h.Folders, norm.CabinetID),
	}
}
