// AngelaMos | 2026
// tree.go

package location

// Counts is the number of records per status held in one node.
type Counts struct {
	Archived int `json:"archived"`
	Borrowed int `json:"borrowed"`
}

func (c Counts) Total() int {
	return c.Archived + c.Borrowed
}

func (c *Counts) add(o Counts) {
	c.Archived += o.Archived
	c.Borrowed += o.Borrowed
}

type ShelfNode struct {
	ID       string         `json:"id"`
	Code     string         `json:"code"`
	Name     string         `json:"name"`
	Counts   Counts         `json:"counts"`
	Cabinets []*CabinetNode `json:"cabinets"`
}

type CabinetNode struct {
	ID      string        `json:"id"`
	Code    string        `json:"code"`
	Name    string        `json:"name"`
	Counts  Counts        `json:"counts"`
	Folders []*FolderNode `json:"folders"`
}

type FolderNode struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Counts Counts `json:"counts"`
}

// BuildTree nests h into shelf → cabinet → folder nodes, rolling the
// per-folder counts up to cabinets and shelves. Orphans (a cabinet whose
// shelf is gone, a folder whose cabinet is gone) are left out.
func BuildTree(h Hierarchy, folderCounts map[string]Counts) []*ShelfNode {
	shelves := make([]*ShelfNode, 0, len(h.Shelves))
	shelfByID := make(map[string]*ShelfNode, len(h.Shelves))
	for _, s := range h.Shelves {
		node := &ShelfNode{
			ID:       s.ID,
			Code:     s.Code,
			Name:     s.Name,
			Cabinets: []*CabinetNode{},
		}
		shelves = append(shelves, node)
		shelfByID[s.ID] = node
	}

	cabinetByID := make(map[string]*CabinetNode, len(h.Cabinets))
	cabinetShelf := make(map[string]*ShelfNode, len(h.Cabinets))
	for _, c := range h.Cabinets {
		parent, ok := shelfByID[c.ShelfID]
		if !ok {
			continue
		}
		node := &CabinetNode{
			ID:      c.ID,
			Code:    c.Code,
			Name:    c.Name,
			Folders: []*FolderNode{},
		}
		parent.Cabinets = append(parent.Cabinets, node)
		cabinetByID[c.ID] = node
		cabinetShelf[c.ID] = parent
	}

	for _, f := range h.Folders {
		parent, ok := cabinetByID[f.CabinetID]
		if !ok {
			continue
		}
		counts := folderCounts[f.ID]
		parent.Folders = append(parent.Folders, &FolderNode{
			ID:     f.ID,
			Code:   f.Code,
			Name:   f.Name,
			Color:  f.Color,
			Counts: counts,
		})
		parent.Counts.add(counts)
		cabinetShelf[f.CabinetID].Counts.add(counts)
	}

	return shelves
}
