// AngelaMos | 2026
// entity.go

package location

import (
	"time"
)

// Shelf is the top tier of the storage hierarchy.
type Shelf struct {
	ID        string    `db:"id"         json:"id"`
	Code      string    `db:"code"       json:"code"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Cabinet sits inside exactly one Shelf.
type Cabinet struct {
	ID        string    `db:"id"         json:"id"`
	ShelfID   string    `db:"shelf_id"   json:"shelf_id"`
	Code      string    `db:"code"       json:"code"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Folder sits inside exactly one Cabinet and holds records.
type Folder struct {
	ID        string    `db:"id"         json:"id"`
	CabinetID string    `db:"cabinet_id" json:"cabinet_id"`
	Code      string    `db:"code"       json:"code"`
	Name      string    `db:"name"       json:"name"`
	Color     string    `db:"color"      json:"color"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const DefaultFolderColor = "#3b82f6"

// Path is a fully resolved shelf → cabinet → folder chain.
type Path struct {
	Shelf   Shelf   `json:"shelf"`
	Cabinet Cabinet `json:"cabinet"`
	Folder  Folder  `json:"folder"`
}

func (p Path) String() string {
	return p.Shelf.Name + " / " + p.Cabinet.Name + " / " + p.Folder.Name
}
