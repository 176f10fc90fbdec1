// AngelaMos | 2026
// dto.go

package location

type ShelfRequest struct {
	Code string `json:"code" validate:"required,min=1,max=32"`
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type CabinetRequest struct {
	ShelfID string `json:"shelf_id" validate:"required,uuid"`
	Code    string `json:"code"     validate:"required,min=1,max=32"`
	Name    string `json:"name"     validate:"required,min=1,max=100"`
}

type FolderRequest struct {
	CabinetID string `json:"cabinet_id" validate:"required,uuid"`
	Code      string `json:"code"       validate:"required,min=1,max=32"`
	Name      string `json:"name"       validate:"required,min=1,max=100"`
	Color     string `json:"color"      validate:"omitempty,hexcolor"`
}
