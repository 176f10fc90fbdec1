// AngelaMos | 2026
// handler.go

package location

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts read endpoints for any authenticated user and write
// endpoints for admins.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/shelves", h.ListShelves)
		r.Get("/shelves/{id}", h.GetShelf)
		r.Get("/cabinets", h.ListCabinets)
		r.Get("/cabinets/{id}", h.GetCabinet)
		r.Get("/folders", h.ListFolders)
		r.Get("/folders/{id}", h.GetFolder)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Post("/shelves", h.CreateShelf)
			r.Put("/shelves/{id}", h.UpdateShelf)
			r.Delete("/shelves/{id}", h.DeleteShelf)
			r.Post("/cabinets", h.CreateCabinet)
			r.Put("/cabinets/{id}", h.UpdateCabinet)
			r.Delete("/cabinets/{id}", h.DeleteCabinet)
			r.Post("/folders", h.CreateFolder)
			r.Put("/folders/{id}", h.UpdateFolder)
			r.Delete("/folders/{id}", h.DeleteFolder)
		})
	})
}

func (h *Handler) ListShelves(w http.ResponseWriter, r *http.Request) {
	shelves, err := h.service.ListShelves(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, shelves)
}

func (h *Handler) GetShelf(w http.ResponseWriter, r *http.Request) {
	shelf, err := h.service.GetShelf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "shelf")
		return
	}
	core.OK(w, shelf)
}

func (h *Handler) CreateShelf(w http.ResponseWriter, r *http.Request) {
	var req ShelfRequest
	if !h.decode(w, r, &req) {
		return
	}

	shelf, err := h.service.CreateShelf(r.Context(), req)
	if err != nil {
		writeError(w, err, "shelf")
		return
	}
	core.Created(w, shelf)
}

func (h *Handler) UpdateShelf(w http.ResponseWriter, r *http.Request) {
	var req ShelfRequest
	if !h.decode(w, r, &req) {
		return
	}

	shelf, err := h.service.UpdateShelf(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err, "shelf")
		return
	}
	core.OK(w, shelf)
}

func (h *Handler) DeleteShelf(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteShelf(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "shelf")
		return
	}
	core.NoContent(w)
}

func (h *Handler) ListCabinets(w http.ResponseWriter, r *http.Request) {
	cabinets, err := h.service.ListCabinets(
		r.Context(),
		r.URL.Query().Get("shelf_id"),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, cabinets)
}

func (h *Handler) GetCabinet(w http.ResponseWriter, r *http.Request) {
	cabinet, err := h.service.GetCabinet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "cabinet")
		return
	}
	core.OK(w, cabinet)
}

func (h *Handler) CreateCabinet(w http.ResponseWriter, r *http.Request) {
	var req CabinetRequest
	if !h.decode(w, r, &req) {
		return
	}

	cabinet, err := h.service.CreateCabinet(r.Context(), req)
	if err != nil {
		writeError(w, err, "cabinet")
		return
	}
	core.Created(w, cabinet)
}

func (h *Handler) UpdateCabinet(w http.ResponseWriter, r *http.Request) {
	var req CabinetRequest
	if !h.decode(w, r, &req) {
		return
	}

	cabinet, err := h.service.UpdateCabinet(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err, "cabinet")
		return
	}
	core.OK(w, cabinet)
}

func (h *Handler) DeleteCabinet(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCabinet(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "cabinet")
		return
	}
	core.NoContent(w)
}

func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.service.ListFolders(
		r.Context(),
		r.URL.Query().Get("cabinet_id"),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, folders)
}

func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.service.GetFolder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "folder")
		return
	}
	core.OK(w, folder)
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !h.decode(w, r, &req) {
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), req)
	if err != nil {
		writeError(w, err, "folder")
		return
	}
	core.Created(w, folder)
}

func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !h.decode(w, r, &req) {
		return
	}

	folder, err := h.service.UpdateFolder(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err, "folder")
		return
	}
	core.OK(w, folder)
}

func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "folder")
		return
	}
	core.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, resource)
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.DuplicateError(resource+" code"))
	case errors.Is(err, core.ErrConflict):
		core.Conflict(w, resource+" is still referenced and cannot be changed")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
