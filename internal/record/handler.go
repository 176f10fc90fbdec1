// AngelaMos | 2026
// handler.go

package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
	"github.com/useSafe/File-Allocation-System-2.0/internal/middleware"
)

// Snapshot serves list, picker and export reads without touching the
// database.
type Snapshot interface {
	Loading() bool
	Records() []Record
	Hierarchy() location.Hierarchy
}

type Handler struct {
	service     *Service
	snapshot    Snapshot
	validator   *validator.Validate
	pageSize    int
	maxPageSize int
}

func NewHandler(
	service *Service,
	snapshot Snapshot,
	pageSize, maxPageSize int,
) *Handler {
	return &Handler{
		service:     service,
		snapshot:    snapshot,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// RegisterRoutes mounts record endpoints. exportLimit guards the CSV export,
// which walks the whole collection.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly, exportLimit func(http.Handler) http.Handler,
) {
	r.Route("/records", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/picker", h.Picker)
		r.With(exportLimit).Get("/export", h.Export)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Delete("/{id}", h.Delete)
			r.Post("/bulk-delete", h.BulkDelete)
			r.Post("/renumber", h.Renumber)
		})
	})
}

// List filters, sorts and pages the live snapshot.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	p, err := ParseListParams(r.URL.Query(), h.pageSize, h.maxPageSize)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	page := Query(h.snapshot.Records(), p.Filter, p.Sort, p.Page, p.PageSize)

	core.Paginated(w, page.Items, page.Page, page.PageSize, page.Total)
}

// Picker resolves the cascading shelf → cabinet → folder selection.
func (h *Handler) Picker(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	q := r.URL.Query()
	opts := location.Resolve(h.snapshot.Hierarchy(), location.Selection{
		ShelfID:   q.Get("shelf_id"),
		CabinetID: q.Get("cabinet_id"),
		FolderID:  q.Get("folder_id"),
	})

	resp := PickerResponse{Options: opts}
	if folderID := opts.Selection.FolderID; folderID != "" {
		resp.StackPreview = ptr(PreviewStackNumber(h.snapshot.Records(), folderID))
	}

	core.OK(w, resp)
}

// Export streams the filtered, sorted list as CSV without pagination.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	p, err := ParseListParams(r.URL.Query(), h.pageSize, h.maxPageSize)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	records := Select(h.snapshot.Records(), p.Filter, p.Sort)

	filename := fmt.Sprintf("records-%s.csv", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	if err := WriteCSV(w, records, h.snapshot.Hierarchy()); err != nil {
		slog.Warn("record export interrupted",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, rec)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.service.Create(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	core.Created(w, rec)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.service.Update(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, rec)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	core.NoContent(w)
}

func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, result)
}

// Renumber repairs one folder (folder_id query parameter) or every folder.
func (h *Handler) Renumber(w http.ResponseWriter, r *http.Request) {
	if folderID := r.URL.Query().Get("folder_id"); folderID != "" {
		n, err := h.service.RenumberFolder(r.Context(), folderID)
		if err != nil {
			writeError(w, err)
			return
		}
		core.OK(w, map[string]int{folderID: n})
		return
	}

	changed, err := h.service.RenumberAll(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, changed)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.snapshot.Loading() {
		core.JSONError(w, core.NewAppError(
			nil,
			"records are still loading",
			http.StatusServiceUnavailable,
			"LOADING",
		))
		return false
	}
	return true
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

func actorFrom(r *http.Request) Actor {
	return Actor{
		ID:   middleware.GetUserID(r.Context()),
		Name: middleware.GetUserName(r.Context()),
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *core.AppError
	switch {
	case errors.As(err, &appErr):
		core.JSONError(w, appErr)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "record")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrConflict):
		core.Conflict(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
