// AngelaMos | 2026
// handler.go

package transition

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/middleware"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
)

type StartRequest struct {
	RecordID string `json:"record_id" validate:"required,uuid"`
}

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/transitions", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Start)
		r.Get("/{actionID}", h.Get)
		r.Post("/{actionID}/confirm", h.Confirm)
		r.Post("/{actionID}/submit", h.Submit)
		r.Delete("/{actionID}", h.Cancel)
	})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	action, err := h.service.Start(r.Context(), actorFrom(r), req.RecordID)
	if err != nil {
		writeError(w, err, "record")
		return
	}
	core.Created(w, action)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	action, err := h.service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "actionID"))
	if err != nil {
		writeError(w, err, "transition")
		return
	}
	core.OK(w, action)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	action, err := h.service.Confirm(r.Context(), actorFrom(r), chi.URLParam(r, "actionID"))
	if err != nil {
		writeError(w, err, "transition")
		return
	}
	core.OK(w, action)
}

// Submit accepts an empty body for returns; borrows carry borrower details.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var details record.BorrowDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(details); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rec, err := h.service.Submit(
		r.Context(),
		actorFrom(r),
		chi.URLParam(r, "actionID"),
		details,
	)
	if err != nil {
		writeError(w, err, "transition")
		return
	}
	core.OK(w, rec)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), actorFrom(r), chi.URLParam(r, "actionID")); err != nil {
		writeError(w, err, "transition")
		return
	}
	core.NoContent(w)
}

func actorFrom(r *http.Request) record.Actor {
	return record.Actor{
		ID:   middleware.GetUserID(r.Context()),
		Name: middleware.GetUserName(r.Context()),
	}
}

func writeError(w http.ResponseWriter, err error, resource string) {
	var appErr *core.AppError
	switch {
	case errors.As(err, &appErr):
		core.JSONError(w, appErr)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, resource)
	case errors.Is(err, core.ErrConflict):
		core.Conflict(w, err.Error())
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
