// AngelaMos | 2026
// handler.go

package browser

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
)

type Handler struct {
	snapshot record.Snapshot
}

func NewHandler(snapshot record.Snapshot) *Handler {
	return &Handler{snapshot: snapshot}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/browser", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Tree)
		r.Get("/folders/{id}", h.Folder)
	})
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	core.OK(w, Tree(h.snapshot.Hierarchy(), h.snapshot.Records()))
}

func (h *Handler) Folder(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	view, ok := Folder(
		h.snapshot.Hierarchy(),
		h.snapshot.Records(),
		chi.URLParam(r, "id"),
	)
	if !ok {
		core.NotFound(w, "folder")
		return
	}
	core.OK(w, view)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.snapshot.Loading() {
		core.JSONError(w, core.NewAppError(
			nil,
			"locations are still loading",
			http.StatusServiceUnavailable,
			"LOADING",
		))
		return false
	}
	return true
}
