package api

import (
	"context"
	"net/http"

	"github.com/okian/sportiq/internal/domain/model"
)

// ContentDependencies defines the interface for catalog operations.
type ContentDependencies interface {
	AddContent(ctx context.Context, item model.ContentItem) (model.ContentItem, error)
	Content(ctx context.Context) []model.ContentItem
	ContentItem(ctx context.Context, id string) (model.ContentItem, error)
	RemoveContent(ctx context.Context, id string) error
}

// ContentHandler handles catalog requests.
type ContentHandler struct {
	deps ContentDependencies
}

// NewContentHandler creates a new content handler.
func NewContentHandler(deps ContentDependencies) *ContentHandler {
	return &ContentHandler{deps: deps}
}

// HandlePostContent handles POST /content requests. The item is published
// as content:new and reaches the catalog through the bus.
func (h *ContentHandler) HandlePostContent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_content"
	var item model.ContentItem
	if err := decode(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	item, err := h.deps.AddContent(r.Context(), item)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, item)
}

// HandleListContent handles GET /content requests.
func (h *ContentHandler) HandleListContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Content(r.Context()))
}

// HandleGetContent handles GET /content/{id} requests.
func (h *ContentHandler) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	item, err := h.deps.ContentItem(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, "api.get_content", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleDeleteContent handles DELETE /content/{id} requests.
func (h *ContentHandler) HandleDeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RemoveContent(r.Context(), r.PathValue("id")); err != nil {
		fail(w, "api.delete_content", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
