package api

import (
	"context"
	"net/http"

	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/internal/domain/types"
)

// InteractionDependencies defines the interface for interaction ingestion.
type InteractionDependencies interface {
	// SubmitInteraction reports true when the event id was already seen.
	SubmitInteraction(ctx context.Context, in types.Submission) (bool, error)
	Signal(ctx context.Context, topic, userID string, md model.Metadata) error
}

// EventsHandler handles interaction and signal requests.
type EventsHandler struct {
	deps InteractionDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps InteractionDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type signalRequest struct {
	UserID   string         `json:"user_id"`
	Metadata model.Metadata `json:"metadata"`
}

// HandlePostInteraction handles POST /interactions requests.
func (h *EventsHandler) HandlePostInteraction(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_interaction"
	var req types.Submission
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	dup, err := h.deps.SubmitInteraction(r.Context(), req)
	if err != nil {
		fail(w, op, err)
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandlePostSignal handles POST /signals/{topic} requests.
func (h *EventsHandler) HandlePostSignal(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_signal"
	var req signalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.Signal(r.Context(), r.PathValue("topic"), req.UserID, req.Metadata); err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
