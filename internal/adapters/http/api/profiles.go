package api

import (
	"context"
	"net/http"

	"github.com/okian/sportiq/internal/domain/interest"
	"github.com/okian/sportiq/internal/domain/ranking"
)

// defaultRecommendations is the list size when ?limit is absent.
const defaultRecommendations = 10

// ProfileDependencies defines the interface for profile and recommendation
// reads.
type ProfileDependencies interface {
	Profile(ctx context.Context, userID string) (interest.Profile, []interest.Interest, error)
	ApplyDecay(ctx context.Context, userID string) (interest.DecayResult, error)
	Recommend(ctx context.Context, userID, currentID string, limit int) ([]ranking.Scored, error)
}

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

type profileResponse struct {
	Profile      interest.Profile    `json:"profile"`
	TopInterests []interest.Interest `json:"top_interests"`
}

type recommendationsResponse struct {
	UserID string           `json:"user_id"`
	Items  []ranking.Scored `json:"items"`
}

// HandleGetProfile handles GET /profiles/{user} requests.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	user, err := pathUser(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	p, top, err := h.deps.Profile(r.Context(), user)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: p, TopInterests: top})
}

// HandlePostDecay handles POST /profiles/{user}/decay requests.
func (h *ProfileHandler) HandlePostDecay(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_decay"
	user, err := pathUser(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.ApplyDecay(r.Context(), user)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetRecommendations handles GET /recommendations/{user}?limit&exclude
// requests. exclude names the item being read.
func (h *ProfileHandler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recommendations"
	user, err := pathUser(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	limit, err := queryInt(r, "limit", defaultRecommendations)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	items, err := h.deps.Recommend(r.Context(), user, r.URL.Query().Get("exclude"), limit)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{UserID: user, Items: items})
}
