package api

import (
	"context"
	"net/http"

	"github.com/okian/sportiq/internal/domain/gamification"
)

// GamificationDependencies defines the interface for XP and badge
// operations.
type GamificationDependencies interface {
	GainXP(ctx context.Context, userID string, amount float64) (gamification.Outcome, error)
	RecordAchievement(ctx context.Context, userID, action string) (gamification.Outcome, error)
	Gamification(ctx context.Context, userID string) (gamification.State, gamification.Progress, error)
	Badges() []gamification.Badge
}

// GamificationHandler handles gamification requests.
type GamificationHandler struct {
	deps GamificationDependencies
}

// NewGamificationHandler creates a new gamification handler.
func NewGamificationHandler(deps GamificationDependencies) *GamificationHandler {
	return &GamificationHandler{deps: deps}
}

type xpRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

type achievementRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

type stateResponse struct {
	State    gamification.State    `json:"state"`
	Progress gamification.Progress `json:"progress"`
	Badges   []gamification.Badge  `json:"badges"`
}

// HandlePostXP handles POST /xp requests.
func (h *GamificationHandler) HandlePostXP(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_xp"
	var req xpRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.GainXP(r.Context(), req.UserID, req.Amount)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePostAchievement handles POST /achievements requests.
func (h *GamificationHandler) HandlePostAchievement(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_achievement"
	var req achievementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.RecordAchievement(r.Context(), req.UserID, req.Action)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetState handles GET /gamification/{user} requests.
func (h *GamificationHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_gamification"
	user, err := pathUser(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	st, prog, err := h.deps.Gamification(r.Context(), user)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: st, Progress: prog, Badges: h.deps.Badges()})
}
