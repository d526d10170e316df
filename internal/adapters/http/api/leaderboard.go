package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/sportiq/internal/adapters/repository"
)

// LeaderboardDependencies reads and patches the ranked boards.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, board repository.Board, n int) ([]repository.Entry, error)
	UpsertEntry(ctx context.Context, board repository.Board, patch repository.EntryPatch) (repository.Entry, error)
	Rank(ctx context.Context, userID string) (repository.Entry, error)
}

// LeaderboardHandler serves /leaderboard and /rank.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// upsertRequest carries only the fields to overwrite; absent fields keep
// their stored value.
type upsertRequest struct {
	Board       repository.Board `json:"board"`
	UserID      string           `json:"user_id"`
	DisplayName *string          `json:"display_name"`
	Score       *float64         `json:"score"`
	LastActive  *time.Time       `json:"last_active"`
}

type leaderboardResponse struct {
	Board   repository.Board   `json:"board"`
	Entries []repository.Entry `json:"entries"`
}

// HandleGetLeaderboard handles GET /leaderboard?board&limit requests.
// board defaults to all_time; limit 0 or absent means the configured
// maximum.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	board := boardParam(r.URL.Query().Get("board"))
	n, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.TopN(r.Context(), board, n)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Board: board, Entries: entries})
}

// HandlePostEntry handles POST /leaderboard requests.
func (h *LeaderboardHandler) HandlePostEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_leaderboard"
	var req upsertRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entry, err := h.deps.UpsertEntry(r.Context(), boardParam(string(req.Board)), repository.EntryPatch{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Score:       req.Score,
		LastActive:  req.LastActive,
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleGetRank answers GET /rank/{user} from the all-time board. A fan who
// never scored is a 404, not rank zero.
func (h *LeaderboardHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	user, err := pathUser(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entry, err := h.deps.Rank(r.Context(), user)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func boardParam(raw string) repository.Board {
	if raw == "" {
		return repository.BoardAllTime
	}
	return repository.Board(raw)
}
