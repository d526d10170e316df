// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies is everything the handlers call; *service.Service satisfies it.
type Dependencies interface {
	InteractionDependencies
	ProfileDependencies
	ContentDependencies
	GamificationDependencies
	LeaderboardDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	eventsHandler       *EventsHandler
	profileHandler      *ProfileHandler
	contentHandler      *ContentHandler
	gamificationHandler *GamificationHandler
	leaderboardHandler  *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(deps),
		eventsHandler:       NewEventsHandler(deps),
		profileHandler:      NewProfileHandler(deps),
		contentHandler:      NewContentHandler(deps),
		gamificationHandler: NewGamificationHandler(deps),
		leaderboardHandler:  NewLeaderboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.healthHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /interactions", MetricsMiddleware(s.eventsHandler.HandlePostInteraction, "interactions"))
	mux.HandleFunc("POST /signals/{topic}", MetricsMiddleware(s.eventsHandler.HandlePostSignal, "signals"))

	mux.HandleFunc("GET /profiles/{user}", MetricsMiddleware(s.profileHandler.HandleGetProfile, "profiles"))
	mux.HandleFunc("POST /profiles/{user}/decay", MetricsMiddleware(s.profileHandler.HandlePostDecay, "decay"))
	mux.HandleFunc("GET /recommendations/{user}", MetricsMiddleware(s.profileHandler.HandleGetRecommendations, "recommendations"))

	mux.HandleFunc("POST /content", MetricsMiddleware(s.contentHandler.HandlePostContent, "content"))
	mux.HandleFunc("GET /content", MetricsMiddleware(s.contentHandler.HandleListContent, "content"))
	mux.HandleFunc("GET /content/{id}", MetricsMiddleware(s.contentHandler.HandleGetContent, "content"))
	mux.HandleFunc("DELETE /content/{id}", MetricsMiddleware(s.contentHandler.HandleDeleteContent, "content"))

	mux.HandleFunc("POST /xp", MetricsMiddleware(s.gamificationHandler.HandlePostXP, "xp"))
	mux.HandleFunc("POST /achievements", MetricsMiddleware(s.gamificationHandler.HandlePostAchievement, "achievements"))
	mux.HandleFunc("GET /gamification/{user}", MetricsMiddleware(s.gamificationHandler.HandleGetState, "gamification"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("POST /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandlePostEntry, "leaderboard"))
	mux.HandleFunc("GET /rank/{user}", MetricsMiddleware(s.leaderboardHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to.
func fail(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

// decode reads a single JSON object from the request body.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}

// pathUser returns the {user} path value.
func pathUser(r *http.Request) (string, error) {
	user := strings.TrimSpace(r.PathValue("user"))
	if user == "" {
		return "", errors.New("missing user")
	}
	return user, nil
}

// queryInt parses an optional non-negative integer parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}
