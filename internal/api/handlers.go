package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/league"
	"github.com/utakatalp/season-simulator/internal/simulation"
	"github.com/utakatalp/season-simulator/internal/store"
)

// Projector is the projection service as seen by the HTTP layer.
type Projector interface {
	Project(ctx context.Context, season int, params league.SimulationParams) (*store.SimulationRun, error)
	Run(ctx context.Context, id string) (*store.SimulationRun, error)
	MatchupOdds(ctx context.Context, season int, home, away league.TeamID, iterations int) (simulation.MatchupProjection, error)
	RecordScore(ctx context.Context, matchupID int, home, away float64, completed bool) error
}

type Handler struct {
	projector Projector
	logger    logrus.FieldLogger
}

// NewRouter registers every route on a fresh mux router.
func NewRouter(p Projector, logger logrus.FieldLogger) *mux.Router {
	h := &Handler{projector: p, logger: logger}

	r := mux.NewRouter()
	r.Use(RequestLogger(logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/seasons/{season:[0-9]+}/simulations", h.createSimulation).Methods(http.MethodPost)
	r.HandleFunc("/api/simulations/{id}", h.getSimulation).Methods(http.MethodGet)
	r.HandleFunc("/api/seasons/{season:[0-9]+}/matchups/odds", h.matchupOdds).Methods(http.MethodGet)
	r.HandleFunc("/api/matchups/{id:[0-9]+}/score", h.recordScore).Methods(http.MethodPut)
	return r
}

type scoreRequest struct {
	HomeScore *float64 `json:"home_score"`
	AwayScore *float64 `json:"away_score"`
	Completed bool     `json:"completed"`
}

type simulationRequest struct {
	Iterations       int  `json:"iterations"`
	StartWeek        int  `json:"start_week"`
	UseActualResults bool `json:"use_actual_results"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) createSimulation(w http.ResponseWriter, r *http.Request) {
	season, _ := strconv.Atoi(mux.Vars(r)["season"])

	req := simulationRequest{UseActualResults: true}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}

	run, err := h.projector.Project(r.Context(), season, league.SimulationParams{
		Iterations:       req.Iterations,
		StartWeek:        req.StartWeek,
		UseActualResults: req.UseActualResults,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (h *Handler) getSimulation(w http.ResponseWriter, r *http.Request) {
	run, err := h.projector.Run(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) matchupOdds(w http.ResponseWriter, r *http.Request) {
	season, _ := strconv.Atoi(mux.Vars(r)["season"])
	q := r.URL.Query()

	home, err := strconv.Atoi(q.Get("home"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "home must be a team id")
		return
	}
	away, err := strconv.Atoi(q.Get("away"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "away must be a team id")
		return
	}
	iterations := 0
	if raw := q.Get("iterations"); raw != "" {
		if iterations, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "iterations must be an integer")
			return
		}
	}

	odds, err := h.projector.MatchupOdds(r.Context(), season, league.TeamID(home), league.TeamID(away), iterations)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, odds)
}

func (h *Handler) recordScore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid matchup id")
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.HomeScore == nil || req.AwayScore == nil {
		writeError(w, http.StatusBadRequest, "home_score and away_score are required")
		return
	}

	if err := h.projector.RecordScore(r.Context(), id, *req.HomeScore, *req.AwayScore, req.Completed); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verrs simulation.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "details": verrs.Errors})
	case errors.Is(err, simulation.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "simulation timed out")
	default:
		h.logger.WithError(err).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
