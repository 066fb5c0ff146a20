package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chargewise/charge-finder/internal/analytics"
	"github.com/chargewise/charge-finder/internal/observability"
	"github.com/chargewise/charge-finder/internal/pipeline"
	"github.com/chargewise/charge-finder/internal/storage"
)

// Handler serves the query and stats endpoints.
type Handler struct {
	finder    *pipeline.Finder
	store     *storage.Store
	metrics   *analytics.Metrics
	unmatched *analytics.UnmatchedLog
	logger    *observability.Logger
}

// NewHandler wires the endpoint dependencies.
func NewHandler(finder *pipeline.Finder, store *storage.Store, metrics *analytics.Metrics, unmatched *analytics.UnmatchedLog, logger *observability.Logger) *Handler {
	return &Handler{
		finder:    finder,
		store:     store,
		metrics:   metrics,
		unmatched: unmatched,
		logger:    logger,
	}
}

// QueryRequest is the POST /api/v1/query body.
type QueryRequest struct {
	Text string `json:"text"`
}

// Query answers one free-text request.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.finder.Find(r.Context(), req.Text)
	if err != nil {
		h.logger.Error().Err(err).Msg("query failed")
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StatsResponse is the GET /api/v1/stats payload.
type StatsResponse struct {
	Metrics   analytics.Snapshot         `json:"metrics"`
	Unmatched []analytics.UnmatchedInput `json:"unmatched"`
}

// Stats reports accumulated query metrics and the top unmatched inputs.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Metrics:   h.metrics.Snapshot(),
		Unmatched: h.unmatched.Top(20),
	})
}

// Station returns one charging station by ID.
func (h *Handler) Station(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return
	}

	station, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "station not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("station lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, station)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
