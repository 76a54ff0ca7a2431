// Package handlers provides HTTP handlers for simulation and optimization runs.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/frontier"
)

// Handler handles frontier HTTP requests
type Handler struct {
	service *frontier.Service
	charts  *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new frontier handler
func NewHandler(service *frontier.Service, chartsService *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		charts:  chartsService,
		log:     log.With().Str("handler", "frontier").Logger(),
	}
}

// RegisterRoutes registers frontier routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/frontier", func(r chi.Router) {
		r.Post("/simulate", h.HandleSimulate)
		r.Post("/optimize", h.HandleOptimize)
		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{id}", h.HandleGetRun)
		r.Get("/chart", h.HandleFrontierChart)
		r.Get("/allocation-chart", h.HandleAllocationChart)
	})
}

// HandleSimulate handles POST /api/frontier/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var params frontier.SimulationParams
	if err := decodeBody(r, &params); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Simulate(r.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Msg("Simulation failed")
		http.Error(w, "Simulation failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(summary))
}

// HandleOptimize handles POST /api/frontier/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var params frontier.OptimizationParams
	if err := decodeBody(r, &params); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Optimize(r.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Msg("Optimization failed")
		http.Error(w, "Optimization failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(summary))
}

// HandleListRuns handles GET /api/frontier/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.service.ListRuns(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []frontier.Run{}
	}

	h.writeJSON(w, http.StatusOK, envelope(runs))
}

// HandleGetRun handles GET /api/frontier/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.GetRun(id)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(run))
}

// HandleFrontierChart handles GET /api/frontier/chart.
// It runs a fresh simulation with the query parameters and returns a PNG.
func (h *Handler) HandleFrontierChart(w http.ResponseWriter, r *http.Request) {
	params := simulationParamsFromQuery(r)

	summary, err := h.service.Simulate(r.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Msg("Chart simulation failed")
		http.Error(w, "Chart simulation failed", http.StatusInternalServerError)
		return
	}

	img, err := h.charts.FrontierLine(summary)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render frontier chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	writePNG(w, img)
}

// HandleAllocationChart handles GET /api/frontier/allocation-chart.
// It runs the optimizer with the query parameters and returns a PNG.
func (h *Handler) HandleAllocationChart(w http.ResponseWriter, r *http.Request) {
	params := frontier.OptimizationParams{
		Symbols: symbolsFromQuery(r),
	}

	summary, err := h.service.Optimize(r.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Msg("Chart optimization failed")
		http.Error(w, "Chart optimization failed", http.StatusInternalServerError)
		return
	}

	img, err := h.charts.AllocationPie(summary.Params.Symbols, summary.Result.Weights)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render allocation chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	writePNG(w, img)
}

func simulationParamsFromQuery(r *http.Request) frontier.SimulationParams {
	params := frontier.SimulationParams{Symbols: symbolsFromQuery(r)}

	q := r.URL.Query()
	if v := q.Get("trials"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			params.Trials = parsed
		}
	}
	if v := q.Get("seed"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.Seed = parsed
		}
	}
	return params
}

func symbolsFromQuery(r *http.Request) []string {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		return nil
	}
	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	return symbols
}

// decodeBody decodes a JSON body; an empty body yields the zero value so
// every parameter falls back to its default.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func writePNG(w http.ResponseWriter, img []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
