// Package handlers provides HTTP handlers for price history operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/history"
)

// Handler handles price history HTTP requests
type Handler struct {
	sync         *history.SyncService
	repo         *history.PriceRepository
	charts       *charts.Service
	symbols      []string
	lookbackDays int
	log          zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(
	sync *history.SyncService,
	repo *history.PriceRepository,
	chartsService *charts.Service,
	symbols []string,
	lookbackDays int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		sync:         sync,
		repo:         repo,
		charts:       chartsService,
		symbols:      symbols,
		lookbackDays: lookbackDays,
		log:          log.With().Str("handler", "history").Logger(),
	}
}

// RegisterRoutes registers history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Post("/sync", h.HandleSync)
		r.Get("/status", h.HandleStatus)
		r.Get("/prices/{symbol}", h.HandleGetPrices)
		r.Get("/chart", h.HandlePriceChart)
	})
}

// HandleSync handles POST /api/history/sync
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.Sync(r.Context(), h.symbols, h.lookbackDays)
	if err != nil {
		h.log.Error().Err(err).Msg("Price sync failed")
		http.Error(w, "Price sync failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleStatus handles GET /api/history/status.
// It reports the latest stored date per tracked symbol.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.symbols))
	for _, symbol := range h.symbols {
		date, err := h.repo.LatestDate(symbol)
		if err != nil {
			h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to query latest date")
			http.Error(w, "Failed to query history status", http.StatusInternalServerError)
			return
		}
		status[symbol] = date
	}

	h.writeJSON(w, http.StatusOK, envelope(status))
}

// HandleGetPrices handles GET /api/history/prices/{symbol}
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	closes, err := h.repo.GetDailyCloses(symbol, limit)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get prices")
		http.Error(w, "Failed to get prices", http.StatusInternalServerError)
		return
	}
	if closes == nil {
		closes = []history.DailyClose{}
	}

	h.writeJSON(w, http.StatusOK, envelope(closes))
}

// HandlePriceChart handles GET /api/history/chart.
// It renders the tracked universe's rebased price history as a PNG.
func (h *Handler) HandlePriceChart(w http.ResponseWriter, r *http.Request) {
	table, err := h.repo.GetPriceTable(h.symbols, h.lookbackDays)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build price table")
		http.Error(w, "Failed to build price table", http.StatusInternalServerError)
		return
	}

	img, err := h.charts.PriceLines(table)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render price chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
