package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/history"
)

type fakeSource struct {
	closes map[string][]history.DailyClose
}

func (f *fakeSource) GetDailyCloses(_ context.Context, symbol string, _ int) ([]history.DailyClose, error) {
	return f.closes[symbol], nil
}

func newTestRouter(t *testing.T) (chi.Router, *history.PriceRepository) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	repo := history.NewPriceRepository(db, zerolog.Nop())
	source := &fakeSource{closes: map[string][]history.DailyClose{
		"AAPL": {
			{Symbol: "AAPL", Date: "2016-01-04", Close: 105.35},
			{Symbol: "AAPL", Date: "2016-01-05", Close: 102.71},
		},
		"WMT": {
			{Symbol: "WMT", Date: "2016-01-04", Close: 61.46},
			{Symbol: "WMT", Date: "2016-01-05", Close: 61.80},
		},
	}}
	sync := history.NewSyncService(source, repo, zerolog.Nop())

	handler := NewHandler(sync, repo, charts.NewService(zerolog.Nop()), []string{"AAPL", "WMT"}, 1260, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return r, repo
}

func TestHandleSync(t *testing.T) {
	router, repo := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/history/sync", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data history.SyncResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"AAPL", "WMT"}, body.Data.Synced)
	assert.Equal(t, 4, body.Data.Rows)

	stored, err := repo.GetDailyCloses("AAPL", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestHandleStatus(t *testing.T) {
	router, repo := newTestRouter(t)

	require.NoError(t, repo.SaveDailyCloses([]history.DailyClose{
		{Symbol: "AAPL", Date: "2016-01-05", Close: 102.71},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/history/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2016-01-05", body.Data["AAPL"])
	assert.Empty(t, body.Data["WMT"], "unsynced symbol has no latest date")
}

func TestHandleGetPrices(t *testing.T) {
	router, repo := newTestRouter(t)

	require.NoError(t, repo.SaveDailyCloses([]history.DailyClose{
		{Symbol: "AAPL", Date: "2016-01-04", Close: 105.35},
		{Symbol: "AAPL", Date: "2016-01-05", Close: 102.71},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/history/prices/AAPL?limit=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []history.DailyClose `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "2016-01-05", body.Data[0].Date)
}

func TestHandleGetPrices_UnknownSymbol(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history/prices/NOPE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []history.DailyClose `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data)
}

func TestHandlePriceChart(t *testing.T) {
	router, repo := newTestRouter(t)

	require.NoError(t, repo.SaveDailyCloses([]history.DailyClose{
		{Symbol: "AAPL", Date: "2016-01-04", Close: 105.35},
		{Symbol: "AAPL", Date: "2016-01-05", Close: 102.71},
		{Symbol: "WMT", Date: "2016-01-04", Close: 61.46},
		{Symbol: "WMT", Date: "2016-01-05", Close: 61.80},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/history/chart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
}

func TestHandlePriceChart_NoData(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history/chart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
