package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargewise/charge-finder/internal/analytics"
	"github.com/chargewise/charge-finder/internal/cache"
	"github.com/chargewise/charge-finder/internal/observability"
	"github.com/chargewise/charge-finder/internal/pipeline"
	"github.com/chargewise/charge-finder/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := storage.NewStore(db, "sqlite")
	require.NoError(t, store.Migrate(context.Background()))
	_, err = store.SeedIfEmpty(context.Background(), nil)
	require.NoError(t, err)

	dir := t.TempDir()
	qc, err := cache.NewFileStore(filepath.Join(dir, "cache.json"), 32)
	require.NoError(t, err)
	metrics, err := analytics.NewMetrics(filepath.Join(dir, "metrics.json"))
	require.NoError(t, err)
	unmatched, err := analytics.NewUnmatchedLog(filepath.Join(dir, "unmatched.json"))
	require.NoError(t, err)

	logger := observability.Nop()
	finder := pipeline.NewFinder(pipeline.Options{
		Cache:     qc,
		Searcher:  store,
		Metrics:   metrics,
		Unmatched: unmatched,
		Logger:    logger,
	})

	handler := NewHandler(finder, store, metrics, unmatched, logger)
	srv := httptest.NewServer(NewRouter(logger, handler, RouterConfig{RequestTimeout: 5 * time.Second}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/query", "application/json",
		strings.NewReader(`{"text":"carregador mais barato no porto"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "cheapest_in_city", res.RuleName)
	assert.Equal(t, "porto", res.Query.City)
	require.NotEmpty(t, res.Stations)
	assert.Equal(t, "Rua do Campo Alegre 823", res.Stations[0].Address)
}

func TestQueryEndpointRejectsBadBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/query", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	_, err := http.Post(srv.URL+"/api/v1/query", "application/json",
		strings.NewReader(`{"text":"carregador em leiria"}`))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Metrics.TotalQueries)
	assert.Equal(t, int64(1), stats.Metrics.QueriesPerCity["leiria"])
}

func TestStationEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/query", "application/json",
		strings.NewReader(`{"text":"leiria"}`))
	require.NoError(t, err)
	var res pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	require.NotEmpty(t, res.Stations)

	got, err := http.Get(srv.URL + "/api/v1/stations/" + res.Stations[0].ID.String())
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)

	var station storage.ChargingStation
	require.NoError(t, json.NewDecoder(got.Body).Decode(&station))
	assert.Equal(t, res.Stations[0].Address, station.Address)

	missing, err := http.Get(srv.URL + "/api/v1/stations/not-a-uuid")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)
}
