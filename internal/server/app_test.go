package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/catalog/internal/server/config"
	"github.com/dmitrijs2005/catalog/internal/server/httpapi"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/search"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = config.MemoryBackend
	c.IndexURL = config.MemoryBackend
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.LogLevel = "error"
	return c
}

func newMemoryApp(t *testing.T, c *config.Config) *App {
	t.Helper()
	app, err := NewApp(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NoError(t, app.Init(context.Background()))
	return app
}

func listTitles(t *testing.T, base string) (titles []string, next *string) {
	t.Helper()
	resp, err := http.Get(base + httpapi.BasePath + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page httpapi.ListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	for _, r := range page.Items {
		titles = append(titles, r.Title)
	}
	return titles, page.NextPage
}

func TestApp_RecordLifecycle(t *testing.T) {
	app := newMemoryApp(t, memoryConfig())
	srv := httptest.NewServer(app.handler())
	defer srv.Close()
	ctx := context.Background()

	resp, err := http.Post(srv.URL+httpapi.BasePath+"/", "application/json",
		bytes.NewBufferString(`{"title":"Dune","releaseDate":"1984-12-14"}`))
	require.NoError(t, err)
	var rec models.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	titles, next := listTitles(t, srv.URL)
	assert.Equal(t, []string{"Dune"}, titles)
	assert.Nil(t, next)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+httpapi.BasePath+"/"+rec.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	titles, next = listTitles(t, srv.URL)
	assert.Empty(t, titles)
	assert.Nil(t, next)

	// retention must wait until the index has caught up
	require.NoError(t, app.retention.Cycle(ctx))
	assert.Equal(t, 0.0, testutil.ToFloat64(app.metrics.PurgedRecords))

	require.NoError(t, app.indexSync.Cycle(ctx))
	assert.False(t, app.index.(*search.MemoryIndex).Has(rec.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.SyncedRecords.WithLabelValues("delete")))

	require.NoError(t, app.retention.Cycle(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.PurgedRecords))

	// the id is free again
	resp, err = http.Post(srv.URL+httpapi.BasePath+"/", "application/json",
		bytes.NewBufferString(`{"title":"Dune","releaseDate":"1984-12-14"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestApp_SyncedRecordsAreSearchable(t *testing.T) {
	app := newMemoryApp(t, memoryConfig())
	srv := httptest.NewServer(app.handler())
	defer srv.Close()

	for _, title := range []string{"Star Wars", "Alien"} {
		body, _ := json.Marshal(models.CreateParams{Title: title})
		resp, err := http.Post(srv.URL+httpapi.BasePath+"/", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.NoError(t, app.indexSync.Cycle(context.Background()))

	resp, err := http.Get(srv.URL + httpapi.BasePath + "/?search=star")
	require.NoError(t, err)
	defer resp.Body.Close()

	var page httpapi.ListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Star Wars", page.Items[0].Title)
}

func TestApp_InitImportsSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"title\":\"Alien\"}\n{\"title\":\"Brazil\"}\n"), 0o600))

	c := memoryConfig()
	c.SeedSource = path
	app := newMemoryApp(t, c)

	page, err := app.catalog.List(context.Background(), 10, "", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alien", page.Items[0].Title)
	assert.Equal(t, "Brazil", page.Items[1].Title)
}

func TestApp_InitFailsOnMissingSeed(t *testing.T) {
	c := memoryConfig()
	c.SeedSource = filepath.Join(t.TempDir(), "missing.json")

	app, err := NewApp(c)
	require.NoError(t, err)
	assert.Error(t, app.Init(context.Background()))
}

func TestNewApp_RejectsZeroInterval(t *testing.T) {
	c := memoryConfig()
	c.RetentionInterval = 0

	_, err := NewApp(c)
	assert.ErrorContains(t, err, "retention interval")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app := newMemoryApp(t, memoryConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
