package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// testSet builds a 2x2 set where the Title category is fully concentrated in
// the top-left cell.
func testSet() *heat.Set {
	return &heat.Set{
		ID:         "run-test",
		Rows:       2,
		Cols:       2,
		Categories: []heat.Category{"Title"},
		Grids: map[heat.Category]heat.Grid{
			"Title": {Rows: 2, Cols: 2, Cells: []float64{1, 0, 0, 0}, Samples: 3},
		},
		SampleCount: 3,
		LayoutCount: 3,
		BuiltAt:     time.Now().UTC(),
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	opts.Logger = log.New(io.Discard)
	srv, err := New(testSet(), opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Code
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response should carry a request id")
	}
}

func TestScoreLayout(t *testing.T) {
	srv := newTestServer(t, Options{})

	// A Title box covering the top-left quadrant sits exactly on the hot cell.
	rec := doRequest(t, srv, http.MethodPost, "/v1/score", `{
		"elements": [
			{"category": "Title", "x0": 0, "y0": 0, "x1": 50, "y1": 50, "canvas_w": 100, "canvas_h": 100}
		]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp scoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SetID != "run-test" {
		t.Errorf("set_id = %q, want run-test", resp.SetID)
	}
	if resp.Overall != 1.0 {
		t.Errorf("overall = %g, want 1.0", resp.Overall)
	}
	if len(resp.Elements) != 1 || resp.Elements[0].Score != 1.0 {
		t.Errorf("elements = %+v", resp.Elements)
	}
}

func TestScoreInvalidBox(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := doRequest(t, srv, http.MethodPost, "/v1/score", `{
		"elements": [
			{"category": "Title", "x0": 50, "y0": 0, "x1": 10, "y1": 50, "canvas_w": 100, "canvas_h": 100}
		]
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_BOX" {
		t.Errorf("code = %q, want INVALID_BOX", code)
	}
}

func TestScoreUnseenCategoryIsNeutral(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := doRequest(t, srv, http.MethodPost, "/v1/score", `{
		"elements": [
			{"category": "Sticker", "x0": 0, "y0": 0, "x1": 50, "y1": 50, "canvas_w": 100, "canvas_h": 100}
		]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp scoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Elements) != 1 || !resp.Elements[0].Neutral {
		t.Errorf("unseen category should be flagged neutral: %+v", resp.Elements)
	}
	if resp.Elements[0].Score != 0 {
		t.Errorf("neutral score = %g, want 0", resp.Elements[0].Score)
	}
}

func TestScoreBadJSON(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := doRequest(t, srv, http.MethodPost, "/v1/score", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_INPUT" {
		t.Errorf("code = %q, want INVALID_INPUT", code)
	}
}

func TestHeatmapsMetadata(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := doRequest(t, srv, http.MethodGet, "/v1/heatmaps", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var meta setMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta.ID != "run-test" || meta.Rows != 2 || meta.Cols != 2 {
		t.Errorf("metadata = %+v", meta)
	}
	if len(meta.Categories) != 1 || meta.Categories[0] != "Title" {
		t.Errorf("categories = %v", meta.Categories)
	}
}

func TestHeatmapByCategory(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := doRequest(t, srv, http.MethodGet, "/v1/heatmaps/Title", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/heatmaps/Sticker", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNKNOWN_CATEGORY" {
		t.Errorf("code = %q, want UNKNOWN_CATEGORY", code)
	}
}

func TestRegions(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := doRequest(t, srv, http.MethodGet, "/v1/heatmaps/Title/regions?k=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Regions []heat.Region `json:"regions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Regions) != 2 {
		t.Fatalf("regions = %d, want 2", len(resp.Regions))
	}
	if resp.Regions[0].Row != 0 || resp.Regions[0].Col != 0 || resp.Regions[0].Value != 1.0 {
		t.Errorf("top region = %+v, want cell (0,0) value 1.0", resp.Regions[0])
	}
}

func TestRegionsInvalidK(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, k := range []string{"0", "-3", "many"} {
		rec := doRequest(t, srv, http.MethodGet, "/v1/heatmaps/Title/regions?k="+k, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("k=%s: status = %d, want 400", k, rec.Code)
		}
	}
}

func TestNewRejectsResolutionMismatch(t *testing.T) {
	_, err := New(testSet(), Options{
		ScoreOptions: heat.ScoreOptions{Rows: 21, Cols: 12},
		Logger:       log.New(io.Discard),
	})
	if err == nil {
		t.Fatal("expected resolution mismatch error")
	}
}

// memCache is an in-memory Cache for exercising the response-cache path.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestScoreResponseCaching(t *testing.T) {
	mc := newMemCache()
	srv := newTestServer(t, Options{Cache: mc})

	body := `{"elements": [{"category": "Title", "x0": 0, "y0": 0, "x1": 50, "y1": 50, "canvas_w": 100, "canvas_h": 100}]}`

	first := doRequest(t, srv, http.MethodPost, "/v1/score", body)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	if mc.sets != 1 {
		t.Fatalf("sets = %d, want 1", mc.sets)
	}

	second := doRequest(t, srv, http.MethodPost, "/v1/score", body)
	if second.Code != http.StatusOK {
		t.Fatalf("second status = %d", second.Code)
	}
	if mc.hits != 1 {
		t.Errorf("hits = %d, want 1", mc.hits)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached response should match the computed one")
	}

	// A different layout misses.
	other := `{"elements": [{"category": "Title", "x0": 50, "y0": 50, "x1": 100, "y1": 100, "canvas_w": 100, "canvas_h": 100}]}`
	doRequest(t, srv, http.MethodPost, "/v1/score", other)
	if mc.sets != 2 {
		t.Errorf("sets = %d, want 2", mc.sets)
	}
}
