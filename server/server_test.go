package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/bizmatch/ai"
	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIndex struct {
	snapshot *corpus.Snapshot
	results  []core.RankedResult
	err      error
	last     search.Request
}

func (f *fakeIndex) SearchWithRequest(_ context.Context, req search.Request) ([]core.RankedResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeIndex) Snapshot() *corpus.Snapshot {
	return f.snapshot
}

func testSnapshot() *corpus.Snapshot {
	return &corpus.Snapshot{
		FormatVersion: corpus.FormatVersion,
		Fingerprint:   "f00d",
		BuildID:       "build-1",
		Model:         "all-mpnet-base-v2",
		Dimension:     2,
		BuiltAt:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Entities: []core.Entity{
			{ID: "A", Name: "Acme", Description: "Acme provides security software."},
			{ID: "E", Name: "Empty"},
		},
		Units:    []core.TextUnit{{ID: "A#0", EntityID: "A", Text: "Acme provides security software.", Functional: true}},
		Vectors:  []core.Vector{{1, 0}},
		Statuses: map[string]core.EntityStatus{"A": core.StatusIndexed, "E": core.StatusEmptyDescription},
	}
}

func newTestServer(t *testing.T, index *fakeIndex, opts ...Option) http.Handler {
	t.Helper()
	s, err := New(index, opts...)
	require.NoError(t, err)
	return s.Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&fakeIndex{}, WithDefaultTopN(0))
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	index := &fakeIndex{
		snapshot: testSnapshot(),
		results: []core.RankedResult{{
			EntityID:    "A",
			Name:        "Acme",
			Description: "Acme provides security software.",
			Matches:     []core.UnitScore{{Text: "Acme provides security software.", Score: 0.9}},
			Score:       0.9,
		}},
	}
	h := newTestServer(t, index)

	w := do(t, h, http.MethodPost, "/search",
		`{"query":"security","top_n":3,"exclude":["consumer loans"],"exclude_threshold":0.7}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "security", resp.Query)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, index.results, resp.Results)

	assert.Equal(t, search.Request{
		Query:            "security",
		TopN:             3,
		Exclude:          []string{"consumer loans"},
		ExcludeThreshold: 0.7,
	}, index.last)
}

func TestSearch_DefaultTopN(t *testing.T) {
	index := &fakeIndex{snapshot: testSnapshot(), results: []core.RankedResult{}}
	h := newTestServer(t, index, WithDefaultTopN(7))

	w := do(t, h, http.MethodPost, "/search", `{"query":"security"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, index.last.TopN)
	assert.JSONEq(t, `{"query":"security","count":0,"results":[]}`, w.Body.String())
}

func TestSearch_ExplicitZeroTopNIsRejected(t *testing.T) {
	index := &fakeIndex{err: core.ErrInvalidTopN}
	h := newTestServer(t, index)

	w := do(t, h, http.MethodPost, "/search", `{"query":"security","top_n":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, index.last.TopN)
}

func TestSearch_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty query", core.ErrEmptyQuery, http.StatusBadRequest},
		{"invalid top n", core.ErrInvalidTopN, http.StatusBadRequest},
		{"invalid threshold", search.ErrInvalidThreshold, http.StatusBadRequest},
		{"not ready", core.ErrNotReady, http.StatusServiceUnavailable},
		{"model unavailable", errors.Join(ai.ErrModelUnavailable, errors.New("status code: 503")), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"malformed response", ai.ErrMalformedResponse, http.StatusInternalServerError},
		{"dimension mismatch", core.ErrDimensionMismatch, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeIndex{err: tt.err})
			w := do(t, h, http.MethodPost, "/search", `{"query":"x"}`)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestSearch_InvalidBody(t *testing.T) {
	h := newTestServer(t, &fakeIndex{})

	w := do(t, h, http.MethodPost, "/search", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/search", `{"query":"x","top_n":"five"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeIndex{})
	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, w.Body.String())

	h = newTestServer(t, &fakeIndex{snapshot: testSnapshot()})
	w = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "build-1", resp.BuildID)
	assert.Equal(t, "f00d", resp.Fingerprint)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, StatsReport{
		Entities:         2,
		Indexed:          1,
		EmptyDescription: 1,
		Units:            1,
		Dimension:        2,
	}, *resp.Stats)
}

func TestEntityStatus(t *testing.T) {
	h := newTestServer(t, &fakeIndex{})
	w := do(t, h, http.MethodGet, "/entities/A/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h = newTestServer(t, &fakeIndex{snapshot: testSnapshot()})

	tests := []struct {
		id   string
		want string
	}{
		{"A", `{"entity_id":"A","status":"indexed","rankable":true}`},
		{"E", `{"entity_id":"E","status":"empty-description","rankable":false}`},
		{"Z", `{"entity_id":"Z","status":"unknown","rankable":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/entities/"+tt.id+"/status", "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestRun_Shutdown(t *testing.T) {
	s, err := New(&fakeIndex{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
