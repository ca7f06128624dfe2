package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/segtag/nlp/config"
	"github.com/oarkflow/segtag/nlp/dataset"
	"github.com/oarkflow/segtag/nlp/metrics"
	"github.com/oarkflow/segtag/nlp/morphology"
	"github.com/oarkflow/segtag/nlp/store"
)

func newTestServer(t *testing.T, mutate func(*config.Server), opts ...Option) *Server {
	t.Helper()
	cfg := config.Default().Server
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{WithAccessLog(nil)}, opts...)
	return New(cfg, morphology.New(), opts...)
}

func do(t *testing.T, s *Server, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/v1/analyze", map[string]string{"word": "  Unhappy "})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res morphology.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "unhappy", res.Word)
	assert.Equal(t, []string{"un"}, res.Prefixes)
	assert.Equal(t, "happy", res.Root)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestAnalyzeInvalidJSON(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeBatch(t *testing.T) {
	s := newTestServer(t, func(c *config.Server) { c.MaxBatch = 3 })
	resp, body := do(t, s, http.MethodPost, "/v1/analyze/batch", map[string][]string{"words": {"running", "", "unhappy"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		Results []morphology.Result `json:"results"`
		Count   int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, 3, out.Count)
	assert.Equal(t, "runn", out.Results[0].Root)
	assert.Equal(t, "", out.Results[1].Root)
	assert.Equal(t, "happy", out.Results[2].Root)

	resp, _ = do(t, s, http.MethodPost, "/v1/analyze/batch", map[string][]string{"words": {"a", "b", "c", "d"}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestEncodeBIO(t *testing.T) {
	m := metrics.New()
	s := newTestServer(t, nil, WithMetrics(m))
	res := morphology.New().Analyze("running")

	resp, body := do(t, s, http.MethodPost, "/v1/bio", map[string]any{"word": res.Word, "morphemes": res.Morphemes})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out bioResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, []string{"B-ROOT", "I-ROOT", "I-ROOT", "I-ROOT", "B-SUFFIX", "I-SUFFIX", "I-SUFFIX"}, out.Labels)

	resp, body = do(t, s, http.MethodPost, "/v1/bio", map[string]any{
		"word":  "run",
		"spans": []map[string]any{{"type": "stem", "start": 0, "end": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e struct {
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, http.StatusBadRequest, e.Error)
	assert.Contains(t, e.Message, "span type")
}

func TestEncodeBIORejectsBadSpans(t *testing.T) {
	m := metrics.New()
	s := newTestServer(t, nil, WithMetrics(m))

	tests := []struct {
		name   string
		spans  []map[string]any
		reason string
	}{
		{name: "past end", spans: []map[string]any{{"type": "root", "start": 0, "end": 5}}, reason: "out_of_bounds"},
		{name: "negative start", spans: []map[string]any{{"type": "prefix", "start": -1, "end": 2}}, reason: "out_of_bounds"},
		{name: "unknown type", spans: []map[string]any{{"type": "stem", "start": 0, "end": 3}}, reason: "unknown_span_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, s, http.MethodPost, "/v1/bio", map[string]any{"word": "run", "spans": tt.spans})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
		})
	}

	resp, body := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `segtag_bio_rejections_total{reason="out_of_bounds"} 2`)
	assert.Contains(t, string(body), `segtag_bio_rejections_total{reason="unknown_span_type"} 1`)
}

func TestRecordsWithoutStore(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/v1/records", map[string]string{"word": "unhappy"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"persisted":false`)

	resp, _ = do(t, s, http.MethodGet, "/v1/records/unhappy", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRecordsWithStore(t *testing.T) {
	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "segtag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate())
	s := newTestServer(t, nil, WithStore(st))

	resp, body := do(t, s, http.MethodPost, "/v1/records", map[string]string{"word": "Reactivating"}, "X-Batch-ID", "batch-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = do(t, s, http.MethodGet, "/v1/records/REACTIVATING", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rec dataset.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "reactivating", rec.Word)
	require.NoError(t, dataset.Validate(rec))

	n, err := st.CountBatch("batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resp, _ = do(t, s, http.MethodGet, "/v1/records/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, s, http.MethodGet, "/v1/records?limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"count":1`)
}

func TestRecordsByOriginalWord(t *testing.T) {
	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "segtag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate())
	s := newTestServer(t, nil, WithStore(st))

	resp, body := do(t, s, http.MethodPost, "/v1/records", map[string]string{"word": "ageing"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	for _, path := range []string{"/v1/records/ageing", "/v1/records/AGEING", "/v1/records/aging"} {
		t.Run(path, func(t *testing.T) {
			resp, body := do(t, s, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			var rec dataset.Record
			require.NoError(t, json.Unmarshal(body, &rec))
			assert.Equal(t, "ageing", rec.Original)
			assert.Equal(t, "aging", rec.Word)
			assert.Equal(t, "ag", rec.Root)
			require.NoError(t, dataset.Validate(rec))
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New()
	s := New(config.Default().Server, morphology.New(morphology.WithObserver(m)), WithMetrics(m), WithAccessLog(nil))

	resp, body := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	do(t, s, http.MethodPost, "/v1/analyze", map[string]string{"word": "ageing"})
	resp, body = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "segtag_analyses_total 1")
	assert.Contains(t, string(body), `segtag_stem_repairs_total{outcome="applied"} 1`)
}

func TestSetEngine(t *testing.T) {
	s := newTestServer(t, nil)
	s.SetEngine(morphology.New(morphology.WithTable(morphology.NewAffixTable(nil, []string{"y"}))))
	resp, body := do(t, s, http.MethodPost, "/v1/analyze", map[string]string{"word": "unhappy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res morphology.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Empty(t, res.Prefixes)
	assert.Equal(t, "unhapp", res.Root)

	s.SetEngine(nil)
	assert.NotNil(t, s.Engine())
}

func TestJWT(t *testing.T) {
	secret := "top-secret"
	s := newTestServer(t, func(c *config.Server) { c.JWTSecret = secret })

	resp, _ := do(t, s, http.MethodPost, "/v1/analyze", map[string]string{"word": "running"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "tester"}).SignedString([]byte(secret))
	require.NoError(t, err)
	resp, body := do(t, s, http.MethodPost, "/v1/analyze", map[string]string{"word": "running"}, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
