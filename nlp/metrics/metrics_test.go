package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/segtag/nlp/morphology"
)

func TestObserveAnalysis(t *testing.T) {
	m := New()
	a := morphology.New(morphology.WithObserver(m))
	a.Analyze("running")
	a.Analyze("ageing")
	a.Analyze("")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.analyses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repairs.WithLabelValues("applied")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.repairs.WithLabelValues("rejected")))

}

func TestBIORejected(t *testing.T) {
	m := New()
	tests := []struct {
		reason string
		times  int
	}{
		{reason: "out_of_bounds", times: 2},
		{reason: "unknown_span_type", times: 1},
	}
	for _, tt := range tests {
		for range tt.times {
			m.BIORejected(tt.reason)
		}
	}
	for _, tt := range tests {
		assert.Equal(t, float64(tt.times), testutil.ToFloat64(m.bioRejections.WithLabelValues(tt.reason)), tt.reason)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveAnalysis(morphology.New().Analyze("unhappy"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "segtag_analyses_total 1")
	assert.Contains(t, string(body), "segtag_affixes_per_word_bucket")
}
