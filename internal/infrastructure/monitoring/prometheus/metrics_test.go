package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	require.NotNil(t, m)
	return m, c
}

func TestRecordSearch_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordSearch(m, "match_all", 12, 3, 2*time.Millisecond, nil)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_substructure_searches_total{operation="match_all",outcome="ok"} 1`)
	assert.Contains(t, out, `test_unit_substructure_match_count_sum{operation="match_all"} 3`)
	assert.Contains(t, out, `test_unit_target_atoms_sum{operation="match_all"} 12`)
}

func TestRecordSearch_ErrorSkipsMatchCount(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordSearch(m, "match_any", 4, 0, time.Millisecond, errors.New("bad pattern"))

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `outcome="error"`)
	assert.NotContains(t, out, `test_unit_substructure_match_count_count{operation="match_any"}`)
}

func TestRecordCacheAccess(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	RecordCacheAccess(m, "perception", true)
	RecordCacheAccess(m, "perception", true)
	RecordCacheAccess(m, "perception", false)

	assert.Equal(t, 2.0, counterValue(t, m.CacheHitsTotal.WithLabelValues("perception")))
	assert.Equal(t, 1.0, counterValue(t, m.CacheMissesTotal.WithLabelValues("perception")))
}

func TestRecordHTTPAndGRPC(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, "POST", "/api/v1/substructure/match", 200, 10*time.Millisecond)
	RecordGRPCRequest(m, "/keyip.substructure.v1.SubstructureService/Match", "OK", time.Millisecond)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `status_code="200"`)
	assert.Contains(t, out, `code="OK"`)
}

func TestRecordDBQueryAndErrors(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	RecordDBQuery(m, "postgres", "list_molecules", time.Millisecond, errors.New("timeout"))
	RecordError(m, "screening", "SUB_001")

	assert.Equal(t, 1.0, counterValue(t, m.ErrorsTotal.WithLabelValues("postgres", "query_error")))
	assert.Equal(t, 1.0, counterValue(t, m.ErrorsTotal.WithLabelValues("screening", "SUB_001")))
}

func TestRecordScreeningJob(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordScreeningJob(m, "completed", time.Second)
	assert.Contains(t, scrapeMetrics(t, c), `test_unit_screening_jobs_total{status="completed"} 1`)
}

func TestNoopAppMetrics(t *testing.T) {
	m := NewNoopAppMetrics()
	assert.NotPanics(t, func() {
		RecordSearch(m, "match_all", 1, 1, time.Millisecond, nil)
		RecordCacheAccess(m, "x", false)
		RecordScreeningJob(m, "failed", time.Second)
		m.ScreeningActiveJobs.WithLabelValues("w").Inc()
	})
}

//Personal.AI order the ending
