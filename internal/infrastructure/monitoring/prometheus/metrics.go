package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric vector emitted by the service.
type AppMetrics struct {
	// Transport
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Substructure engine
	SearchRequestsTotal CounterVec
	SearchDuration      HistogramVec
	SearchMatchCount    HistogramVec
	PerceptionDuration  HistogramVec
	TargetAtoms         HistogramVec

	// Screening jobs
	ScreeningJobsTotal     CounterVec
	ScreeningJobDuration   HistogramVec
	ScreeningActiveJobs    GaugeVec
	MessageProcessDuration HistogramVec
	ScreeningLibrarySize   GaugeVec

	// Infrastructure
	DBQueryDuration  HistogramVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	ErrorsTotal      CounterVec
}

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSearchDurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}
	DefaultMatchCountBuckets     = []float64{0, 1, 2, 5, 10, 50, 100, 500, 1000}
	DefaultAtomCountBuckets      = []float64{8, 16, 32, 64, 128, 256, 1024, 4096}
	DefaultJobDurationBuckets    = []float64{.1, .5, 1, 5, 10, 30, 60, 300}
	DefaultDBDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "method")

	m.SearchRequestsTotal = collector.RegisterCounter("substructure_searches_total", "Substructure searches", "operation", "outcome")
	m.SearchDuration = collector.RegisterHistogram("substructure_search_duration_seconds", "Substructure search duration", DefaultSearchDurationBuckets, "operation")
	m.SearchMatchCount = collector.RegisterHistogram("substructure_match_count", "Matches returned per search", DefaultMatchCountBuckets, "operation")
	m.PerceptionDuration = collector.RegisterHistogram("perception_duration_seconds", "Ring and aromaticity perception duration", DefaultSearchDurationBuckets, "stage")
	m.TargetAtoms = collector.RegisterHistogram("target_atoms", "Atom count of searched targets", DefaultAtomCountBuckets, "operation")

	m.ScreeningJobsTotal = collector.RegisterCounter("screening_jobs_total", "Screening jobs processed", "status")
	m.ScreeningJobDuration = collector.RegisterHistogram("screening_job_duration_seconds", "Screening job duration", DefaultJobDurationBuckets, "status")
	m.ScreeningActiveJobs = collector.RegisterGauge("screening_active_jobs", "Screening jobs in flight", "worker")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "topic")
	m.ScreeningLibrarySize = collector.RegisterGauge("screening_library_molecules", "Molecules in the screening library", "library")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "code")

	return m
}

// NewNoopAppMetrics returns metrics that discard every observation.
func NewNoopAppMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:      noopCounterVec{},
		HTTPRequestDuration:    noopHistogramVec{},
		GRPCRequestsTotal:      noopCounterVec{},
		GRPCRequestDuration:    noopHistogramVec{},
		SearchRequestsTotal:    noopCounterVec{},
		SearchDuration:         noopHistogramVec{},
		SearchMatchCount:       noopHistogramVec{},
		PerceptionDuration:     noopHistogramVec{},
		TargetAtoms:            noopHistogramVec{},
		ScreeningJobsTotal:     noopCounterVec{},
		ScreeningJobDuration:   noopHistogramVec{},
		ScreeningActiveJobs:    noopGaugeVec{},
		MessageProcessDuration: noopHistogramVec{},
		ScreeningLibrarySize:   noopGaugeVec{},
		DBQueryDuration:        noopHistogramVec{},
		CacheHitsTotal:         noopCounterVec{},
		CacheMissesTotal:       noopCounterVec{},
		ErrorsTotal:            noopCounterVec{},
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSearch records one engine call.
func RecordSearch(m *AppMetrics, operation string, atoms, matches int, d time.Duration, err error) {
	m.SearchRequestsTotal.WithLabelValues(operation, outcome(err)).Inc()
	m.SearchDuration.WithLabelValues(operation).Observe(d.Seconds())
	m.TargetAtoms.WithLabelValues(operation).Observe(float64(atoms))
	if err == nil {
		m.SearchMatchCount.WithLabelValues(operation).Observe(float64(matches))
	}
}

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func RecordGRPCRequest(m *AppMetrics, method, code string, d time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func RecordScreeningJob(m *AppMetrics, status string, d time.Duration) {
	m.ScreeningJobsTotal.WithLabelValues(status).Inc()
	m.ScreeningJobDuration.WithLabelValues(status).Observe(d.Seconds())
}

func RecordDBQuery(m *AppMetrics, db, operation string, d time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(db, operation).Observe(d.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
