package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "implantdiag_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	remoteFetchTotal   *prometheus.CounterVec
	remoteFetchLatency *prometheus.HistogramVec

	syncOps *prometheus.CounterVec

	diagnosisRuns    *prometheus.CounterVec
	diagnosisLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total device session ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		cacheHits = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "record_cache_hits_total",
				Help: "Record cache hits by kind",
			},
			[]string{"kind"},
		)
		cacheMisses = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "record_cache_misses_total",
				Help: "Record cache misses by kind",
			},
			[]string{"kind"},
		)

		remoteFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "remote_fetch_total",
				Help: "Remote record list fetches by kind and result",
			},
			[]string{"kind", "result"},
		)
		remoteFetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "remote_fetch_latency_seconds",
				Help:    "Remote record list fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)

		syncOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "record_sync_ops_total",
				Help: "Record save/delete operations by op, kind and result",
			},
			[]string{"op", "kind", "result"},
		)

		diagnosisRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "diagnosis_runs_total",
				Help: "Diagnosis runs by result",
			},
			[]string{"result"},
		)
		diagnosisLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "diagnosis_latency_seconds",
				Help:    "Diagnosis latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			cacheHits,
			cacheMisses,
			remoteFetchTotal,
			remoteFetchLatency,
			syncOps,
			diagnosisRuns,
			diagnosisLatency,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// IncCacheHit increments the cache hit counter for a record kind.
func IncCacheHit(kind string) {
	if cacheHits != nil {
		cacheHits.WithLabelValues(kind).Inc()
	}
}

// IncCacheMiss increments the cache miss counter for a record kind.
func IncCacheMiss(kind string) {
	if cacheMisses != nil {
		cacheMisses.WithLabelValues(kind).Inc()
	}
}

// ObserveRemoteFetch records a remote list fetch latency and result.
func ObserveRemoteFetch(kind, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if remoteFetchTotal != nil {
		remoteFetchTotal.WithLabelValues(kind, result).Inc()
	}
	if remoteFetchLatency != nil {
		remoteFetchLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// IncSyncOp increments the save/delete counter.
func IncSyncOp(op, kind, result string) {
	if result == "" {
		result = resultSuccess
	}
	if syncOps != nil {
		syncOps.WithLabelValues(op, kind, result).Inc()
	}
}

// ObserveDiagnosis records diagnosis run latency and result.
func ObserveDiagnosis(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if diagnosisRuns != nil {
		diagnosisRuns.WithLabelValues(result).Inc()
	}
	if diagnosisLatency != nil {
		diagnosisLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records report export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
