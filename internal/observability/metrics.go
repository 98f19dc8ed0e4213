package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// collector, the aggregation jobs, and the query service. Each binary touches
// only its own subset; the rest stay at zero.
type Metrics struct {
	// Extraction metrics.
	FetchRequests    *prometheus.CounterVec   // labels: location, outcome={success,error}
	FetchDuration    *prometheus.HistogramVec // labels: location
	RecordsCollected prometheus.Counter
	RecordsPublished prometheus.Counter
	CollectorRunning prometheus.Gauge

	// Aggregation job metrics.
	JobLinesRead     *prometheus.CounterVec   // labels: job
	JobMalformedRows *prometheus.CounterVec   // labels: job
	JobGroupsEmitted *prometheus.CounterVec   // labels: job
	JobDuration      *prometheus.HistogramVec // labels: job

	// Query service metrics.
	ResultLoads *prometheus.CounterVec // labels: job, outcome={success,missing,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_mapreduce",
			Name:      "fetch_requests_total",
			Help:      "Open-Meteo archive requests by location and outcome.",
		}, []string{"location", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_mapreduce",
			Name:      "fetch_duration_seconds",
			Help:      "Open-Meteo archive request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"location"}),
		RecordsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_mapreduce",
			Name:      "records_collected_total",
			Help:      "Daily records written to the unified stream.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_mapreduce",
			Name:      "records_published_total",
			Help:      "Records mirrored to the Kafka stream topic.",
		}),
		CollectorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_mapreduce",
			Name:      "collector_running",
			Help:      "1 while an extraction run is active, 0 otherwise.",
		}),
		JobLinesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_mapreduce",
			Name:      "job_lines_read_total",
			Help:      "Input lines read from the unified stream by job.",
		}, []string{"job"}),
		JobMalformedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_mapreduce",
			Name:      "job_malformed_rows_total",
			Help:      "Input lines skipped as malformed by job.",
		}, []string{"job"}),
		JobGroupsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_mapreduce",
			Name:      "job_groups_emitted_total",
			Help:      "Aggregated groups written to the part file by job.",
		}, []string{"job"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_mapreduce",
			Name:      "job_duration_seconds",
			Help:      "Duration of a complete map-group-reduce run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
		ResultLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_mapreduce",
			Name:      "result_loads_total",
			Help:      "Part file loads by the query service, by job and outcome.",
		}, []string{"job", "outcome"}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.RecordsCollected,
		m.RecordsPublished,
		m.CollectorRunning,
		m.JobLinesRead,
		m.JobMalformedRows,
		m.JobGroupsEmitted,
		m.JobDuration,
		m.ResultLoads,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_mapreduce", Name: "fetch_requests_total"}, []string{"location", "outcome"}),
		FetchDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_mapreduce", Name: "fetch_duration_seconds"}, []string{"location"}),
		RecordsCollected: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_mapreduce", Name: "records_collected_total"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_mapreduce", Name: "records_published_total"}),
		CollectorRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_mapreduce", Name: "collector_running"}),
		JobLinesRead:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_mapreduce", Name: "job_lines_read_total"}, []string{"job"}),
		JobMalformedRows: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_mapreduce", Name: "job_malformed_rows_total"}, []string{"job"}),
		JobGroupsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_mapreduce", Name: "job_groups_emitted_total"}, []string{"job"}),
		JobDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_mapreduce", Name: "job_duration_seconds"}, []string{"job"}),
		ResultLoads:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_mapreduce", Name: "result_loads_total"}, []string{"job", "outcome"}),
	}
}
