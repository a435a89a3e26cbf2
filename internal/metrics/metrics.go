// Package metrics wires github.com/prometheus/client_golang into the
// collectors spec.md §6 lists: request counts/latency, an errors counter,
// per-worker queue depth gauges, database size, compile/execution time
// histograms, virtual memory usage, and build info.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every collector the service exposes at /metrics.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ErrorsTotal         prometheus.Counter

	WriterQueueDepth prometheus.Gauge
	ReaderQueueDepth prometheus.Gauge
	RunnerQueueDepth prometheus.Gauge

	DatabaseSizeBytes prometheus.Gauge

	WasmCompileDuration   prometheus.Histogram
	WasmExecutionDuration prometheus.Histogram

	VirtualMemoryBytes prometheus.Gauge

	BuildInfo *prometheus.GaugeVec
}

// New registers every collector against a fresh registry, suitable for
// passing to promhttp.HandlerFor at the /metrics route.
func New(reg prometheus.Registerer, version, commit string) *Registry {
	factory := promauto.With(reg)

	m := &Registry{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wess_http_requests_total",
			Help: "Total HTTP requests, by method and path template.",
		}, []string{"method", "path"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wess_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wess_errors_total",
			Help: "Total HTTP responses with status 400 or above; errors logged by the workers are not counted.",
		}),

		WriterQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wess_writer_queue_depth",
			Help: "Current number of jobs queued for the Writer worker.",
		}),
		ReaderQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wess_reader_queue_depth",
			Help: "Current number of jobs queued for the Reader worker.",
		}),
		RunnerQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wess_runner_queue_depth",
			Help: "Current number of jobs queued for the Runner worker.",
		}),

		DatabaseSizeBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wess_database_size_bytes",
			Help: "Size of the embedded key-value store file, in bytes.",
		}),

		WasmCompileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wess_wasm_compile_duration_seconds",
			Help:    "Time spent compiling a Wasm module on a compile-cache miss.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		WasmExecutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wess_wasm_execution_duration_seconds",
			Help:    "Time spent instantiating and invoking a Wasm export.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 20),
		}),

		VirtualMemoryBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wess_process_virtual_memory_bytes",
			Help: "Virtual memory size of the running process.",
		}),

		BuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wess_build_info",
			Help: "Build metadata; value is always 1.",
		}, []string{"version", "commit"}),
	}

	m.BuildInfo.WithLabelValues(version, commit).Set(1)
	return m
}

// ObserveCompile implements workers.CompileTimer.
func (m *Registry) ObserveCompile(d time.Duration) {
	m.WasmCompileDuration.Observe(d.Seconds())
}

// ObserveExecution implements workers.ExecutionTimer.
func (m *Registry) ObserveExecution(d time.Duration) {
	m.WasmExecutionDuration.Observe(d.Seconds())
}
