// Package metrics BOM服务的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 导入结果标签
const (
	StatusOK       = "ok"
	StatusInvalid  = "invalid"
	StatusRejected = "rejected"
	StatusError    = "error"
)

var (
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_imports_total",
			Help: "Total number of BOM file imports by outcome",
		},
		[]string{"format", "status"},
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bom_import_duration_seconds",
			Help:    "Time taken to validate and persist a BOM file",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	NodesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_nodes_created_total",
			Help: "Total number of assembly nodes created by imports",
		},
	)

	ComponentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_components_created_total",
			Help: "Total number of catalog components created by imports",
		},
	)

	RowErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_row_errors_total",
			Help: "Total number of rows rejected by validation",
		},
	)

	DumpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bom_dump_duration_seconds",
			Help:    "Time taken to reconstruct a stored tree",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"scope", "cache"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bom_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordImport 记录一次导入
func RecordImport(format, status string, duration time.Duration) {
	ImportsTotal.WithLabelValues(format, status).Inc()
	ImportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// RecordBuild 记录建树产出
func RecordBuild(nodes, components int) {
	NodesCreated.Add(float64(nodes))
	ComponentsCreated.Add(float64(components))
}

// RecordDump 记录一次展开，scope 为 item 或 forest
func RecordDump(scope string, cached bool, duration time.Duration) {
	hit := "miss"
	if cached {
		hit = "hit"
	}
	DumpDuration.WithLabelValues(scope, hit).Observe(duration.Seconds())
}

// RecordHTTP 记录HTTP请求
func RecordHTTP(method, route, status string, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
