// Package metrics2 exposes gauges, counters, liveness and timers backed by
// Prometheus.
package metrics2

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lwz9103/conbench/go/sklog"
)

// Int64Metric is a gauge holding an int64.
type Int64Metric interface {
	Get() int64
	Update(v int64)
}

// Float64Metric is a gauge holding a float64.
type Float64Metric interface {
	Get() float64
	Update(v float64)
}

// Counter is a monotonic-by-convention int64 metric.
type Counter interface {
	Get() int64
	Inc(i int64)
	Reset()
}

// Client creates metrics.
type Client interface {
	GetInt64Metric(name string, tags ...map[string]string) Int64Metric
	GetFloat64Metric(name string, tags ...map[string]string) Float64Metric
	GetCounter(name string, tags ...map[string]string) Counter
	NewLiveness(name string, tags ...map[string]string) Liveness
	NewTimer(name string, tags ...map[string]string) Timer
}

var defaultClient Client = newPromClient()

// GetInt64Metric returns a gauge from the default client.
func GetInt64Metric(name string, tags ...map[string]string) Int64Metric {
	return defaultClient.GetInt64Metric(name, tags...)
}

// GetFloat64Metric returns a gauge from the default client.
func GetFloat64Metric(name string, tags ...map[string]string) Float64Metric {
	return defaultClient.GetFloat64Metric(name, tags...)
}

// GetCounter returns a counter from the default client.
func GetCounter(name string, tags ...map[string]string) Counter {
	return defaultClient.GetCounter(name, tags...)
}

// NewLiveness returns a liveness from the default client.
func NewLiveness(name string, tags ...map[string]string) Liveness {
	return defaultClient.NewLiveness(name, tags...)
}

// NewTimer returns a started timer from the default client.
func NewTimer(name string, tags ...map[string]string) Timer {
	return defaultClient.NewTimer(name, tags...)
}

// InitPrometheus serves /metrics on port, e.g. ":20000", in a background
// goroutine.
func InitPrometheus(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		srv := &http.Server{
			Addr:              port,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		sklog.Infof("Serving metrics on %s", port)
		if err := srv.ListenAndServe(); err != nil {
			sklog.Errorf("Metrics server stopped: %s", err)
		}
	}()
}
