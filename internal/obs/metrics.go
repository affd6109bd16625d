package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections      = promauto.NewGauge(prometheus.GaugeOpts{Name: "retls_active_connections", Help: "Connections currently relaying"})
	ConnectionsTotal       = promauto.NewCounter(prometheus.CounterOpts{Name: "retls_connections_total", Help: "Connections accepted"})
	RelayBytesTotal        = promauto.NewCounterVec(prometheus.CounterOpts{Name: "retls_relay_bytes_total", Help: "Bytes relayed by direction"}, []string{"direction"})
	ErrorsTotal            = promauto.NewCounterVec(prometheus.CounterOpts{Name: "retls_errors_total", Help: "Errors by stage"}, []string{"stage"})
	ConnectTimeoutTotal    = promauto.NewCounter(prometheus.CounterOpts{Name: "retls_connect_timeout_total", Help: "Backend connects that hit the deadline"})
	ConnectDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{Name: "retls_connect_duration_seconds", Help: "Backend dial plus handshake seconds", Buckets: prometheus.ExponentialBuckets(0.001, 2, 14)})
	RelayDurationSeconds   = promauto.NewHistogram(prometheus.HistogramOpts{Name: "retls_relay_duration_seconds", Help: "Relay phase lifetime seconds", Buckets: prometheus.ExponentialBuckets(0.01, 2, 16)})
)
