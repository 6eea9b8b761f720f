// Package metrics exposes the router's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vhostlog_lines_read_total",
		Help: "Access log lines read from the input stream.",
	})

	LinesRouted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vhostlog_lines_routed_total",
		Help: "Lines appended to a domain log.",
	})

	BytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vhostlog_bytes_written_total",
		Help: "Bytes appended to domain logs, newlines included.",
	})

	LinesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vhostlog_lines_discarded_total",
		Help: "Lines dropped without error because they carry no routable domain.",
	})

	LineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vhostlog_line_errors_total",
		Help: "Lines that failed to route, by error kind.",
	}, []string{"kind"})
)
