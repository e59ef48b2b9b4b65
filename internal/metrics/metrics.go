// Package metrics holds the Prometheus collectors for rendering and delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emailbuilder_renders_total",
		Help: "Template renders by result (ok, not_found, error)",
	}, []string{"result"})

	Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emailbuilder_deliveries_total",
		Help: "Email deliveries by result (sent, failed, enqueued)",
	}, []string{"result"})

	RenderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emailbuilder_render_duration_seconds",
		Help:    "Time spent loading and rendering a template",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)

// Register registers the collectors on reg (or the default registry if nil).
// Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{Renders, Deliveries, RenderDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
