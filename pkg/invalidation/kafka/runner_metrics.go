package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricSet struct {
	msgs     *prometheus.CounterVec
	proc     *prometheus.HistogramVec
	lagGauge prometheus.Gauge
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		msgs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landuse_inval_msgs_total",
				Help: "Count of consumed invalidation messages by result.",
			},
			[]string{"result"},
		),
		proc: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "landuse_inval_processing_seconds",
				Help:    "Processing time for one invalidation message.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"op"},
		),
		lagGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "landuse_inval_lag_seconds",
				Help: "Approximate lag: now - message.timestamp.",
			},
		),
	}
	if r != nil {
		r.MustRegister(m.msgs, m.proc, m.lagGauge)
	}
	return m
}

func newProducedCounter(r prometheus.Registerer) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landuse_inval_produced_total",
			Help: "Invalidation events produced by result.",
		},
		[]string{"result"},
	)
	if r != nil {
		r.MustRegister(c)
	}
	return c
}
