// Package metrics provides Prometheus metrics collection for contentcore.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contentcore"

// Collector holds all Prometheus metrics for contentcore.
type Collector struct {
	// Validation metrics
	Validations  *prometheus.CounterVec
	FieldLoads   *prometheus.CounterVec
	FieldsLoaded prometheus.Gauge

	// Filter metrics
	FilterEvaluations *prometheus.CounterVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newCollector(promauto.With(reg))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of field validations by field type and result",
			},
			[]string{"field_type", "result"},
		),
		FieldLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_loads_total",
				Help:      "Total number of validator field loads by result",
			},
			[]string{"result"},
		),
		FieldsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fields_loaded",
				Help:      "Number of fields in the most recently loaded validator snapshot",
			},
		),
		FilterEvaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_evaluations_total",
				Help:      "Total number of in-memory filter evaluations by result",
			},
			[]string{"result"},
		),
		StoreOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of item store operations",
			},
			[]string{"driver", "operation", "result"},
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Item store operation duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"driver", "operation"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_cache_lookups_total",
				Help:      "Total number of field cache lookups by result",
			},
			[]string{"result"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
	}
}

// RecordValidation counts one field validation.
func (c *Collector) RecordValidation(fieldType string, success bool) {
	c.Validations.WithLabelValues(fieldType, outcome(success, "success", "failure")).Inc()
}

// RecordFieldLoad counts one validator load and records the snapshot size.
func (c *Collector) RecordFieldLoad(result string, loaded int) {
	c.FieldLoads.WithLabelValues(result).Inc()
	c.FieldsLoaded.Set(float64(loaded))
}

// ObserveFilter counts one filter evaluation. It matches the filter
// handler's observer signature.
func (c *Collector) ObserveFilter(matched bool) {
	c.FilterEvaluations.WithLabelValues(outcome(matched, "match", "miss")).Inc()
}

// RecordCacheLookup counts one field cache lookup.
func (c *Collector) RecordCacheLookup(hit bool) {
	c.CacheLookups.WithLabelValues(outcome(hit, "hit", "miss")).Inc()
}

// RecordConfigReload counts a config reload attempt.
func (c *Collector) RecordConfigReload(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
