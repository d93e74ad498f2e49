// Package metrics exposes conversion and page counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shodgson/wysiwym/editor"
)

// Conversion directions.
const (
	ToEditor = "to_editor"
	ToDoc    = "to_doc"
	Markdown = "markdown"
)

// Metrics holds the collectors of the server. A nil *Metrics records
// nothing.
type Metrics struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	pageSaves   *prometheus.CounterVec
}

// New creates the collectors on their own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wysiwym_conversions_total",
				Help: "Total number of tree conversions",
			},
			[]string{"direction", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wysiwym_conversion_duration_seconds",
				Help:    "Duration of tree conversions",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"direction"},
		),
		pageSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wysiwym_page_saves_total",
				Help: "Total number of page saves",
			},
			[]string{"source", "outcome"},
		),
	}
	m.registry.MustRegister(m.conversions, m.duration, m.pageSaves)
	return m
}

// ObserveConversion records a conversion that started at start.
func (m *Metrics) ObserveConversion(direction string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	m.conversions.WithLabelValues(direction, Outcome(err)).Inc()
}

// ObserveSave records a page save from the given form source.
func (m *Metrics) ObserveSave(source string, err error) {
	if m == nil {
		return
	}
	m.pageSaves.WithLabelValues(source, Outcome(err)).Inc()
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var outcomes = []struct {
	err  error
	name string
}{
	{editor.ErrUnknownKind, "unknown_kind"},
	{editor.ErrInconsistentRegistration, "inconsistent_registration"},
	{editor.ErrAmbiguousKind, "ambiguous_kind"},
	{editor.ErrReservedKind, "reserved_kind"},
	{editor.ErrEmptyProduction, "empty_production"},
	{editor.ErrUnsupportedFlow, "unsupported_flow"},
	{editor.ErrNilConversion, "nil_conversion"},
	{editor.ErrPayload, "payload"},
	{editor.ErrNotDocument, "not_document"},
	{editor.ErrStructure, "structure"},
}

// Outcome names the result of a conversion for the outcome label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.name
		}
	}
	return "error"
}
