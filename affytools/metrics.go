// ===========================================================================
//
// File Name:  metrics.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline events in a private registry, one per run
type Metrics struct {
	Registry *prometheus.Registry

	LinesRead       prometheus.Counter
	RowsDropped     prometheus.Counter
	CallsStored     prometheus.Counter
	NoCalls         prometheus.Counter
	LateIndividuals prometheus.Counter
	MarkersEmitted  prometheus.Counter

	Markers       prometheus.Gauge
	Individuals   prometheus.Gauge
	GenotypeCodes prometheus.Gauge
}

// NewMetrics creates and registers all run metrics
func NewMetrics() *Metrics {

	mtr := &Metrics{
		Registry: prometheus.NewRegistry(),
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affy2simplegt_lines_read_total",
			Help: "Input lines consumed across all sources",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affy2simplegt_rows_dropped_total",
			Help: "Genotypes discarded because the marker or individual was missing",
		}),
		CallsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affy2simplegt_calls_stored_total",
			Help: "Genotype calls written into the matrix, including overwrites",
		}),
		NoCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affy2simplegt_no_calls_total",
			Help: "Output cells filled with the no-call string",
		}),
		LateIndividuals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affy2simplegt_late_individuals_total",
			Help: "Individuals first seen after the first source",
		}),
		MarkersEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affy2simplegt_markers_emitted_total",
			Help: "Marker rows written and released",
		}),
		Markers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "affy2simplegt_markers",
			Help: "Distinct markers registered",
		}),
		Individuals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "affy2simplegt_individuals",
			Help: "Distinct individuals registered",
		}),
		GenotypeCodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "affy2simplegt_genotype_codes",
			Help: "Distinct genotype codes registered",
		}),
	}

	mtr.Registry.MustRegister(
		mtr.LinesRead,
		mtr.RowsDropped,
		mtr.CallsStored,
		mtr.NoCalls,
		mtr.LateIndividuals,
		mtr.MarkersEmitted,
		mtr.Markers,
		mtr.Individuals,
		mtr.GenotypeCodes,
	)

	return mtr
}

// WriteTextfile saves the current values in text exposition format
func (mtr *Metrics) WriteTextfile(path string) error {

	return prometheus.WriteToTextfile(path, mtr.Registry)
}
