// ===========================================================================
//
// File Name:  emitter.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/time/rate"
)

// Each population in a simplegt header is wrapped by these markers. Headers
// for several populations can be concatenated on the first line, possibly
// without the leading "##", so GNU join can combine simplegt files.
const (
	HeaderOpen  = "## <Individual/Column IDs: "
	HeaderClose = " > ##"
)

// Emitter writes the simplegt header once, then drains the matrix in marker order
type Emitter struct {
	wrtr    *bufio.Writer
	noCall  string
	dots    int
	diag    *Diagnostics
	metrics *Metrics

	limited  bool
	warnings rate.Sometimes

	headerWritten bool
	headerWidth   int
	noCalls       int
}

// NewEmitter buffers output to out
func NewEmitter(out io.Writer, cfg *Config, diag *Diagnostics, metrics *Metrics) *Emitter {

	emt := &Emitter{
		wrtr:    bufio.NewWriterSize(out, 65536),
		noCall:  cfg.NoCall,
		diag:    diag,
		metrics: metrics,
	}

	if emt.noCall == "" {
		emt.noCall = DefaultNoCall
	}
	if cfg.Progress {
		emt.dots = cfg.MarkerDots
	}
	if cfg.WarnLimit > 0 {
		emt.limited = true
		emt.warnings = rate.Sometimes{First: cfg.WarnLimit}
	}

	return emt
}

// HeaderWritten reports whether the header line has been emitted
func (emt *Emitter) HeaderWritten() bool {

	return emt.headerWritten
}

// HeaderWidth returns the number of individuals named in the header
func (emt *Emitter) HeaderWidth() int {

	return emt.headerWidth
}

// NoCalls returns the number of cells filled with the no-call string
func (emt *Emitter) NoCalls() int {

	return emt.noCalls
}

// WriteHeader names every known individual in identifier order. Only the
// first call writes anything.
func (emt *Emitter) WriteHeader(individuals *Registry) error {

	if emt.headerWritten {
		return nil
	}

	var buffer strings.Builder

	buffer.WriteString(HeaderOpen)
	for _, label := range individuals.labels {
		buffer.WriteString(label)
		buffer.WriteString(" ")
	}
	buffer.WriteString(HeaderClose)
	buffer.WriteString("\n")

	emt.headerWritten = true
	emt.headerWidth = individuals.Len()

	_, err := emt.wrtr.WriteString(buffer.String())
	return err
}

// Drain writes one line per marker, in order of first appearance, and frees
// each matrix row after it is written. Every line has a column for each
// individual known now, including individuals the header does not name.
func (emt *Emitter) Drain(markers, individuals, genotypes *Registry, matrix *GenotypeMatrix) (int, error) {

	width := individuals.Len()

	progress := emt.diag.NewProgress(emt.dots)

	var buffer strings.Builder

	count := 0

	err := matrix.Drain(func(marker int, row *GenotypeRow) error {

		progress.Tick()

		label := markers.Label(marker)

		buffer.Reset()
		buffer.WriteString(label)

		missing := width - row.Called()
		emt.noCalls += missing
		emt.metrics.NoCalls.Add(float64(missing))

		for indiv := 0; indiv < width; indiv++ {
			buffer.WriteString(" ")
			code, ok := row.Get(indiv)
			if !ok {
				// each un-genotyped individual for a known marker gets the no-call string
				emt.warnNoCall(indiv, label)
				buffer.WriteString(emt.noCall)
				continue
			}
			buffer.WriteString(genotypes.Label(code))
		}
		buffer.WriteString("\n")

		if _, err := emt.wrtr.WriteString(buffer.String()); err != nil {
			return err
		}

		count++
		emt.metrics.MarkersEmitted.Inc()

		return nil
	})

	progress.Done()

	if emt.limited && emt.noCalls > emt.warnings.First {
		emt.diag.Warning("%s, only the first %d reported", emt.diag.CountOf(emt.noCalls, "missing genotype"), emt.warnings.First)
	}

	return count, err
}

func (emt *Emitter) warnNoCall(indiv int, marker string) {

	if !emt.limited {
		emt.diag.Warning("no genotype for individual #%d, marker %s", indiv, marker)
		return
	}

	emt.warnings.Do(func() {
		emt.diag.Warning("no genotype for individual #%d, marker %s", indiv, marker)
	})
}

// Flush writes any buffered output
func (emt *Emitter) Flush() error {

	return emt.wrtr.Flush()
}
