// ===========================================================================
//
// File Name:  pipeline.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrPipelineFinished is returned when a source is added after output has been drained
var ErrPipelineFinished = errors.New("pipeline already finished")

// initial capacities, grown as needed
const (
	expectedMarkers     = 1 << 16
	expectedIndividuals = 1 << 10
	expectedGenotypes   = 17
)

// Pipeline converts tall (marker, individual, genotype) rows from one or more
// sources into simplegt. The first source fixes the header; all sources are
// merged before any marker row is written.
type Pipeline struct {
	cfg  *Config
	diag *Diagnostics

	Markers     *Registry
	Individuals *Registry
	Genotypes   *Registry
	Metrics     *Metrics

	matrix    *GenotypeMatrix
	assembler *RowAssembler
	emitter   *Emitter

	sources  int
	lines    int
	started  time.Time
	finished bool
}

// NewPipeline writes simplegt to out and diagnostics to diag
func NewPipeline(cfg *Config, out io.Writer, diag *Diagnostics) (*Pipeline, error) {

	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if diag == nil {
		diag = NewDiagnostics(nil, false)
	}

	pln := &Pipeline{
		cfg:         cfg,
		diag:        diag,
		Markers:     NewRegistry("marker", expectedMarkers),
		Individuals: NewRegistry("individual", expectedIndividuals),
		Genotypes:   NewRegistry("genotype code", expectedGenotypes),
		Metrics:     NewMetrics(),
		matrix:      NewGenotypeMatrix(expectedMarkers),
		started:     time.Now(),
	}

	pln.assembler = NewRowAssembler(cfg, pln.Markers, pln.Individuals, pln.Genotypes, pln.matrix, diag, pln.Metrics)
	pln.emitter = NewEmitter(out, cfg, diag, pln.Metrics)

	return pln, nil
}

// Lines returns the number of lines read from all sources so far
func (pln *Pipeline) Lines() int {

	return pln.lines
}

// Ingest reads one decoded source into the shared registries and matrix.
// The header is written as soon as the first source is complete.
func (pln *Pipeline) Ingest(name string, inp io.Reader) (int, error) {

	if pln.finished {
		return 0, fmt.Errorf("unable to read '%s': %w", name, ErrPipelineFinished)
	}

	first := pln.sources == 0

	if pln.cfg.Progress && pln.cfg.LineDots > 0 {
		pln.diag.Notice("Reading %s (one '.' per %d lines)", name, pln.cfg.LineDots)
	} else {
		pln.diag.Notice("Reading %s", name)
	}

	lines, err := pln.assembler.Assemble(name, NewTokenizer(inp), first)
	pln.sources++
	pln.lines += lines
	if err != nil {
		return lines, err
	}

	pln.diag.Notice("%s read", pln.diag.CountOf(lines, "line"))

	if !pln.emitter.HeaderWritten() {
		if err := pln.emitter.WriteHeader(pln.Individuals); err != nil {
			return lines, err
		}
	}

	return lines, nil
}

// Finish writes every marker row, in order of first appearance, releasing
// matrix rows as they go. It can only be called once.
func (pln *Pipeline) Finish() error {

	if pln.finished {
		return ErrPipelineFinished
	}
	pln.finished = true

	// no sources, still produce a well-formed (empty) file
	if err := pln.emitter.WriteHeader(pln.Individuals); err != nil {
		return err
	}

	if late := pln.assembler.LateIndividuals(); len(late) > 0 {
		labels := make([]string, 0, len(late))
		for _, id := range late {
			labels = append(labels, pln.Individuals.Label(id))
		}
		pln.diag.Warning("%s after column %d are not named in the header: %s",
			pln.diag.CountOf(len(late), pln.Individuals.Name()), pln.emitter.HeaderWidth(), strings.Join(labels, " "))
	}

	if pln.cfg.Progress && pln.cfg.MarkerDots > 0 {
		pln.diag.Notice("Writing genotypes to output (one '.' per %d markers)", pln.cfg.MarkerDots)
	} else {
		pln.diag.Notice("Writing genotypes to output")
	}

	count, err := pln.emitter.Drain(pln.Markers, pln.Individuals, pln.Genotypes, pln.matrix)
	if err != nil {
		return fmt.Errorf("unable to write genotypes: %w", err)
	}
	if err := pln.emitter.Flush(); err != nil {
		return fmt.Errorf("unable to write genotypes: %w", err)
	}

	d := pln.diag
	d.Notice("Wrote %s for %s (%s, %s stored, %s)",
		d.CountOf(count, pln.Markers.Name()),
		d.CountOf(pln.Individuals.Len(), pln.Individuals.Name()),
		d.CountOf(pln.Genotypes.Len(), pln.Genotypes.Name()),
		d.CountOf(pln.matrix.Calls(), "call"),
		d.CountOf(pln.emitter.NoCalls(), "no-call"))

	if dropped := pln.assembler.Dropped(); dropped > 0 {
		d.Warning("%s dropped for missing marker or individual", d.CountOf(dropped, "genotype"))
	}

	d.Notice("Completed in %.3f seconds", time.Since(pln.started).Seconds())

	return nil
}

// Elapsed returns the time since the pipeline was created
func (pln *Pipeline) Elapsed() time.Duration {

	return time.Since(pln.started)
}

// Run opens and ingests each named source in order, stopping at the first
// source that cannot be read, then writes all markers
func (pln *Pipeline) Run(ctx context.Context, names []string) error {

	for _, name := range names {

		if err := ctx.Err(); err != nil {
			return err
		}

		src, err := OpenSource(ctx, name, pln.cfg)
		if err != nil {
			return err
		}

		if src.Encoding != PLAINTEXT {
			pln.diag.Debug("Decoding %s as %s", src.Name, src.Encoding)
		}

		_, err = pln.Ingest(src.Name, src)
		cerr := src.Close()
		if err != nil {
			return err
		}
		if cerr != nil {
			return fmt.Errorf("unable to close '%s': %w", name, cerr)
		}
	}

	if err := pln.Finish(); err != nil {
		return err
	}

	if pln.cfg.MetricsFile != "" {
		if err := pln.Metrics.WriteTextfile(pln.cfg.MetricsFile); err != nil {
			return fmt.Errorf("unable to write metrics to '%s': %w", pln.cfg.MetricsFile, err)
		}
	}

	return nil
}
