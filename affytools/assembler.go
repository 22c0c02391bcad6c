// ===========================================================================
//
// File Name:  assembler.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"cmp"
	"fmt"
	"slices"
)

// role kinds for positional columns
const (
	MARKERROLE = iota
	INDIVIDUALROLE
	GENOTYPEROLE
)

// optionalID is an identifier that may not have been seen yet on the current line
type optionalID struct {
	id  int
	set bool
}

// RowAssembler rebuilds (marker, individual, genotype) rows from a token
// stream and stores each call in the matrix. Column roles are positional;
// columns without a role are ignored.
type RowAssembler struct {
	cfg         *Config
	markers     *Registry
	individuals *Registry
	genotypes   *Registry
	matrix      *GenotypeMatrix
	diag        *Diagnostics
	metrics     *Metrics

	// role kinds in column order
	order []int

	dropped int
	late    []int
}

// pendingLine holds one line's role columns until its line end is seen
type pendingLine struct {
	line    int
	words   int
	texts   [3]string
	present [3]bool
}

func (pnd *pendingLine) reset(line int) {

	*pnd = pendingLine{line: line}
}

// NewRowAssembler shares the registries and matrix owned by a pipeline
func NewRowAssembler(cfg *Config, markers, individuals, genotypes *Registry, matrix *GenotypeMatrix, diag *Diagnostics, metrics *Metrics) *RowAssembler {

	asm := &RowAssembler{
		cfg:         cfg,
		markers:     markers,
		individuals: individuals,
		genotypes:   genotypes,
		matrix:      matrix,
		diag:        diag,
		metrics:     metrics,
		order:       []int{MARKERROLE, INDIVIDUALROLE, GENOTYPEROLE},
	}

	slices.SortFunc(asm.order, func(a, b int) int {
		return cmp.Compare(asm.roleColumn(a), asm.roleColumn(b))
	})

	return asm
}

func (asm *RowAssembler) roleColumn(kind int) int {

	switch kind {
	case MARKERROLE:
		return asm.cfg.MarkerColumn
	case INDIVIDUALROLE:
		return asm.cfg.IndividualColumn
	}

	return asm.cfg.GenotypeColumn
}

// Dropped returns the number of genotypes discarded for missing context
func (asm *RowAssembler) Dropped() int {

	return asm.dropped
}

// LateIndividuals returns identifiers of individuals first seen after the first source
func (asm *RowAssembler) LateIndividuals() []int {

	return asm.late
}

func (asm *RowAssembler) resolveMarker(label string) optionalID {

	id, ok := asm.markers.Lookup(label)
	if ok {
		asm.diag.Debug("Found Marker: %s", label)
		return optionalID{id: id, set: true}
	}

	// marker and matrix row identifiers advance together
	id, _ = asm.markers.Register(label)
	row := asm.matrix.AddMarker()
	if row != id {
		panic(fmt.Sprintf("marker registry (%d) and matrix (%d) out of step", id, row))
	}
	asm.metrics.Markers.Set(float64(asm.markers.Len()))
	asm.diag.Debug("New Marker: %s [%d]", label, id)

	return optionalID{id: id, set: true}
}

func (asm *RowAssembler) resolveIndividual(label string, first bool) optionalID {

	id, isNew := asm.individuals.Register(label)
	if !isNew {
		return optionalID{id: id, set: true}
	}

	if !first {
		// header is already fixed, column will be unnamed
		asm.diag.Warning("new individual (%s) added after first file", label)
		asm.late = append(asm.late, id)
		asm.metrics.LateIndividuals.Inc()
	}
	asm.metrics.Individuals.Set(float64(asm.individuals.Len()))
	asm.diag.Debug("New Individual: %s [%d]", label, id)

	return optionalID{id: id, set: true}
}

func (asm *RowAssembler) resolveGenotype(label string) int {

	id, isNew := asm.genotypes.Register(label)
	if isNew {
		asm.metrics.GenotypeCodes.Set(float64(asm.genotypes.Len()))
		asm.diag.Debug("New Genotype: %s [%d]", label, id)
	}

	return id
}

// Assemble consumes one source until end of input and returns the number of
// lines read. Only read errors and matrix misuse are returned; malformed rows
// are reported and skipped. A line is stored once its line end is seen, so
// the unterminated last line of a truncated source is discarded.
func (asm *RowAssembler) Assemble(name string, tkz *Tokenizer, first bool) (int, error) {

	var pnd pendingLine
	pnd.reset(1)

	column := 0
	progress := asm.diag.NewProgress(asm.progressInterval())

	for {
		tkn := tkz.Next()

		switch tkn.Type {

		case EOFTOKEN:
			progress.Done()
			// last line in a text file is (or should be) empty
			lines := tkz.LineNumber() - 1
			asm.metrics.LinesRead.Add(float64(lines))
			if err := tkz.Err(); err != nil {
				return lines, fmt.Errorf("error reading '%s' near line %d: %w", name, tkz.LineNumber(), err)
			}
			if trunc := tkz.Truncation(); trunc != nil {
				asm.diag.Warning("'%s' ends early (%v), read as complete", name, trunc)
				if pnd.words > 0 {
					asm.diag.Warning("unterminated line %d of '%s' discarded", pnd.line, name)
				}
				return lines, nil
			}
			if err := asm.commit(name, &pnd, first); err != nil {
				return lines, err
			}
			return lines, nil

		case EOLTOKEN:
			progress.Tick()
			if err := asm.commit(name, &pnd, first); err != nil {
				return tkz.LineNumber() - 1, err
			}
			column = 0
			pnd.reset(tkz.LineNumber())

		case WORDTOKEN, NUMBERTOKEN:
			pnd.words++
			for _, kind := range asm.order {
				if asm.roleColumn(kind) == column {
					pnd.texts[kind] = tkn.Text
					pnd.present[kind] = true
				}
			}
			column++
		}
	}
}

// commit resolves a line's role columns in column order and stores its call
func (asm *RowAssembler) commit(name string, pnd *pendingLine, first bool) error {

	var (
		marker optionalID
		indiv  optionalID
	)

	for _, kind := range asm.order {

		if !pnd.present[kind] {
			continue
		}
		label := pnd.texts[kind]

		switch kind {
		case MARKERROLE:
			marker = asm.resolveMarker(label)
		case INDIVIDUALROLE:
			indiv = asm.resolveIndividual(label, first)
		case GENOTYPEROLE:
			code := asm.resolveGenotype(label)
			if !marker.set || !indiv.set {
				asm.diag.Warning("genotype before individual/marker on line %d of '%s'", pnd.line, name)
				asm.dropped++
				asm.metrics.RowsDropped.Inc()
				continue
			}
			if err := asm.matrix.Set(marker.id, indiv.id, code); err != nil {
				return fmt.Errorf("line %d of '%s': %w", pnd.line, name, err)
			}
			asm.metrics.CallsStored.Inc()
		}
	}

	return nil
}

func (asm *RowAssembler) progressInterval() int {

	if !asm.cfg.Progress {
		return 0
	}

	return asm.cfg.LineDots
}
