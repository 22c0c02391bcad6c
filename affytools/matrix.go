// ===========================================================================
//
// File Name:  matrix.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrUnknownMarker is returned for a marker identifier the matrix never allocated
var ErrUnknownMarker = errors.New("unknown marker")

// ErrMarkerReleased is returned when a marker row is touched after it was drained
var ErrMarkerReleased = errors.New("marker already released")

// GenotypeRow holds one marker's calls, indexed by individual identifier.
// The presence bitmap distinguishes "no call recorded" from any stored code.
type GenotypeRow struct {
	codes  []uint32
	called *roaring.Bitmap
}

func newGenotypeRow() *GenotypeRow {

	return &GenotypeRow{called: roaring.New()}
}

// Get returns the genotype code stored for an individual
func (row *GenotypeRow) Get(indiv int) (int, bool) {

	if indiv < 0 || !row.called.Contains(uint32(indiv)) {
		return 0, false
	}

	return int(row.codes[indiv]), true
}

// Called returns the number of individuals with a stored call
func (row *GenotypeRow) Called() int {

	return int(row.called.GetCardinality())
}

func (row *GenotypeRow) set(indiv, code int) {

	if indiv >= len(row.codes) {
		// grow on demand, late individuals extend past the current width
		size := max(indiv+1, 2*len(row.codes))
		codes := make([]uint32, indiv+1, size)
		copy(codes, row.codes)
		row.codes = codes
	}

	row.codes[indiv] = uint32(code)
	row.called.Add(uint32(indiv))
}

// GenotypeMatrix accumulates calls as [marker][individual] -> genotype code.
// Rows are released one at a time by Drain and cannot be revisited.
type GenotypeMatrix struct {
	rows     []*GenotypeRow
	calls    int
	released int
}

// NewGenotypeMatrix creates an empty matrix, sized for the expected number of markers
func NewGenotypeMatrix(capacity int) *GenotypeMatrix {

	if capacity < 0 {
		capacity = 0
	}

	return &GenotypeMatrix{rows: make([]*GenotypeRow, 0, capacity)}
}

// AddMarker appends an empty row and returns its marker identifier
func (mtx *GenotypeMatrix) AddMarker() int {

	mtx.rows = append(mtx.rows, newGenotypeRow())

	return len(mtx.rows) - 1
}

// Markers returns the number of marker rows ever allocated
func (mtx *GenotypeMatrix) Markers() int {

	return len(mtx.rows)
}

// Calls returns the number of distinct (marker, individual) pairs stored
func (mtx *GenotypeMatrix) Calls() int {

	return mtx.calls
}

// Released returns the number of rows already drained
func (mtx *GenotypeMatrix) Released() int {

	return mtx.released
}

func (mtx *GenotypeMatrix) row(marker int) (*GenotypeRow, error) {

	if marker < 0 || marker >= len(mtx.rows) {
		return nil, fmt.Errorf("marker %d: %w", marker, ErrUnknownMarker)
	}

	row := mtx.rows[marker]
	if row == nil {
		return nil, fmt.Errorf("marker %d: %w", marker, ErrMarkerReleased)
	}

	return row, nil
}

// Set stores a genotype code, overwriting any earlier call for the same pair
func (mtx *GenotypeMatrix) Set(marker, indiv, code int) error {

	if indiv < 0 {
		return fmt.Errorf("negative individual %d for marker %d", indiv, marker)
	}

	row, err := mtx.row(marker)
	if err != nil {
		return err
	}

	if !row.called.Contains(uint32(indiv)) {
		mtx.calls++
	}
	row.set(indiv, code)

	return nil
}

// Get returns the genotype code stored for a pair
func (mtx *GenotypeMatrix) Get(marker, indiv int) (int, bool) {

	row, err := mtx.row(marker)
	if err != nil {
		return 0, false
	}

	return row.Get(indiv)
}

// Drain visits rows in marker order, releasing each row after proc returns.
// Rows released by an earlier Drain are skipped. Draining stops at the first error.
func (mtx *GenotypeMatrix) Drain(proc func(marker int, row *GenotypeRow) error) error {

	for marker, row := range mtx.rows {

		if row == nil {
			continue
		}

		err := proc(marker, row)

		// free memory for markers that have been output
		mtx.rows[marker] = nil
		mtx.released++

		if err != nil {
			return err
		}
	}

	return nil
}
