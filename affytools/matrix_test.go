package affytools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixSetGet(t *testing.T) {

	mtx := NewGenotypeMatrix(0)

	m0 := mtx.AddMarker()
	m1 := mtx.AddMarker()
	require.Equal(t, 0, m0)
	require.Equal(t, 1, m1)

	require.NoError(t, mtx.Set(m0, 0, 3))
	require.NoError(t, mtx.Set(m1, 5, 0))

	code, ok := mtx.Get(m0, 0)
	assert.True(t, ok)
	assert.Equal(t, 3, code)

	// code 0 is a real call, distinct from absence
	code, ok = mtx.Get(m1, 5)
	assert.True(t, ok)
	assert.Equal(t, 0, code)

	_, ok = mtx.Get(m1, 4)
	assert.False(t, ok)
	_, ok = mtx.Get(m0, 100)
	assert.False(t, ok)
	_, ok = mtx.Get(7, 0)
	assert.False(t, ok)

	assert.Equal(t, 2, mtx.Markers())
	assert.Equal(t, 2, mtx.Calls())
}

func TestMatrixOverwrite(t *testing.T) {

	mtx := NewGenotypeMatrix(1)
	m := mtx.AddMarker()

	require.NoError(t, mtx.Set(m, 2, 1))
	require.NoError(t, mtx.Set(m, 2, 4))

	code, ok := mtx.Get(m, 2)
	assert.True(t, ok)
	assert.Equal(t, 4, code)
	assert.Equal(t, 1, mtx.Calls())
}

func TestMatrixErrors(t *testing.T) {

	mtx := NewGenotypeMatrix(0)

	err := mtx.Set(0, 0, 0)
	assert.True(t, errors.Is(err, ErrUnknownMarker))

	m := mtx.AddMarker()
	assert.Error(t, mtx.Set(m, -1, 0))
}

func TestMatrixDrainReleasesRows(t *testing.T) {

	mtx := NewGenotypeMatrix(0)
	for i := 0; i < 3; i++ {
		m := mtx.AddMarker()
		require.NoError(t, mtx.Set(m, i, i))
	}

	visited := []int{}
	err := mtx.Drain(func(marker int, row *GenotypeRow) error {
		visited = append(visited, marker)
		assert.Equal(t, 1, row.Called())
		code, ok := row.Get(marker)
		assert.True(t, ok)
		assert.Equal(t, marker, code)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, visited)
	assert.Equal(t, 3, mtx.Released())

	// drained rows cannot be read or written again
	_, ok := mtx.Get(0, 0)
	assert.False(t, ok)
	assert.ErrorIs(t, mtx.Set(1, 0, 0), ErrMarkerReleased)

	calls := 0
	require.NoError(t, mtx.Drain(func(int, *GenotypeRow) error {
		calls++
		return nil
	}))
	assert.Equal(t, 0, calls)
}

func TestMatrixDrainStopsOnError(t *testing.T) {

	mtx := NewGenotypeMatrix(0)
	mtx.AddMarker()
	mtx.AddMarker()

	boom := errors.New("write failed")
	err := mtx.Drain(func(marker int, row *GenotypeRow) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mtx.Released())
}

func TestGenotypeRowGrowth(t *testing.T) {

	row := newGenotypeRow()
	row.set(0, 1)
	row.set(1000, 2)
	row.set(3, 3)

	assert.Equal(t, 3, row.Called())

	code, ok := row.Get(1000)
	assert.True(t, ok)
	assert.Equal(t, 2, code)

	code, ok = row.Get(0)
	assert.True(t, ok)
	assert.Equal(t, 1, code)

	_, ok = row.Get(500)
	assert.False(t, ok)
	_, ok = row.Get(-1)
	assert.False(t, ok)
}
