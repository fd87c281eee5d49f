package rng

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/guyde2011/assemblies/types"
)

// Order selects the memory layout of a Matrix's backing slice.
type Order int

const (
	// RowMajor lays out Data as Rows contiguous rows of Cols entries.
	RowMajor Order = iota
	// ColMajor lays out Data as Cols contiguous columns of Rows entries,
	// so a destination neuron's incoming column is contiguous in memory
	// (spec §4.1) — this is the layout connectome connections use.
	ColMajor
)

// Matrix is a dense Rows x Cols matrix of float32 weights, matching the
// single-precision contract spec §4.4/§9 place on the projection engine.
type Matrix struct {
	Rows, Cols int
	Order      Order
	Data       []float32
}

// NewMatrix allocates a zeroed Rows x Cols matrix in the given layout.
func NewMatrix(rows, cols int, order Order) *Matrix {
	return &Matrix{
		Rows:  rows,
		Cols:  cols,
		Order: order,
		Data:  make([]float32, rows*cols),
	}
}

func (m *Matrix) index(i, j int) int {
	if m.Order == ColMajor {
		return j*m.Rows + i
	}
	return i*m.Cols + j
}

// At returns the weight at row i, column j.
func (m *Matrix) At(i, j int) float32 {
	return m.Data[m.index(i, j)]
}

// Set stores the weight at row i, column j.
func (m *Matrix) Set(i, j int, v float32) {
	m.Data[m.index(i, j)] = v
}

// Column returns column j. In ColMajor layout this is a zero-copy view into
// Data; in RowMajor it is a freshly gathered copy.
func (m *Matrix) Column(j int) []float32 {
	if m.Order == ColMajor {
		start := j * m.Rows
		return m.Data[start : start+m.Rows]
	}
	col := make([]float32, m.Rows)
	for i := range col {
		col[i] = m.At(i, j)
	}
	return col
}

// ColSum returns the sum over all rows of column j — the contribution a
// fully-firing stimulus neuron population makes to destination neuron j
// (spec §4.4 step 1).
func (m *Matrix) ColSum(j int) float32 {
	var sum float32
	for _, v := range m.Column(j) {
		sum += v
	}
	return sum
}

// AddAllColSumsInto accumulates every column's sum into dst (len(dst) ==
// m.Cols), modeling a stimulus whose every neuron fires every round.
func (m *Matrix) AddAllColSumsInto(dst []float32) {
	for j := 0; j < m.Cols; j++ {
		dst[j] += m.ColSum(j)
	}
}

// AddRowInto accumulates row i into dst (len(dst) == m.Cols) — the
// contribution one winner neuron of a source area makes to its targets.
func (m *Matrix) AddRowInto(i int, dst []float32) {
	for j := 0; j < m.Cols; j++ {
		dst[j] += m.At(i, j)
	}
}

// AddRowIntoChecked is AddRowInto with i validated against Rows first,
// returning types.ErrDimensionMismatch instead of panicking on an
// out-of-range row (spec §4.4: Round must fail with DimensionMismatch
// rather than panic when a winner index is stale or corrupted).
func (m *Matrix) AddRowIntoChecked(i int, dst []float32) error {
	if i < 0 || i >= m.Rows {
		return fmt.Errorf("%w: row index %d out of range for %d rows", types.ErrDimensionMismatch, i, m.Rows)
	}
	m.AddRowInto(i, dst)
	return nil
}

// SetChecked is Set with i and j validated against Rows/Cols first.
func (m *Matrix) SetChecked(i, j int, v float32) error {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		return fmt.Errorf("%w: index (%d,%d) out of range for %dx%d matrix", types.ErrDimensionMismatch, i, j, m.Rows, m.Cols)
	}
	m.Set(i, j, v)
	return nil
}

// AtChecked is At with i and j validated against Rows/Cols first.
func (m *Matrix) AtChecked(i, j int) (float32, error) {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		return 0, fmt.Errorf("%w: index (%d,%d) out of range for %dx%d matrix", types.ErrDimensionMismatch, i, j, m.Rows, m.Cols)
	}
	return m.At(i, j), nil
}

// L2Norm returns the Euclidean norm of every entry, used as a coarse
// round-trace diagnostic for how far plasticity has driven a connection's
// weights from their initial Bernoulli(p) state.
func (m *Matrix) L2Norm() float32 {
	var sumSq float32
	for _, v := range m.Data {
		sumSq += v * v
	}
	return math32.Sqrt(sumSq)
}
