package models

import (
	"gonum.org/v1/gonum/stat"
)

// Grid represents a rectangular 2D amplitude grid captured during a C-Scan.
// Values are relative echo amplitudes with no intrinsic unit.
type Grid struct {
	// Data holds the amplitudes as a 1D array in row-major order
	Data []float64

	// Rows is the number of scan lines (Y extent)
	Rows int

	// Cols is the number of samples per scan line (X extent)
	Cols int
}

// NewGrid allocates a zero-filled grid of the given size.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{
		Data: make([]float64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// FromRows builds a grid from a possibly jagged slice of rows. The column
// count is the length of the longest row; missing cells (short or nil rows)
// are filled with 0.0.
func FromRows(rows [][]float64) *Grid {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	g := NewGrid(len(rows), cols)
	for y, row := range rows {
		copy(g.Data[y*cols:], row)
	}
	return g
}

// At returns the value at column x, row y. Out-of-range lookups resolve to 0.0.
func (g *Grid) At(x, y int) float64 {
	if g == nil || x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return 0
	}
	idx := y*g.Cols + x
	if idx >= len(g.Data) {
		return 0
	}
	return g.Data[idx]
}

// Set stores v at column x, row y. Out-of-range writes are ignored.
func (g *Grid) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return
	}
	if idx := y*g.Cols + x; idx < len(g.Data) {
		g.Data[idx] = v
	}
}

// Conform returns a grid whose Data holds exactly Rows*Cols cells. A short
// buffer is padded with 0.0 and a long one truncated; negative dimensions
// count as zero and a nil grid becomes an empty one. A well-formed grid is
// returned as is, without copying.
func (g *Grid) Conform() *Grid {
	if g == nil {
		return NewGrid(0, 0)
	}
	if g.Rows >= 0 && g.Cols >= 0 && len(g.Data) == g.Rows*g.Cols {
		return g
	}

	out := NewGrid(g.Rows, g.Cols)
	copy(out.Data, g.Data)
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{
		Data: make([]float64, len(g.Data)),
		Rows: g.Rows,
		Cols: g.Cols,
	}
	copy(out.Data, g.Data)
	return out
}

// ToRows returns the grid as a slice of rows.
func (g *Grid) ToRows() [][]float64 {
	rows := make([][]float64, g.Rows)
	for y := range rows {
		rows[y] = make([]float64, g.Cols)
		copy(rows[y], g.Data[y*g.Cols:(y+1)*g.Cols])
	}
	return rows
}

// Len returns the number of cells in the grid.
func (g *Grid) Len() int {
	return g.Rows * g.Cols
}

// GridStats summarizes the amplitude distribution of a grid
type GridStats struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stdDev" yaml:"stdDev"`
}

// Stats computes summary statistics over all cells. An empty grid yields
// zero values.
func (g *Grid) Stats() GridStats {
	if len(g.Data) == 0 {
		return GridStats{}
	}

	s := GridStats{Min: g.Data[0], Max: g.Data[0]}
	for _, v := range g.Data {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean, s.StdDev = stat.MeanStdDev(g.Data, nil)
	if len(g.Data) == 1 {
		s.StdDev = 0
	}
	return s
}
