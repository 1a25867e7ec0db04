// Package detection finds discrete flaw candidates in an amplitude grid by
// 4-connected component labeling of the cells above a threshold.
package detection

import (
	"fmt"
	"math"

	"cscan/internal/models"
)

// DefaultMinArea is the smallest region, in pixels, reported as a defect.
// Smaller regions are treated as noise.
const DefaultMinArea = 5

// Detector labels connected above-threshold regions. A Detector holds no
// state between calls and may be shared by concurrent callers.
type Detector struct {
	minArea int
}

// NewDetector creates a detector with the default minimum area
func NewDetector() *Detector {
	return &Detector{minArea: DefaultMinArea}
}

// MinArea returns the minimum reported region size
func (d *Detector) MinArea() int {
	return d.minArea
}

// Result is the outcome of a labeled detection
type Result struct {
	// Defects in row-major discovery order
	Defects []models.Defect

	// Labels holds, per cell in row-major order, 0 for cells outside every
	// reported defect or i+1 for cells belonging to Defects[i]
	Labels []int

	Rows, Cols int
}

// Detect returns the defects of g for cells strictly greater than threshold.
// A NaN threshold is treated as missing and fails with an InvalidArgumentError.
func (d *Detector) Detect(g *models.Grid, threshold float64) ([]models.Defect, error) {
	res, err := d.detect(g, threshold, false)
	if err != nil {
		return nil, err
	}
	return res.Defects, nil
}

// DetectLabeled is Detect plus a per-cell label map
func (d *Detector) DetectLabeled(g *models.Grid, threshold float64) (*Result, error) {
	return d.detect(g, threshold, true)
}

// region accumulates the statistics of one flood fill
type region struct {
	count      int
	sumX, sumY float64
	maxValue   float64
	bounds     models.Bounds
	cells      []int
}

func (d *Detector) detect(g *models.Grid, threshold float64, labeled bool) (*Result, error) {
	if math.IsNaN(threshold) {
		return nil, &models.InvalidArgumentError{Arg: "threshold", Reason: "detection requires a threshold"}
	}
	if g == nil {
		return nil, &models.InvalidArgumentError{Arg: "grid", Reason: "grid is nil"}
	}
	g = g.Conform()

	rows, cols := g.Rows, g.Cols
	res := &Result{Rows: rows, Cols: cols}
	if labeled {
		res.Labels = make([]int, rows*cols)
	}

	visited := make([]bool, rows*cols)
	var stack []int

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			idx := y*cols + x
			if visited[idx] || !(g.Data[idx] > threshold) {
				continue
			}

			r := fill(g, threshold, visited, &stack, x, y, labeled)
			if r.count < d.minArea {
				continue
			}

			n := len(res.Defects) + 1
			res.Defects = append(res.Defects, models.Defect{
				ID: models.DefectID(n),
				Centroid: models.Point{
					X: r.sumX / float64(r.count),
					Y: r.sumY / float64(r.count),
				},
				Area:         r.count,
				MaxAmplitude: r.maxValue,
				Bounds:       r.bounds,
			})
			for _, c := range r.cells {
				res.Labels[c] = n
			}
		}
	}

	if res.Defects == nil {
		res.Defects = []models.Defect{}
	}
	return res, nil
}

// fill runs an iterative flood fill from (startX, startY). Every popped
// in-bounds cell is marked visited whether or not it qualifies, so each cell
// is examined at most once per detection call. Neighbours are pushed in the
// order right, left, down, up and popped last-in first-out.
func fill(g *models.Grid, threshold float64, visited []bool, stack *[]int, startX, startY int, keepCells bool) region {
	rows, cols := g.Rows, g.Cols
	r := region{
		maxValue: math.Inf(-1),
		bounds:   models.Bounds{MinX: startX, MaxX: startX, MinY: startY, MaxY: startY},
	}

	s := append((*stack)[:0], startY*cols+startX)
	for len(s) > 0 {
		idx := s[len(s)-1]
		s = s[:len(s)-1]

		if visited[idx] {
			continue
		}
		visited[idx] = true

		v := g.Data[idx]
		if !(v > threshold) {
			continue
		}

		x, y := idx%cols, idx/cols
		r.count++
		r.sumX += float64(x)
		r.sumY += float64(y)
		if v > r.maxValue {
			r.maxValue = v
		}
		if x < r.bounds.MinX {
			r.bounds.MinX = x
		}
		if x > r.bounds.MaxX {
			r.bounds.MaxX = x
		}
		if y < r.bounds.MinY {
			r.bounds.MinY = y
		}
		if y > r.bounds.MaxY {
			r.bounds.MaxY = y
		}
		if keepCells {
			r.cells = append(r.cells, idx)
		}

		if x+1 < cols {
			s = append(s, idx+1)
		}
		if x-1 >= 0 {
			s = append(s, idx-1)
		}
		if y+1 < rows {
			s = append(s, idx+cols)
		}
		if y-1 >= 0 {
			s = append(s, idx-cols)
		}
	}
	*stack = s

	return r
}

// String renders a one-line summary of a defect for logs and CLI output
func String(d models.Defect) string {
	return fmt.Sprintf("%s area=%d centroid=(%.2f,%.2f) max=%.3f bounds=[%d..%d]x[%d..%d]",
		d.ID, d.Area, d.Centroid.X, d.Centroid.Y, d.MaxAmplitude,
		d.Bounds.MinX, d.Bounds.MaxX, d.Bounds.MinY, d.Bounds.MaxY)
}
