// Package filters implements the grid preprocessing stages of the C-Scan
// pipeline: min/max normalization, 3x3 Gaussian smoothing and binary
// thresholding. Every stage returns a new grid and leaves its input untouched.
package filters

import (
	"sync"

	"gonum.org/v1/gonum/floats"

	"cscan/internal/models"
)

// gaussianKernel is the 3x3 binomial approximation of a Gaussian, normalized by kernelSum
var gaussianKernel = [3][3]float64{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

const kernelSum = 16.0

// Normalize linearly rescales the grid so its minimum maps to 0.0 and its
// maximum to 1.0. Constant and empty grids are returned as an unchanged copy.
func Normalize(g *models.Grid) *models.Grid {
	g = g.Conform()
	out := g.Clone()
	if len(out.Data) == 0 {
		return out
	}

	lo := floats.Min(g.Data)
	hi := floats.Max(g.Data)
	if hi == lo {
		return out
	}

	span := hi - lo
	for i, v := range g.Data {
		out.Data[i] = (v - lo) / span
	}
	return out
}

// Smooth applies the 3x3 Gaussian kernel to every interior cell. Border
// cells are copied unchanged; no padding or reflection is applied. Cells
// missing from a short Data buffer read as 0.0 in every stage.
func Smooth(g *models.Grid) *models.Grid {
	g = g.Conform()
	out := g.Clone()
	smoothRows(g, out, 1, g.Rows-1)
	return out
}

// SmoothParallel produces the same output as Smooth, splitting interior rows
// across up to workers goroutines.
func SmoothParallel(g *models.Grid, workers int) *models.Grid {
	g = g.Conform()
	interior := g.Rows - 2
	if workers <= 1 || interior < 2 {
		return Smooth(g)
	}
	if workers > interior {
		workers = interior
	}

	out := g.Clone()
	rowsPerWorker := (interior + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 1; start < g.Rows-1; start += rowsPerWorker {
		end := start + rowsPerWorker
		if end > g.Rows-1 {
			end = g.Rows - 1
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			smoothRows(g, out, start, end)
		}(start, end)
	}
	wg.Wait()

	return out
}

// smoothRows writes smoothed values for rows [start, end) into dst. Each
// output cell depends only on src, so disjoint row ranges may run concurrently.
func smoothRows(src, dst *models.Grid, start, end int) {
	cols := src.Cols
	for y := start; y < end; y++ {
		for x := 1; x < cols-1; x++ {
			var sum float64
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * cols
				for kx := -1; kx <= 1; kx++ {
					sum += src.Data[row+x+kx] * gaussianKernel[ky+1][kx+1]
				}
			}
			dst.Data[y*cols+x] = sum / kernelSum
		}
	}
}

// Threshold binarizes the grid: cells strictly greater than threshold become
// 1.0, all others 0.0.
func Threshold(g *models.Grid, threshold float64) *models.Grid {
	g = g.Conform()
	out := models.NewGrid(g.Rows, g.Cols)
	for i, v := range g.Data {
		if v > threshold {
			out.Data[i] = 1
		}
	}
	return out
}
