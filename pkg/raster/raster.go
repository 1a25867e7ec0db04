// Package raster turns amplitude grids into RGBA C-Scan images. Source cells
// are sampled by nearest-neighbour index mapping and colored through a
// colormap; the resulting image belongs to the caller.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"cscan/internal/models"
	"cscan/pkg/colormap"
)

// Renderer draws a source grid onto a rendering surface
type Renderer struct {
	// grid is the (possibly processed) source grid; it is only read
	grid *models.Grid

	// cmap selects the scalar-to-color mapping
	cmap colormap.Kind
}

// NewRenderer creates a renderer for grid using the given colormap
func NewRenderer(grid *models.Grid, cmap colormap.Kind) *Renderer {
	return &Renderer{
		grid: grid,
		cmap: cmap,
	}
}

// Render fills every pixel of dst. For output pixel (x, y) of a W x H
// surface the source cell is column floor(x*cols/W), row floor(y*rows/H);
// cells outside the grid read as 0.0. A nil or zero-area surface fails with
// a ResourceError.
func (r *Renderer) Render(dst draw.Image) error {
	if dst == nil {
		return &models.ResourceError{Resource: "rendering surface", Reason: "no drawable surface"}
	}
	bounds := dst.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return &models.ResourceError{
			Resource: "rendering surface",
			Reason:   fmt.Sprintf("surface has zero area (%dx%d)", width, height),
		}
	}
	if !r.cmap.Valid() {
		return &models.ConfigurationError{Field: "colormap", Value: r.cmap.String(), Reason: "unknown colormap"}
	}

	rows, cols := 0, 0
	if r.grid != nil {
		rows, cols = r.grid.Rows, r.grid.Cols
	}

	// Column lookups repeat on every output row
	dataX := make([]int, width)
	for x := range dataX {
		dataX[x] = x * cols / width
	}

	rgba, fast := dst.(*image.RGBA)
	for y := 0; y < height; y++ {
		dataY := y * rows / height
		for x := 0; x < width; x++ {
			c := r.cmap.Color(r.grid.At(dataX[x], dataY))
			if fast {
				rgba.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, c)
			} else {
				dst.Set(bounds.Min.X+x, bounds.Min.Y+y, c)
			}
		}
	}

	return nil
}

// Rasterize renders grid into a newly allocated width x height RGBA image
func Rasterize(grid *models.Grid, width, height int, cmap colormap.Kind) (*image.RGBA, error) {
	if width <= 0 {
		return nil, &models.InvalidArgumentError{Arg: "width", Reason: fmt.Sprintf("must be positive, got %d", width)}
	}
	if height <= 0 {
		return nil, &models.InvalidArgumentError{Arg: "height", Reason: fmt.Sprintf("must be positive, got %d", height)}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := NewRenderer(grid, cmap).Render(img); err != nil {
		return nil, err
	}
	return img, nil
}

// DrawBounds outlines each defect's bounding box on dst, scaling grid cell
// coordinates (of a rows x cols source) onto the surface.
func DrawBounds(dst draw.Image, defects []models.Defect, rows, cols int, c color.Color) error {
	if dst == nil {
		return &models.ResourceError{Resource: "rendering surface", Reason: "no drawable surface"}
	}
	if rows <= 0 || cols <= 0 {
		return nil
	}

	b := dst.Bounds()
	width, height := b.Dx(), b.Dy()

	for _, d := range defects {
		x0, x1 := cellSpan(d.Bounds.MinX, d.Bounds.MaxX, cols, width)
		y0, y1 := cellSpan(d.Bounds.MinY, d.Bounds.MaxY, rows, height)

		for x := x0; x <= x1; x++ {
			dst.Set(b.Min.X+x, b.Min.Y+y0, c)
			dst.Set(b.Min.X+x, b.Min.Y+y1, c)
		}
		for y := y0; y <= y1; y++ {
			dst.Set(b.Min.X+x0, b.Min.Y+y, c)
			dst.Set(b.Min.X+x1, b.Min.Y+y, c)
		}
	}
	return nil
}

// cellSpan converts an inclusive cell range into the inclusive pixel range
// whose nearest-neighbour samples fall inside it.
func cellSpan(minCell, maxCell, cells, pixels int) (int, int) {
	p0 := (minCell*pixels + cells - 1) / cells
	p1 := ((maxCell+1)*pixels+cells-1)/cells - 1
	if p1 < p0 {
		p1 = p0
	}
	if p0 < 0 {
		p0 = 0
	}
	if p1 > pixels-1 {
		p1 = pixels - 1
	}
	if p0 > p1 {
		p0 = p1
	}
	return p0, p1
}
