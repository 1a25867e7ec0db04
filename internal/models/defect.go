package models

import "fmt"

// Point is a sub-pixel position on the grid, X along columns and Y along rows
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Bounds is an inclusive bounding box in grid cell coordinates
type Bounds struct {
	MinX int `json:"minX" yaml:"minX"`
	MaxX int `json:"maxX" yaml:"maxX"`
	MinY int `json:"minY" yaml:"minY"`
	MaxY int `json:"maxY" yaml:"maxY"`
}

// Width returns the number of columns covered by the bounds
func (b Bounds) Width() int {
	return b.MaxX - b.MinX + 1
}

// Height returns the number of rows covered by the bounds
func (b Bounds) Height() int {
	return b.MaxY - b.MinY + 1
}

// Defect is a discrete flaw candidate found by connected-component labeling.
// Defects are read-only records produced by a single detection call.
type Defect struct {
	// ID is the sequential identifier in row-major discovery order (DEF-001, ...)
	ID string `json:"id" yaml:"id"`

	// Centroid is the mean cell position of the region
	Centroid Point `json:"centroid" yaml:"centroid"`

	// Area is the pixel count of the region
	Area int `json:"area" yaml:"area"`

	// MaxAmplitude is the highest source amplitude inside the region
	MaxAmplitude float64 `json:"maxAmplitude" yaml:"maxAmplitude"`

	// Bounds is the inclusive bounding box of the region
	Bounds Bounds `json:"bounds" yaml:"bounds"`
}

// DefectID formats the identifier for the n-th (1-based) discovered defect
func DefectID(n int) string {
	return fmt.Sprintf("DEF-%03d", n)
}
