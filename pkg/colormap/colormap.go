// Package colormap maps normalized scalars to display colors. Each named
// colormap is a fixed list of control colors interpolated in CIE-Lab space,
// so equal scalar steps give perceptually even color steps.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"cscan/internal/models"
)

// Kind identifies one of the supported colormaps
type Kind int

const (
	Jet Kind = iota
	Viridis
	Grayscale
	Thermal
)

var kindNames = [...]string{
	Jet:       "jet",
	Viridis:   "viridis",
	Grayscale: "grayscale",
	Thermal:   "thermal",
}

// controlColors holds the ordered stops for each Kind
var controlColors = [...][]string{
	Jet:       {"#000080", "#0000ff", "#00ffff", "#ffff00", "#ff0000", "#800000"},
	Viridis:   {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	Grayscale: {"#000000", "#808080", "#ffffff"},
	Thermal:   {"#000000", "#5c0a8a", "#d7263d", "#f7b32b", "#ffffff"},
}

// stops is the parsed form of controlColors, built once at package init
var stops = func() [][]colorful.Color {
	out := make([][]colorful.Color, len(controlColors))
	for k, hexes := range controlColors {
		out[k] = make([]colorful.Color, len(hexes))
		for i, h := range hexes {
			c, err := colorful.Hex(h)
			if err != nil {
				panic(fmt.Sprintf("colormap %s: invalid control color %q: %v", kindNames[k], h, err))
			}
			out[k][i] = c
		}
	}
	return out
}()

// Kinds returns all supported colormaps in declaration order
func Kinds() []Kind {
	return []Kind{Jet, Viridis, Grayscale, Thermal}
}

// String returns the configuration name of the colormap
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k names a supported colormap
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// Parse resolves a colormap by name (case-insensitive). Unknown names fail
// with a ConfigurationError; there is no fallback colormap.
func Parse(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, kn := range kindNames {
		if kn == n {
			return Kind(k), nil
		}
	}
	return 0, &models.ConfigurationError{
		Field:  "colormap",
		Value:  name,
		Reason: "unknown colormap (expected one of jet, viridis, grayscale, thermal)",
	}
}

// Stops returns a copy of the control colors of k
func (k Kind) Stops() []colorful.Color {
	if !k.Valid() {
		return nil
	}
	out := make([]colorful.Color, len(stops[k]))
	copy(out, stops[k])
	return out
}

// Color maps v onto the colormap. Values are clamped to [0,1] and NaN is
// treated as 0. The returned color is always opaque; an invalid Kind maps
// every value to opaque black.
func (k Kind) Color(v float64) color.RGBA {
	r, g, b := k.Lab(v).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Lab returns the interpolated color of v before quantization. An invalid
// Kind yields black.
func (k Kind) Lab(v float64) colorful.Color {
	if !k.Valid() {
		return colorful.Color{}
	}
	s := stops[k]

	if math.IsNaN(v) || v <= 0 {
		return s[0]
	}
	if v >= 1 {
		return s[len(s)-1]
	}

	pos := v * float64(len(s)-1)
	i := int(pos)
	if i >= len(s)-1 {
		return s[len(s)-1]
	}
	return s[i].BlendLab(s[i+1], pos-float64(i))
}

// Luminance returns the Rec. 709 relative luminance of c in the range [0,255]
func Luminance(c color.RGBA) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}
