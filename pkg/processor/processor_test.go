package processor

import (
	"bytes"
	"errors"
	"image"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"cscan/internal/logger"
	"cscan/internal/models"
	"cscan/pkg/colormap"
	"cscan/pkg/filters"
)

func baseOptions() Options {
	return Options{
		Width:    32,
		Height:   24,
		Colormap: "grayscale",
	}
}

// blobGrid is the 10x10 grid with a 3x3 block of 0.9 at rows/cols 3..5
func blobGrid() *models.Grid {
	g := models.NewGrid(10, 10)
	for y := 3; y <= 5; y++ {
		for x := 3; x <= 5; x++ {
			g.Set(x, y, 0.9)
		}
	}
	return g
}

// TestProcessPlain verifies colorization of an untouched grid
func TestProcessPlain(t *testing.T) {
	g := models.FromRows([][]float64{{0, 1}, {1, 0}})

	img, err := New().Process(g, baseOptions())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 32, 24) {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}
	if img.RGBAAt(0, 0) != colormap.Grayscale.Color(0) {
		t.Errorf("Expected black at (0,0), got %v", img.RGBAAt(0, 0))
	}
	if img.RGBAAt(31, 0) != colormap.Grayscale.Color(1) {
		t.Errorf("Expected white at (31,0), got %v", img.RGBAAt(31, 0))
	}
}

// TestProcessConstantGrid verifies a constant grid survives normalization
func TestProcessConstantGrid(t *testing.T) {
	g := models.NewGrid(5, 5)
	for i := range g.Data {
		g.Data[i] = 0.5
	}
	opts := baseOptions()
	opts.Normalize = true

	img, err := New().Process(g, opts)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	want := colormap.Grayscale.Color(0.5)
	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			if img.RGBAAt(x, y) != want {
				t.Fatalf("(%d,%d): expected %v, got %v", x, y, want, img.RGBAAt(x, y))
			}
		}
	}
	if g.Data[0] != 0.5 {
		t.Error("Process mutated its input")
	}
}

// TestProcessStages verifies the image matches the stages applied by hand
func TestProcessStages(t *testing.T) {
	g := blobGrid()
	g.Set(0, 0, 3)
	opts := Options{
		Width:     10,
		Height:    10,
		Threshold: Threshold(0.1),
		Smoothing: true,
		Normalize: true,
		Colormap:  "jet",
	}

	img, err := New(WithWorkers(4)).Process(g, opts)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	mask := filters.Threshold(filters.Smooth(filters.Normalize(g)), 0.1)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := colormap.Jet.Color(mask.At(x, y))
			if img.RGBAAt(x, y) != want {
				t.Errorf("(%d,%d): expected %v, got %v", x, y, want, img.RGBAAt(x, y))
			}
		}
	}
}

// TestProcessErrors verifies the error classes of Process and ProcessInto
func TestProcessErrors(t *testing.T) {
	p := New()
	g := models.NewGrid(3, 3)

	opts := baseOptions()
	opts.Colormap = "rainbow"
	var cfgErr *models.ConfigurationError
	if _, err := p.Process(g, opts); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}

	opts = baseOptions()
	opts.Width = 0
	var argErr *models.InvalidArgumentError
	if _, err := p.Process(g, opts); !errors.As(err, &argErr) {
		t.Errorf("Expected InvalidArgumentError, got %v", err)
	}

	var resErr *models.ResourceError
	if err := p.ProcessInto(nil, g, baseOptions()); !errors.As(err, &resErr) {
		t.Errorf("Expected ResourceError for nil surface, got %v", err)
	}
	if err := p.ProcessInto(image.NewRGBA(image.Rectangle{}), g, baseOptions()); !errors.As(err, &resErr) {
		t.Errorf("Expected ResourceError for empty surface, got %v", err)
	}
}

// TestProcessInto verifies rendering onto a caller surface
func TestProcessInto(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := New().ProcessInto(dst, models.FromRows([][]float64{{1}}), baseOptions()); err != nil {
		t.Fatalf("ProcessInto failed: %v", err)
	}
	if dst.RGBAAt(3, 3) != colormap.Grayscale.Color(1) {
		t.Errorf("Expected white surface, got %v", dst.RGBAAt(3, 3))
	}
}

// TestDetectDefects verifies the detection entry point
func TestDetectDefects(t *testing.T) {
	defects, err := New().DetectDefects(blobGrid(), 0.5)
	if err != nil {
		t.Fatalf("DetectDefects failed: %v", err)
	}
	if len(defects) != 1 {
		t.Fatalf("Expected 1 defect, got %d", len(defects))
	}
	d := defects[0]
	if d.ID != "DEF-001" || d.Area != 9 || d.MaxAmplitude != 0.9 {
		t.Errorf("Unexpected defect %+v", d)
	}
	if d.Centroid != (models.Point{X: 4, Y: 4}) {
		t.Errorf("Expected centroid (4,4), got %+v", d.Centroid)
	}

	var argErr *models.InvalidArgumentError
	if _, err := New().DetectDefects(blobGrid(), math.NaN()); !errors.As(err, &argErr) {
		t.Errorf("Expected InvalidArgumentError, got %v", err)
	}
}

// TestGenerateSyntheticData verifies seeded processors agree
func TestGenerateSyntheticData(t *testing.T) {
	a, err := New(WithSeed(11)).GenerateSyntheticData(30, 40, 2)
	if err != nil {
		t.Fatalf("GenerateSyntheticData failed: %v", err)
	}
	b, _ := New(WithSeed(11)).GenerateSyntheticData(30, 40, 2)

	if a.Rows != 30 || a.Cols != 40 {
		t.Errorf("Expected 30x40 grid, got %dx%d", a.Rows, a.Cols)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical grids for identical seeds")
	}

	if _, err := New().GenerateSyntheticData(-1, 4, 2); err == nil {
		t.Error("Expected error for negative rows")
	}
}

// TestSyntheticBlobsDetected verifies end-to-end detection of generated blobs
func TestSyntheticBlobsDetected(t *testing.T) {
	p := New(WithSeed(5))
	g, err := p.GenerateSyntheticData(120, 120, 1)
	if err != nil {
		t.Fatalf("GenerateSyntheticData failed: %v", err)
	}

	// Background stays below 0.2 and every blob peaks at or above 0.6
	defects, err := p.DetectDefects(g, 0.3)
	if err != nil {
		t.Fatalf("DetectDefects failed: %v", err)
	}
	if len(defects) != 1 {
		t.Fatalf("Expected 1 defect, got %d", len(defects))
	}
	if defects[0].MaxAmplitude < 0.6 {
		t.Errorf("Expected peak >= 0.6, got %f", defects[0].MaxAmplitude)
	}
}

// TestAnalyze verifies concurrent colorization and detection
func TestAnalyze(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithLogger(logger.New(&buf, zerolog.DebugLevel)), WithWorkers(2))

	opts := Options{Width: 20, Height: 20, Threshold: Threshold(0.5), Colormap: "thermal"}
	res, err := p.Analyze(blobGrid(), opts, true)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Image == nil || res.Image.Bounds().Dx() != 20 {
		t.Fatal("Expected a 20x20 image")
	}
	if len(res.Defects) != 1 || res.Defects[0].MaxAmplitude != 0.9 {
		t.Fatalf("Unexpected defects %+v", res.Defects)
	}
	if res.Stats.Max != 0.9 {
		t.Errorf("Expected stats max 0.9, got %f", res.Stats.Max)
	}
	if res.Image.RGBAAt(6, 6) != OverlayColor {
		t.Errorf("Expected overlay at (6,6), got %v", res.Image.RGBAAt(6, 6))
	}
	if !bytes.Contains(buf.Bytes(), []byte("analysis complete")) {
		t.Error("Expected analysis to be logged")
	}

	opts.Threshold = nil
	var argErr *models.InvalidArgumentError
	if _, err := p.Analyze(blobGrid(), opts, false); !errors.As(err, &argErr) {
		t.Errorf("Expected InvalidArgumentError without threshold, got %v", err)
	}
}

// TestShortBufferGrid verifies missing cells read as zero instead of failing
func TestShortBufferGrid(t *testing.T) {
	short := &models.Grid{Rows: 3, Cols: 3, Data: []float64{0.9, 0.9}}
	p := New()

	defects, err := p.DetectDefects(short, 0.5)
	if err != nil {
		t.Fatalf("DetectDefects failed: %v", err)
	}
	if len(defects) != 0 {
		t.Errorf("Expected no defects, got %+v", defects)
	}

	opts := baseOptions()
	opts.Smoothing = true
	opts.Normalize = true
	opts.Threshold = Threshold(0.1)
	img, err := p.Process(short, opts)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	full := models.FromRows([][]float64{{0.9, 0.9, 0}, {0, 0, 0}, {0, 0, 0}})
	want, _ := p.Process(full, opts)
	if !bytes.Equal(img.Pix, want.Pix) {
		t.Error("Expected short buffer to render like its zero-padded grid")
	}

	if _, err := p.Analyze(short, opts, true); err != nil {
		t.Errorf("Analyze failed: %v", err)
	}
	if err := p.ProcessInto(image.NewRGBA(image.Rect(0, 0, 5, 5)), short, opts); err != nil {
		t.Errorf("ProcessInto failed: %v", err)
	}
}

// TestAnalyzeUnsyncedLogger verifies Analyze never logs from its worker
// goroutines, so a plain buffer writer is safe
func TestAnalyzeUnsyncedLogger(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)), WithWorkers(3))

	opts := Options{Width: 16, Height: 16, Threshold: Threshold(0.5), Smoothing: true, Colormap: "jet"}
	for i := 0; i < 20; i++ {
		res, err := p.Analyze(blobGrid(), opts, false)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if len(res.Defects) != 1 {
			t.Fatalf("Expected 1 defect, got %d", len(res.Defects))
		}
	}
	if bytes.Count(buf.Bytes(), []byte("analysis complete")) != 20 {
		t.Errorf("Expected 20 completion entries, got log:\n%s", buf.String())
	}
}
