// Package processor exposes the C-Scan core to its callers: rendering an
// amplitude grid to an RGBA image, detecting defects, and generating
// synthetic grids. Each call is a one-shot transformation; the processor
// keeps no state between calls apart from its synthetic data source.
package processor

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cscan/internal/logger"
	"cscan/internal/models"
	"cscan/pkg/colormap"
	"cscan/pkg/detection"
	"cscan/pkg/filters"
	"cscan/pkg/raster"
	"cscan/pkg/synthetic"
)

// Options configures a processing run
type Options struct {
	// Width and Height are the output raster size in pixels
	Width  int
	Height int

	// Threshold binarizes the grid before colorization when non-nil
	Threshold *float64

	// Smoothing applies the 3x3 Gaussian kernel
	Smoothing bool

	// Normalize rescales the grid to [0,1] before the other stages
	Normalize bool

	// Colormap names the scalar-to-color mapping
	Colormap string
}

// Threshold returns a pointer to v for use in Options
func Threshold(v float64) *float64 {
	return &v
}

// Processor runs the C-Scan pipeline
type Processor struct {
	log      zerolog.Logger
	workers  int
	detector *detection.Detector

	// genMu guards generator, whose random source is sequential
	genMu     sync.Mutex
	generator *synthetic.Generator
}

// Option customizes a Processor
type Option func(*Processor)

// WithLogger sets the logger used for stage tracing
func WithLogger(l zerolog.Logger) Option {
	return func(p *Processor) {
		p.log = logger.Component(l, "processor")
	}
}

// WithWorkers sets the number of goroutines used for smoothing
func WithWorkers(n int) Option {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithSeed seeds the synthetic data source
func WithSeed(seed uint64) Option {
	return func(p *Processor) {
		p.generator = synthetic.NewGenerator(seed)
	}
}

// WithGenerator sets the synthetic data source
func WithGenerator(g *synthetic.Generator) Option {
	return func(p *Processor) {
		p.generator = g
	}
}

// New creates a processor. Without options it logs nothing, smooths
// sequentially and seeds synthetic data from the current time.
func New(opts ...Option) *Processor {
	p := &Processor{
		log:      zerolog.Nop(),
		workers:  1,
		detector: detection.NewDetector(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.generator == nil {
		p.generator = synthetic.NewGenerator(uint64(time.Now().UnixNano()))
	}
	return p
}

// validate checks the options that do not depend on the grid
func validate(opts Options) (colormap.Kind, error) {
	if opts.Width <= 0 {
		return 0, &models.InvalidArgumentError{Arg: "width", Reason: fmt.Sprintf("must be positive, got %d", opts.Width)}
	}
	if opts.Height <= 0 {
		return 0, &models.InvalidArgumentError{Arg: "height", Reason: fmt.Sprintf("must be positive, got %d", opts.Height)}
	}
	return colormap.Parse(opts.Colormap)
}

// preprocess runs the optional normalize and smooth stages on the conformed
// grid, so the later stages can index Data directly
func (p *Processor) preprocess(grid *models.Grid, opts Options) *models.Grid {
	out := grid.Conform()
	if opts.Normalize {
		start := time.Now()
		out = filters.Normalize(out)
		p.log.Debug().Int("rows", out.Rows).Int("cols", out.Cols).Dur("elapsed", time.Since(start)).Msg("normalized")
	}
	if opts.Smoothing {
		start := time.Now()
		out = filters.SmoothParallel(out, p.workers)
		p.log.Debug().Int("workers", p.workers).Dur("elapsed", time.Since(start)).Msg("smoothed")
	}
	return out
}

// binarize runs the optional threshold stage
func (p *Processor) binarize(grid *models.Grid, opts Options) *models.Grid {
	if opts.Threshold == nil {
		return grid
	}
	p.log.Debug().Float64("threshold", *opts.Threshold).Msg("thresholded")
	return filters.Threshold(grid, *opts.Threshold)
}

// Process runs normalize, smooth, threshold and colorize as configured and
// returns a newly allocated Width x Height image owned by the caller.
func (p *Processor) Process(grid *models.Grid, opts Options) (*image.RGBA, error) {
	kind, err := validate(opts)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	if err := p.render(img, grid, opts, kind); err != nil {
		return nil, err
	}
	return img, nil
}

// ProcessInto is Process drawing onto a caller-supplied surface. The surface
// size overrides Width and Height; a nil or zero-area surface fails with a
// ResourceError.
func (p *Processor) ProcessInto(dst draw.Image, grid *models.Grid, opts Options) error {
	if dst == nil {
		return &models.ResourceError{Resource: "rendering surface", Reason: "no drawable surface"}
	}
	opts.Width, opts.Height = dst.Bounds().Dx(), dst.Bounds().Dy()
	if opts.Width <= 0 || opts.Height <= 0 {
		return &models.ResourceError{
			Resource: "rendering surface",
			Reason:   fmt.Sprintf("surface has zero area (%dx%d)", opts.Width, opts.Height),
		}
	}

	kind, err := colormap.Parse(opts.Colormap)
	if err != nil {
		return err
	}
	return p.render(dst, grid, opts, kind)
}

func (p *Processor) render(dst draw.Image, grid *models.Grid, opts Options, kind colormap.Kind) error {
	processed := p.binarize(p.preprocess(grid, opts), opts)

	start := time.Now()
	if err := raster.NewRenderer(processed, kind).Render(dst); err != nil {
		p.log.Error().Err(err).Msg("colorization failed")
		return fmt.Errorf("colorize: %w", err)
	}
	p.log.Debug().
		Str("colormap", kind.String()).
		Int("width", opts.Width).
		Int("height", opts.Height).
		Dur("elapsed", time.Since(start)).
		Msg("colorized")
	return nil
}

// DetectDefects thresholds grid and labels connected regions of at least
// detection.DefaultMinArea cells. A NaN threshold counts as omitted and
// fails with an InvalidArgumentError.
func (p *Processor) DetectDefects(grid *models.Grid, threshold float64) ([]models.Defect, error) {
	if math.IsNaN(threshold) {
		return nil, &models.InvalidArgumentError{Arg: "threshold", Reason: "detection requires a threshold"}
	}
	grid = grid.Conform()

	start := time.Now()
	defects, err := p.detector.Detect(grid, threshold)
	if err != nil {
		return nil, err
	}
	p.log.Info().
		Int("defects", len(defects)).
		Float64("threshold", threshold).
		Dur("elapsed", time.Since(start)).
		Msg("defect detection complete")
	return defects, nil
}

// GenerateSyntheticData returns a rows x cols grid with defectCount blobs
// drawn from the processor's synthetic source
func (p *Processor) GenerateSyntheticData(rows, cols, defectCount int) (*models.Grid, error) {
	p.genMu.Lock()
	defer p.genMu.Unlock()

	grid, err := p.generator.Generate(rows, cols, defectCount)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Int("rows", rows).Int("cols", cols).Int("blobs", defectCount).Msg("generated synthetic grid")
	return grid, nil
}
