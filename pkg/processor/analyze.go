package processor

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"cscan/internal/models"
	"cscan/pkg/raster"
)

// OverlayColor outlines defects drawn by Analyze
var OverlayColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}

// Analysis is the combined output of one Analyze call
type Analysis struct {
	Image   *image.RGBA
	Defects []models.Defect

	// Stats describes the preprocessed grid that detection ran on
	Stats models.GridStats
}

// Analyze preprocesses grid once, then colorizes and detects defects on the
// result concurrently. Detection uses the continuous preprocessed grid so
// MaxAmplitude reports real amplitudes; the image is thresholded as Process
// would. opts.Threshold is required. With overlay set, defect bounds are
// outlined on the image.
func (p *Processor) Analyze(grid *models.Grid, opts Options, overlay bool) (*Analysis, error) {
	kind, err := validate(opts)
	if err != nil {
		return nil, err
	}
	if opts.Threshold == nil {
		return nil, &models.InvalidArgumentError{Arg: "threshold", Reason: "detection requires a threshold"}
	}

	processed := p.preprocess(grid, opts)
	mask := p.binarize(processed, opts)
	result := &Analysis{Stats: processed.Stats()}

	// Neither goroutine logs; the stages only read processed and mask
	var (
		wg                sync.WaitGroup
		imgErr, detectErr error
	)

	start := time.Now()
	wg.Add(2)
	go func() {
		defer wg.Done()
		img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
		imgErr = raster.NewRenderer(mask, kind).Render(img)
		result.Image = img
	}()
	go func() {
		defer wg.Done()
		result.Defects, detectErr = p.detector.Detect(processed, *opts.Threshold)
	}()
	wg.Wait()

	if imgErr != nil {
		p.log.Error().Err(imgErr).Msg("colorization failed")
		return nil, fmt.Errorf("colorize: %w", imgErr)
	}
	if detectErr != nil {
		return nil, detectErr
	}
	p.log.Debug().Dur("elapsed", time.Since(start)).Msg("colorized and detected")

	if overlay {
		if err := raster.DrawBounds(result.Image, result.Defects, processed.Rows, processed.Cols, OverlayColor); err != nil {
			return nil, err
		}
	}

	p.log.Info().
		Str("colormap", kind.String()).
		Int("defects", len(result.Defects)).
		Float64("mean", result.Stats.Mean).
		Msg("analysis complete")
	return result, nil
}
