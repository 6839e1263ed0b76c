package stages

import (
	"context"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
)

// ResizeStage downsamples oversized images to MaxDimension with uniform
// scale. It never upscales: an image that already fits passes through.
type ResizeStage struct{}

func NewResizeStage() *ResizeStage {
	return &ResizeStage{}
}

func (r *ResizeStage) Name() string {
	return "resize"
}

// ArtifactName is "original" on purpose: when the resize runs, the retained
// original artifact is the downsampled grayscale image, matching what every
// later stage actually consumed.
func (r *ResizeStage) ArtifactName() string {
	return chain.ArtifactOriginal
}

func (r *ResizeStage) ShouldExecute(params models.EnhancementParameters) bool {
	return params.OptimizeLargeImages
}

func (r *ResizeStage) Apply(ctx context.Context, input *safe.Mat, state *chain.State) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateGrayMat(input, "resize"); err != nil {
		return nil, err
	}

	maxDim := state.Params().MaxDimension
	rows := input.Rows()
	cols := input.Cols()

	longest := max(rows, cols)
	if longest <= maxDim {
		return input.Clone()
	}

	scale := float64(maxDim) / float64(longest)
	newCols := int(math.Round(float64(cols) * scale))
	newRows := int(math.Round(float64(rows) * scale))

	if newCols < 1 || newRows < 1 {
		return nil, fmt.Errorf("%w: %dx%d scales to %dx%d at max dimension %d",
			models.ErrEmptyImage, cols, rows, newCols, newRows, maxDim)
	}

	dst, err := safe.NewMat(newRows, newCols, input.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	srcMat := input.GetMat()
	dstMat := dst.GetMat()

	// Area interpolation avoids aliasing when shrinking.
	gocv.Resize(srcMat, &dstMat, image.Point{X: newCols, Y: newRows}, 0, 0, gocv.InterpolationArea)

	return dst, nil
}
