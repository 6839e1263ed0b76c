package stages

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
)

// EqualizeStage normalizes local contrast, either globally (Gaussian blur
// followed by histogram equalization) or adaptively (CLAHE).
type EqualizeStage struct{}

func NewEqualizeStage() *EqualizeStage {
	return &EqualizeStage{}
}

func (e *EqualizeStage) Name() string {
	return "equalize"
}

func (e *EqualizeStage) ArtifactName() string {
	return chain.ArtifactPreprocessed
}

func (e *EqualizeStage) ShouldExecute(params models.EnhancementParameters) bool {
	return true
}

func (e *EqualizeStage) Apply(ctx context.Context, input *safe.Mat, state *chain.State) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateGrayMat(input, "equalize"); err != nil {
		return nil, err
	}

	params := state.Params()

	switch params.NormalizationMode {
	case models.GlobalEqualization:
		return e.equalizeGlobal(input)
	case models.AdaptiveEqualization:
		return e.equalizeAdaptive(input, params.ClipLimit, params.TileGridSize)
	default:
		return nil, fmt.Errorf("unknown normalization mode %q", params.NormalizationMode)
	}
}

// equalizeGlobal blurs with a 5x5 Gaussian to suppress sensor noise, then
// remaps the histogram to approximately uniform.
func (e *EqualizeStage) equalizeGlobal(src *safe.Mat) (*safe.Mat, error) {
	blurred := gocv.NewMat()
	defer blurred.Close()

	srcMat := src.GetMat()
	gocv.GaussianBlur(srcMat, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	dst, err := safe.NewMat(src.Rows(), src.Cols(), src.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.EqualizeHist(blurred, &dstMat)

	return dst, nil
}

func (e *EqualizeStage) equalizeAdaptive(src *safe.Mat, clipLimit float64, tileGridSize int) (*safe.Mat, error) {
	dst, err := safe.NewMat(src.Rows(), src.Cols(), src.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Point{X: tileGridSize, Y: tileGridSize})
	defer clahe.Close()

	srcMat := src.GetMat()
	dstMat := dst.GetMat()
	clahe.Apply(srcMat, &dstMat)

	return dst, nil
}
