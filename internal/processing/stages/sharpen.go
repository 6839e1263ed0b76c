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

// SharpenStage convolves the blended image with a fixed 3x3 sharpening
// kernel (center 5, four-connected neighbors -1, corners 0). Border pixels
// are handled by replication; the result saturates into 8-bit.
type SharpenStage struct{}

func NewSharpenStage() *SharpenStage {
	return &SharpenStage{}
}

func (s *SharpenStage) Name() string {
	return "sharpen"
}

func (s *SharpenStage) ArtifactName() string {
	return chain.ArtifactEnhanced
}

func (s *SharpenStage) ShouldExecute(params models.EnhancementParameters) bool {
	return true
}

func (s *SharpenStage) Apply(ctx context.Context, input *safe.Mat, state *chain.State) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateGrayMat(input, "sharpen"); err != nil {
		return nil, err
	}

	kernel, err := sharpeningKernel()
	if err != nil {
		return nil, err
	}
	defer kernel.Close()

	dst, err := safe.NewMat(input.Rows(), input.Cols(), input.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	srcMat := input.GetMat()
	dstMat := dst.GetMat()
	gocv.Filter2D(srcMat, &dstMat, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderReplicate)

	return dst, nil
}

func sharpeningKernel() (gocv.Mat, error) {
	weights := [3][3]float32{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	if kernel.Empty() {
		kernel.Close()
		return gocv.Mat{}, fmt.Errorf("failed to create sharpening kernel")
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			kernel.SetFloatAt(y, x, weights[y][x])
		}
	}

	return kernel, nil
}
