package stages

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
)

// GrayscaleStage collapses the decoded input to the canonical 8-bit
// single-channel representation every downstream stage consumes.
type GrayscaleStage struct{}

func NewGrayscaleStage() *GrayscaleStage {
	return &GrayscaleStage{}
}

func (g *GrayscaleStage) Name() string {
	return "grayscale"
}

func (g *GrayscaleStage) ArtifactName() string {
	return chain.ArtifactOriginal
}

func (g *GrayscaleStage) ShouldExecute(params models.EnhancementParameters) bool {
	return true
}

func (g *GrayscaleStage) Apply(ctx context.Context, input *safe.Mat, state *chain.State) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateMatForOperation(input, "grayscale"); err != nil {
		return nil, err
	}

	if input.Channels() == 1 {
		return g.convertDepth(input)
	}

	collapsed, err := g.collapseChannels(input)
	if err != nil {
		return nil, err
	}
	defer collapsed.Close()

	return g.convertDepth(collapsed)
}

func (g *GrayscaleStage) convertDepth(src *safe.Mat) (*safe.Mat, error) {
	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		return src.Clone()
	case gocv.MatTypeCV16UC1:
		dst, err := safe.NewMat(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1)
		if err != nil {
			return nil, err
		}

		srcMat := src.GetMat()
		dstMat := dst.GetMat()
		// 16-bit samples map onto 8-bit by 65535 -> 255.
		srcMat.ConvertToWithParams(&dstMat, gocv.MatTypeCV8U, 1.0/257.0, 0)
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: unsupported single-channel type %d",
			models.ErrInvalidImageFormat, int(src.Type()))
	}
}

// collapseChannels reduces a 3- or 4-channel buffer to a single channel at
// the source bit depth; convertDepth brings the result down to 8 bits.
func (g *GrayscaleStage) collapseChannels(src *safe.Mat) (*safe.Mat, error) {
	gray := gocv.NewMat()
	defer gray.Close()

	srcMat := src.GetMat()

	switch src.Channels() {
	case 3:
		gocv.CvtColor(srcMat, &gray, gocv.ColorBGRToGray)
	case 4:
		tempBGR := gocv.NewMat()
		defer tempBGR.Close()
		gocv.CvtColor(srcMat, &tempBGR, gocv.ColorBGRAToBGR)
		gocv.CvtColor(tempBGR, &gray, gocv.ColorBGRToGray)
	default:
		return nil, fmt.Errorf("%w: unsupported channel count %d",
			models.ErrInvalidImageFormat, src.Channels())
	}

	return safe.NewMatFromMat(gray)
}
