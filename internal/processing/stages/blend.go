package stages

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
)

// BlendStage mixes the clustered image back with the preprocessed one:
// alpha * clustered + (1-alpha) * preprocessed, computed in floating point
// and rescaled to the byte range. Quantization discards fine texture; the
// blend reintroduces it in proportion to 1-alpha.
type BlendStage struct{}

func NewBlendStage() *BlendStage {
	return &BlendStage{}
}

func (b *BlendStage) Name() string {
	return "blend"
}

// ArtifactName is empty: the blended image only feeds the sharpener.
func (b *BlendStage) ArtifactName() string {
	return ""
}

func (b *BlendStage) ShouldExecute(params models.EnhancementParameters) bool {
	return true
}

func (b *BlendStage) Apply(ctx context.Context, input *safe.Mat, state *chain.State) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateGrayMat(input, "blend"); err != nil {
		return nil, err
	}

	preprocessed, err := state.Artifact(chain.ArtifactPreprocessed)
	if err != nil {
		return nil, err
	}

	if preprocessed.Rows() != input.Rows() || preprocessed.Cols() != input.Cols() {
		return nil, fmt.Errorf("dimension mismatch: clustered %dx%d, preprocessed %dx%d",
			input.Cols(), input.Rows(), preprocessed.Cols(), preprocessed.Rows())
	}

	alpha := state.Params().BlendAlpha

	clusteredF := gocv.NewMat()
	defer clusteredF.Close()
	preprocessedF := gocv.NewMat()
	defer preprocessedF.Close()

	inputMat := input.GetMat()
	inputMat.ConvertTo(&clusteredF, gocv.MatTypeCV32F)
	preprocessedMat := preprocessed.GetMat()
	preprocessedMat.ConvertTo(&preprocessedF, gocv.MatTypeCV32F)

	blended, err := safe.NewMat(input.Rows(), input.Cols(), gocv.MatTypeCV32F)
	if err != nil {
		return nil, fmt.Errorf("failed to create blended Mat: %w", err)
	}
	defer blended.Close()

	blendedMat := blended.GetMat()
	gocv.AddWeighted(clusteredF, alpha, preprocessedF, 1.0-alpha, 0, &blendedMat)

	return RescaleToByteRange(blended)
}
