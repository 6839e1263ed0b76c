package stages

import (
	"fmt"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/opencv/safe"
)

// flatRangeEpsilon guards the rescale division: value spreads below it are
// treated as a flat image.
const flatRangeEpsilon = 1e-6

// RescaleToByteRange is the single rescale-and-cast primitive shared by all
// stages that produce a floating-point intermediate: it linearly maps the
// value range of a CV32F Mat onto [0,255] and casts to 8-bit. A flat input
// (max == min) is cast with saturation only, so a uniform image stays
// uniform instead of dividing by zero.
func RescaleToByteRange(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "RescaleToByteRange"); err != nil {
		return nil, err
	}

	if src.Type() != gocv.MatTypeCV32F {
		return nil, fmt.Errorf("expected CV32F Mat, got type %d", int(src.Type()))
	}

	dst, err := safe.NewMat(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	srcMat := src.GetMat()
	dstMat := dst.GetMat()

	minVal, maxVal, _, _ := gocv.MinMaxLoc(srcMat)
	spread := float64(maxVal) - float64(minVal)

	if spread < flatRangeEpsilon {
		srcMat.ConvertTo(&dstMat, gocv.MatTypeCV8U)
		return dst, nil
	}

	scale := 255.0 / spread
	offset := -float64(minVal) * scale
	srcMat.ConvertToWithParams(&dstMat, gocv.MatTypeCV8U, float32(scale), float32(offset))

	return dst, nil
}
