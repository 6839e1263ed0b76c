package stages

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
)

// ClusterStage quantizes the preprocessed image by k-means over pixel
// intensities: every pixel is replaced by its cluster's centroid, and the
// centroid values are stretched to the full byte range.
//
// Hitting the iteration cap is not a failure: the best-effort centroids are
// used and the non-convergence is recorded on the chain state.
type ClusterStage struct{}

func NewClusterStage() *ClusterStage {
	return &ClusterStage{}
}

func (c *ClusterStage) Name() string {
	return "cluster"
}

func (c *ClusterStage) ArtifactName() string {
	return chain.ArtifactClustered
}

func (c *ClusterStage) ShouldExecute(params models.EnhancementParameters) bool {
	return true
}

func (c *ClusterStage) Apply(ctx context.Context, input *safe.Mat, state *chain.State) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if input == nil || input.Empty() {
		return nil, fmt.Errorf("%w: clustering requires at least one pixel", models.ErrEmptyImage)
	}

	if err := safe.ValidateGrayMat(input, "cluster"); err != nil {
		return nil, err
	}

	pixels, err := input.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("pixel data extraction failed: %w", err)
	}

	var hist [256]int
	for _, p := range pixels {
		hist[p]++
	}

	params := state.Params()
	result, err := clusterHistogram(&hist, params.ClusterCount, params.Seed, params.MaxIterations)
	if err != nil {
		return nil, fmt.Errorf("intensity clustering failed: %w", err)
	}

	centers := make([]float64, len(result.centers))
	copy(centers, result.centers)
	state.SetStat(chain.StatClusterConverged, result.converged)
	state.SetStat(chain.StatClusterIterations, result.iterations)
	state.SetStat(chain.StatClusterCenters, centers)

	segmented, err := c.buildSegmented(input, pixels, result)
	if err != nil {
		return nil, err
	}
	defer segmented.Close()

	return RescaleToByteRange(segmented)
}

// buildSegmented maps every pixel to its cluster centroid in a CV32F Mat,
// ready for the shared rescale-and-cast.
func (c *ClusterStage) buildSegmented(input *safe.Mat, pixels []byte, result kmeansResult) (*safe.Mat, error) {
	rows := input.Rows()
	cols := input.Cols()

	segmented, err := safe.NewMat(rows, cols, gocv.MatTypeCV32F)
	if err != nil {
		return nil, fmt.Errorf("failed to create segmented Mat: %w", err)
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			intensity := pixels[y*cols+x]
			centroid := result.centers[result.lut[intensity]]
			if err := segmented.SetFloatAt(y, x, float32(centroid)); err != nil {
				segmented.Close()
				return nil, fmt.Errorf("pixel setting failed at (%d,%d): %w", x, y, err)
			}
		}
	}

	return segmented, nil
}
