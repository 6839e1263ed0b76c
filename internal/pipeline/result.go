package pipeline

import (
	"bytes"
	"fmt"
	"image/png"

	"xray-enhancer/internal/opencv/conversion"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
)

// ClusterStats reports how the clustering stage ended. Non-convergence is
// informational, not an error.
type ClusterStats struct {
	Converged  bool
	Iterations int
	Centers    []float64
}

// Result holds the named artifacts of one pipeline run: original,
// preprocessed, clustered, enhanced. All are 8-bit grayscale with identical
// dimensions. The Result owns the buffers; Close releases them.
type Result struct {
	state *chain.State

	ClusterStats ClusterStats
}

func newResult(state *chain.State) *Result {
	result := &Result{state: state}

	if v, ok := state.Stat(chain.StatClusterConverged); ok {
		if converged, ok := v.(bool); ok {
			result.ClusterStats.Converged = converged
		}
	}
	if v, ok := state.Stat(chain.StatClusterIterations); ok {
		if iterations, ok := v.(int); ok {
			result.ClusterStats.Iterations = iterations
		}
	}
	if v, ok := state.Stat(chain.StatClusterCenters); ok {
		if centers, ok := v.([]float64); ok {
			result.ClusterStats.Centers = centers
		}
	}

	return result
}

// Names returns the artifact names in pipeline order.
func (r *Result) Names() []string {
	return r.state.ArtifactNames()
}

// Artifact returns the named buffer. It stays owned by the Result and is
// released by Close; callers needing a longer-lived copy should Clone it.
func (r *Result) Artifact(name string) (*safe.Mat, error) {
	return r.state.Artifact(name)
}

// EncodePNG losslessly encodes the named artifact. The encoding is
// deterministic: identical pixels produce identical bytes.
func (r *Result) EncodePNG(name string) ([]byte, error) {
	mat, err := r.state.Artifact(name)
	if err != nil {
		return nil, err
	}

	img, err := conversion.GrayMatToImage(mat)
	if err != nil {
		return nil, fmt.Errorf("artifact %q conversion failed: %w", name, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("artifact %q PNG encoding failed: %w", name, err)
	}

	return buf.Bytes(), nil
}

func (r *Result) Close() {
	r.state.Close()
}
