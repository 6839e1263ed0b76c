package stages

import (
	"fmt"
	"math"
	"math/rand"
)

// convergenceThreshold is the centroid movement below which the k-means
// iteration stops.
const convergenceThreshold = 1e-3

type kmeansResult struct {
	centers    []float64
	lut        [256]int // intensity -> cluster index
	converged  bool
	iterations int
}

// clusterHistogram runs 1-D k-means over an intensity histogram. Working on
// the histogram instead of raw pixels keeps each iteration at 256 distinct
// observations regardless of image size, with pixel counts as weights.
//
// Initialization is k-means++ driven by a source seeded with seed, so the
// result is reproducible for identical input and parameters. When the image
// holds fewer distinct intensities than k, the effective cluster count
// degrades to the number of distinct intensities without error.
func clusterHistogram(hist *[256]int, k int, seed int64, maxIterations int) (kmeansResult, error) {
	values := make([]float64, 0, 256)
	weights := make([]float64, 0, 256)
	for v, count := range hist {
		if count > 0 {
			values = append(values, float64(v))
			weights = append(weights, float64(count))
		}
	}

	if len(values) == 0 {
		return kmeansResult{}, fmt.Errorf("histogram holds no observations")
	}

	if k > len(values) {
		k = len(values)
	}

	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(rng, values, weights, k)

	result := kmeansResult{centers: centers}
	assignments := make([]int, len(values))

	for result.iterations < maxIterations {
		result.iterations++

		for i, v := range values {
			assignments[i] = nearestCenter(centers, v)
		}

		movement := 0.0
		for c := range centers {
			sum := 0.0
			weight := 0.0
			for i, v := range values {
				if assignments[i] == c {
					sum += v * weights[i]
					weight += weights[i]
				}
			}

			// An emptied cluster keeps its previous center.
			if weight == 0 {
				continue
			}

			updated := sum / weight
			movement = math.Max(movement, math.Abs(updated-centers[c]))
			centers[c] = updated
		}

		if movement < convergenceThreshold {
			result.converged = true
			break
		}
	}

	for v := 0; v < 256; v++ {
		result.lut[v] = nearestCenter(centers, float64(v))
	}

	return result, nil
}

// seedCenters picks k initial centers with k-means++: the first center is a
// count-weighted draw, each following one is drawn proportionally to the
// squared distance from the nearest already-chosen center.
func seedCenters(rng *rand.Rand, values, weights []float64, k int) []float64 {
	centers := make([]float64, 0, k)
	centers = append(centers, weightedDraw(rng, values, weights))

	dist2 := make([]float64, len(values))
	for len(centers) < k {
		total := 0.0
		for i, v := range values {
			d := v - centers[0]
			least := d * d
			for _, c := range centers[1:] {
				d = v - c
				if dd := d * d; dd < least {
					least = dd
				}
			}
			dist2[i] = least * weights[i]
			total += dist2[i]
		}

		if total == 0 {
			// Every remaining observation coincides with a chosen center.
			break
		}

		centers = append(centers, weightedDraw(rng, values, dist2))
	}

	return centers
}

func weightedDraw(rng *rand.Rand, values, weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}

	target := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return values[i]
		}
	}

	return values[len(values)-1]
}

// nearestCenter breaks ties toward the lower index so assignment is stable.
func nearestCenter(centers []float64, v float64) int {
	best := 0
	bestDist := math.Abs(centers[0] - v)
	for c := 1; c < len(centers); c++ {
		if d := math.Abs(centers[c] - v); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
