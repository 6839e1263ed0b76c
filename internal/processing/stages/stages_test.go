package stages

import (
	"testing"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
)

// makeGray builds an 8-bit single-channel test Mat with fn deciding each
// pixel. Cleanup is registered on t.
func makeGray(t *testing.T, rows, cols int, fn func(y, x int) uint8) *safe.Mat {
	t.Helper()

	data := make([]byte, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			data[y*cols+x] = fn(y, x)
		}
	}

	mat, err := safe.NewGrayFromBytes(rows, cols, data)
	if err != nil {
		t.Fatalf("NewGrayFromBytes: %v", err)
	}
	t.Cleanup(mat.Close)

	return mat
}

func stateWith(t *testing.T, params models.EnhancementParameters) *chain.State {
	t.Helper()

	state := chain.NewState(params)
	t.Cleanup(state.Close)
	return state
}

func matBytes(t *testing.T, mat *safe.Mat) []byte {
	t.Helper()

	data, err := mat.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	return data
}

func distinctValues(data []byte) map[uint8]int {
	values := make(map[uint8]int)
	for _, v := range data {
		values[v]++
	}
	return values
}
