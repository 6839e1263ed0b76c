package stages

import (
	"context"
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
)

func makeColor(t *testing.T, rows, cols, channels int, fn func(y, x, c int) uint8) *safe.Mat {
	t.Helper()

	matType := gocv.MatTypeCV8UC3
	if channels == 4 {
		matType = gocv.MatTypeCV8UC4
	}

	data := make([]byte, rows*cols*channels)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			for c := 0; c < channels; c++ {
				data[(y*cols+x)*channels+c] = fn(y, x, c)
			}
		}
	}

	raw, err := gocv.NewMatFromBytes(rows, cols, matType, data)
	if err != nil {
		t.Fatalf("NewMatFromBytes: %v", err)
	}
	defer raw.Close()

	mat, err := safe.NewMatFromMat(raw)
	if err != nil {
		t.Fatalf("NewMatFromMat: %v", err)
	}
	t.Cleanup(mat.Close)

	return mat
}

func TestGrayscaleStage_CollapsesNeutralColor(t *testing.T) {
	stage := NewGrayscaleStage()

	for _, channels := range []int{3, 4} {
		input := makeColor(t, 10, 10, channels, func(y, x, c int) uint8 {
			if c == 3 {
				return 255
			}
			return uint8((x + y*10) % 256)
		})
		state := stateWith(t, models.DefaultParameters())

		out, err := stage.Apply(context.Background(), input, state)
		if err != nil {
			t.Fatalf("Apply (%d channels): %v", channels, err)
		}
		defer out.Close()

		if out.Channels() != 1 || out.Type() != gocv.MatTypeCV8UC1 {
			t.Fatalf("output not 8-bit gray: %d channels, type %d", out.Channels(), int(out.Type()))
		}

		// Equal B, G, R components convert to the same gray value.
		data := matBytes(t, out)
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				want := uint8((x + y*10) % 256)
				if data[y*10+x] != want {
					t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, data[y*10+x], want)
				}
			}
		}
	}
}

func TestGrayscaleStage_PassesThroughGray(t *testing.T) {
	stage := NewGrayscaleStage()
	input := makeGray(t, 12, 12, func(y, x int) uint8 { return uint8(x * 20) })
	state := stateWith(t, models.DefaultParameters())

	out, err := stage.Apply(context.Background(), input, state)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Close()

	if string(matBytes(t, out)) != string(matBytes(t, input)) {
		t.Fatalf("gray input must pass through unchanged")
	}

	// The output is an independent copy.
	if err := out.SetUCharAt(0, 0, 99); err != nil {
		t.Fatalf("SetUCharAt: %v", err)
	}
	if v, _ := input.GetUCharAt(0, 0); v == 99 {
		t.Fatalf("output aliases the input buffer")
	}
}

func TestGrayscaleStage_Converts16Bit(t *testing.T) {
	stage := NewGrayscaleStage()

	raw := gocv.NewMatWithSize(6, 6, gocv.MatTypeCV16UC1)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			raw.SetShortAt(y, x, int16(0x4040))
		}
	}
	input, err := safe.NewMatFromMat(raw)
	raw.Close()
	if err != nil {
		t.Fatalf("NewMatFromMat: %v", err)
	}
	t.Cleanup(input.Close)

	state := stateWith(t, models.DefaultParameters())
	out, err := stage.Apply(context.Background(), input, state)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Close()

	if out.Type() != gocv.MatTypeCV8UC1 {
		t.Fatalf("output type = %d, want 8UC1", int(out.Type()))
	}
	// 0x4040 / 257 = 0x40.
	if v, _ := out.GetUCharAt(0, 0); v != 0x40 {
		t.Fatalf("16-bit sample mapped to %d, want %d", v, 0x40)
	}
}

func TestGrayscaleStage_Collapses16BitColor(t *testing.T) {
	stage := NewGrayscaleStage()

	raw := gocv.NewMatWithSize(6, 6, gocv.MatTypeCV16UC3)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			for c := 0; c < 3; c++ {
				raw.SetShortAt3(y, x, c, int16(0x4040))
			}
		}
	}
	input, err := safe.NewMatFromMat(raw)
	raw.Close()
	if err != nil {
		t.Fatalf("NewMatFromMat: %v", err)
	}
	t.Cleanup(input.Close)

	state := stateWith(t, models.DefaultParameters())
	out, err := stage.Apply(context.Background(), input, state)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Close()

	if out.Type() != gocv.MatTypeCV8UC1 {
		t.Fatalf("output type = %d, want 8UC1", int(out.Type()))
	}
	// Equal 16-bit channels collapse to the same value, then 0x4040 / 257
	// reduces to 0x40.
	if v, _ := out.GetUCharAt(0, 0); v != 0x40 {
		t.Fatalf("pixel (0,0) = %d, want %d", v, 0x40)
	}
}

func TestGrayscaleStage_RejectsUnsupported(t *testing.T) {
	stage := NewGrayscaleStage()

	raw := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV32F)
	input, err := safe.NewMatFromMat(raw)
	raw.Close()
	if err != nil {
		t.Fatalf("NewMatFromMat: %v", err)
	}
	t.Cleanup(input.Close)

	state := stateWith(t, models.DefaultParameters())
	if _, err := stage.Apply(context.Background(), input, state); !errors.Is(err, models.ErrInvalidImageFormat) {
		t.Fatalf("error = %v, want ErrInvalidImageFormat", err)
	}
}
