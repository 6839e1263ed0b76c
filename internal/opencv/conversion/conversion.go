package conversion

import (
	"fmt"
	"image"

	"xray-enhancer/internal/opencv/safe"
)

// GrayMatToImage copies an 8-bit single-channel Mat into an image.Gray.
// The returned image owns its pixel buffer; the Mat may be released after.
func GrayMatToImage(mat *safe.Mat) (*image.Gray, error) {
	if err := safe.ValidateGrayMat(mat, "GrayMatToImage"); err != nil {
		return nil, err
	}

	rows := mat.Rows()
	cols := mat.Cols()

	data, err := mat.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("pixel data extraction failed: %w", err)
	}

	if len(data) != rows*cols {
		return nil, fmt.Errorf("unexpected pixel data length %d for %dx%d", len(data), cols, rows)
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	copy(img.Pix, data)

	return img, nil
}

// GrayImageToMat copies an image.Gray into a new 8-bit single-channel Mat.
func GrayImageToMat(img *image.Gray) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}

	bounds := img.Bounds()
	rows := bounds.Dy()
	cols := bounds.Dx()

	if err := safe.ValidateDimensions(cols, rows, "GrayImageToMat"); err != nil {
		return nil, err
	}

	// image.Gray rows may be padded; repack when Stride != width.
	data := make([]byte, rows*cols)
	for y := 0; y < rows; y++ {
		srcOff := y * img.Stride
		copy(data[y*cols:(y+1)*cols], img.Pix[srcOff:srcOff+cols])
	}

	return safe.NewGrayFromBytes(rows, cols, data)
}
