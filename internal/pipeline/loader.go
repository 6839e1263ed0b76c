package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"gocv.io/x/gocv"

	"xray-enhancer/internal/logger"
	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
)

// ImageLoader decodes raw container bytes (PNG or JPEG) into a Mat for the
// pipeline. The standard library sniffs and validates the container, OpenCV
// does the decode the rest of the pipeline operates on. The decode keeps the
// source bit depth and channel count; the grayscale stage canonicalizes.
type ImageLoader struct {
	logger logger.Logger
}

func NewImageLoader(log logger.Logger) *ImageLoader {
	if log == nil {
		log = logger.Nop()
	}
	return &ImageLoader{logger: log}
}

func (l *ImageLoader) LoadFromReader(reader io.Reader) (*safe.Mat, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return l.LoadFromBytes(data)
}

func (l *ImageLoader) LoadFromBytes(data []byte) (*safe.Mat, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image data", models.ErrInvalidImageFormat)
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidImageFormat, err)
	}

	if config.Width == 0 || config.Height == 0 {
		return nil, fmt.Errorf("%w: decoded to %dx%d", models.ErrEmptyImage, config.Width, config.Height)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidImageFormat, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: OpenCV decoder produced no pixels", models.ErrInvalidImageFormat)
	}

	safeMat, err := safe.NewMatFromMat(mat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidImageFormat, err)
	}

	l.logger.Debug("ImageLoader", "image decoded", map[string]interface{}{
		"width":      safeMat.Cols(),
		"height":     safeMat.Rows(),
		"channels":   safeMat.Channels(),
		"format":     format,
		"size_bytes": len(data),
	})

	return safeMat, nil
}
