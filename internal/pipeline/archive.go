package pipeline

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Archive bundles every artifact into a deflate-compressed zip container.
// Entries are named "{basename}_{artifact}.png" and hold the same bytes
// EncodePNG returns.
func (r *Result) Archive(basename string) ([]byte, error) {
	if basename == "" {
		return nil, fmt.Errorf("archive basename must not be empty")
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	for _, name := range r.Names() {
		data, err := r.EncodePNG(name)
		if err != nil {
			writer.Close()
			return nil, err
		}

		entry, err := writer.Create(fmt.Sprintf("%s_%s.png", basename, name))
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("archive entry %q creation failed: %w", name, err)
		}

		if _, err := entry.Write(data); err != nil {
			writer.Close()
			return nil, fmt.Errorf("archive entry %q write failed: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("archive finalization failed: %w", err)
	}

	return buf.Bytes(), nil
}
