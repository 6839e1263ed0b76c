package models

import "fmt"

// NormalizationMode selects the contrast normalization strategy.
type NormalizationMode string

const (
	GlobalEqualization   NormalizationMode = "global"
	AdaptiveEqualization NormalizationMode = "adaptive"
)

// DefaultSeed matches the clustering seed the pipeline has always shipped
// with. The seed is an explicit parameter because output reproducibility
// depends on it.
const DefaultSeed int64 = 42

// EnhancementParameters configures one pipeline invocation. The zero value
// is not usable; start from DefaultParameters.
type EnhancementParameters struct {
	ClusterCount        int               `toml:"cluster_count"`
	BlendAlpha          float64           `toml:"blend_alpha"`
	NormalizationMode   NormalizationMode `toml:"normalization_mode"`
	ClipLimit           float64           `toml:"clip_limit"`
	TileGridSize        int               `toml:"tile_grid_size"`
	OptimizeLargeImages bool              `toml:"optimize_large_images"`
	MaxDimension        int               `toml:"max_dimension"`
	Seed                int64             `toml:"seed"`
	MaxIterations       int               `toml:"max_iterations"`
}

// ValidationError reports a parameter outside its documented range.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func DefaultParameters() EnhancementParameters {
	return EnhancementParameters{
		ClusterCount:        8,
		BlendAlpha:          0.7,
		NormalizationMode:   GlobalEqualization,
		ClipLimit:           3.0,
		TileGridSize:        8,
		OptimizeLargeImages: false,
		MaxDimension:        1000,
		Seed:                DefaultSeed,
		MaxIterations:       100,
	}
}

// Validate rejects out-of-range parameters before any stage runs.
func (p EnhancementParameters) Validate() error {
	if p.ClusterCount < 2 || p.ClusterCount > 12 {
		return &ValidationError{
			Field:  "ClusterCount",
			Value:  p.ClusterCount,
			Reason: "must be between 2 and 12",
		}
	}

	if p.BlendAlpha < 0.0 || p.BlendAlpha > 1.0 {
		return &ValidationError{
			Field:  "BlendAlpha",
			Value:  p.BlendAlpha,
			Reason: "must be between 0.0 and 1.0",
		}
	}

	switch p.NormalizationMode {
	case GlobalEqualization:
	case AdaptiveEqualization:
		if p.ClipLimit <= 0.0 {
			return &ValidationError{
				Field:  "ClipLimit",
				Value:  p.ClipLimit,
				Reason: "must be positive for adaptive equalization",
			}
		}
		if p.TileGridSize < 1 || p.TileGridSize > 64 {
			return &ValidationError{
				Field:  "TileGridSize",
				Value:  p.TileGridSize,
				Reason: "must be between 1 and 64",
			}
		}
	default:
		return &ValidationError{
			Field:  "NormalizationMode",
			Value:  string(p.NormalizationMode),
			Reason: "must be \"global\" or \"adaptive\"",
		}
	}

	if p.OptimizeLargeImages && p.MaxDimension <= 0 {
		return &ValidationError{
			Field:  "MaxDimension",
			Value:  p.MaxDimension,
			Reason: "must be positive when large image optimization is enabled",
		}
	}

	if p.MaxIterations < 1 {
		return &ValidationError{
			Field:  "MaxIterations",
			Value:  p.MaxIterations,
			Reason: "must be at least 1",
		}
	}

	return nil
}
