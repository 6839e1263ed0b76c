package models

import (
	"errors"
	"testing"
)

func TestDefaultParametersValidate(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("defaults must validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*EnhancementParameters)
		wantField string
	}{
		{"cluster_count_too_low", func(p *EnhancementParameters) { p.ClusterCount = 1 }, "ClusterCount"},
		{"cluster_count_too_high", func(p *EnhancementParameters) { p.ClusterCount = 13 }, "ClusterCount"},
		{"alpha_negative", func(p *EnhancementParameters) { p.BlendAlpha = -0.01 }, "BlendAlpha"},
		{"alpha_above_one", func(p *EnhancementParameters) { p.BlendAlpha = 1.01 }, "BlendAlpha"},
		{"unknown_mode", func(p *EnhancementParameters) { p.NormalizationMode = "median" }, "NormalizationMode"},
		{"clip_limit_zero", func(p *EnhancementParameters) {
			p.NormalizationMode = AdaptiveEqualization
			p.ClipLimit = 0
		}, "ClipLimit"},
		{"tile_grid_too_small", func(p *EnhancementParameters) {
			p.NormalizationMode = AdaptiveEqualization
			p.TileGridSize = 0
		}, "TileGridSize"},
		{"tile_grid_too_large", func(p *EnhancementParameters) {
			p.NormalizationMode = AdaptiveEqualization
			p.TileGridSize = 65
		}, "TileGridSize"},
		{"max_dimension_without_value", func(p *EnhancementParameters) {
			p.OptimizeLargeImages = true
			p.MaxDimension = 0
		}, "MaxDimension"},
		{"max_iterations_zero", func(p *EnhancementParameters) { p.MaxIterations = 0 }, "MaxIterations"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParameters()
			tc.mutate(&params)

			err := params.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tc.wantField {
				t.Fatalf("field = %q, want %q", verr.Field, tc.wantField)
			}
		})
	}
}

func TestValidate_BoundaryValuesAccepted(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EnhancementParameters)
	}{
		{"cluster_count_min", func(p *EnhancementParameters) { p.ClusterCount = 2 }},
		{"cluster_count_max", func(p *EnhancementParameters) { p.ClusterCount = 12 }},
		{"alpha_zero", func(p *EnhancementParameters) { p.BlendAlpha = 0 }},
		{"alpha_one", func(p *EnhancementParameters) { p.BlendAlpha = 1 }},
		{"adaptive_defaults", func(p *EnhancementParameters) { p.NormalizationMode = AdaptiveEqualization }},
		{"clip_limit_ignored_for_global", func(p *EnhancementParameters) { p.ClipLimit = -5 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParameters()
			tc.mutate(&params)

			if err := params.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "ClusterCount", Value: 99, Reason: "must be between 2 and 12"}
	want := "invalid parameter ClusterCount=99: must be between 2 and 12"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
