package models

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "params.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParameters_PartialOverride(t *testing.T) {
	path := writeConfig(t, `
cluster_count = 5
blend_alpha = 0.5
normalization_mode = "adaptive"
`)

	params, err := LoadParameters(path)
	if err != nil {
		t.Fatalf("LoadParameters: %v", err)
	}

	if params.ClusterCount != 5 {
		t.Fatalf("ClusterCount = %d, want 5", params.ClusterCount)
	}
	if params.BlendAlpha != 0.5 {
		t.Fatalf("BlendAlpha = %v, want 0.5", params.BlendAlpha)
	}
	if params.NormalizationMode != AdaptiveEqualization {
		t.Fatalf("NormalizationMode = %q, want adaptive", params.NormalizationMode)
	}

	// Untouched fields keep their defaults.
	defaults := DefaultParameters()
	if params.Seed != defaults.Seed {
		t.Fatalf("Seed = %d, want default %d", params.Seed, defaults.Seed)
	}
	if params.ClipLimit != defaults.ClipLimit {
		t.Fatalf("ClipLimit = %v, want default %v", params.ClipLimit, defaults.ClipLimit)
	}
}

func TestLoadParameters_UnknownKey(t *testing.T) {
	path := writeConfig(t, `clusterz = 5`)

	_, err := LoadParameters(path)
	if err == nil || !strings.Contains(err.Error(), "unknown parameter key") {
		t.Fatalf("error = %v, want unknown key rejection", err)
	}
}

func TestLoadParameters_OutOfRangeValue(t *testing.T) {
	path := writeConfig(t, `cluster_count = 50`)

	_, err := LoadParameters(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestLoadParameters_MissingFile(t *testing.T) {
	_, err := LoadParameters(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
