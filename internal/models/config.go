package models

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadParameters reads a TOML parameter file on top of the defaults, so a
// config file only needs to name the fields it changes.
func LoadParameters(path string) (EnhancementParameters, error) {
	params := DefaultParameters()

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read parameter file: %w", err)
	}

	meta, err := toml.Decode(string(data), &params)
	if err != nil {
		return params, fmt.Errorf("failed to decode parameter file: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return params, fmt.Errorf("unknown parameter key %q in %s", undecoded[0].String(), path)
	}

	if err := params.Validate(); err != nil {
		return params, err
	}

	return params, nil
}
