package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"liquidityPilot/internal/strategy"
)

// LoadParams decodes a YAML parameter preset over base. Keys absent from the
// file keep the value from base.
func LoadParams(path string, base strategy.Params) (strategy.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return strategy.Params{}, fmt.Errorf("read params: %w", err)
	}

	params := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil {
		return strategy.Params{}, fmt.Errorf("decode params %s: %w", path, err)
	}
	return params, nil
}
