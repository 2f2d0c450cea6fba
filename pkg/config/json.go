package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON loads configuration from a JSON file. Unknown keys are an error.
func LoadJSON(path string, target interface{}) error {
	// #nosec G304 -- path is provided by the caller.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// SaveJSON saves configuration to a JSON file
func SaveJSON(path string, config interface{}) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}
