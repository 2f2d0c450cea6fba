package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadTOML loads configuration from a TOML file. Unknown keys are an error.
func LoadTOML(path string, target interface{}) error {
	// #nosec G304 -- path is provided by the caller.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read TOML file %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), target)
	if err != nil {
		return fmt.Errorf("failed to unmarshal TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown TOML keys: %v", undecoded)
	}
	return nil
}

// SaveTOML saves configuration to a TOML file
func SaveTOML(path string, config interface{}) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to marshal TOML: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write TOML file: %w", err)
	}
	return nil
}
