package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// loadFile decodes the TOML file at path over cfg. A missing file is not an
// error; the returned bool reports whether the file was read.
func loadFile(path string, cfg *Config) (bool, error) {
	if path == "" {
		return false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return false, fmt.Errorf("parse config %s: %s", path, strictErr.String())
		}
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return true, nil
}

// Sample renders cfg as TOML, suitable as a starting config file.
func Sample(cfg Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
