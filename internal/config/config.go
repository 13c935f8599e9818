// Package config loads optional CLI defaults from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/ppmfilter/internal/errs"
	"github.com/gogpu/ppmfilter/internal/filter"
)

// Config holds the settings a run can take from a config file.
type Config struct {
	// Workers is the number of convolution workers.
	// 0 selects GOMAXPROCS, 1 runs sequentially.
	Workers int

	// KernelLayout maps kernel file coefficients onto the matrix.
	KernelLayout filter.Layout

	// Clamp reduces channel sums to bytes.
	Clamp filter.ClampPolicy

	// Debug enables debug-level logging.
	Debug bool
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Workers:      0,
		KernelLayout: filter.LayoutTransposed,
		Clamp:        filter.ClampRedGated,
	}
}

// yamlConfig is the on-disk shape. Pointer fields distinguish "absent"
// from the zero value so that only present keys override defaults.
type yamlConfig struct {
	Workers      *int    `yaml:"workers"`
	KernelLayout *string `yaml:"kernel_layout"`
	Clamp        *string `yaml:"clamp"`
	Debug        *bool   `yaml:"debug"`
}

// Load reads the YAML file at path and applies it on top of Default.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Default(), &errs.OpError{Op: "config.load", Kind: errs.KindIO, Path: path, Err: err}
	}

	cfg, err := Parse(b)
	if err != nil {
		return Default(), errs.WithPath(err, path)
	}
	return cfg, nil
}

// Parse decodes YAML config data and applies it on top of Default.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var y yamlConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&y); err != nil && !errors.Is(err, io.EOF) {
		return cfg, &errs.OpError{Op: "config.parse", Kind: errs.KindFormat, Err: err}
	}

	if y.Workers != nil {
		if *y.Workers < 0 {
			return cfg, &errs.OpError{
				Op: "config.parse", Kind: errs.KindFormat, Field: "workers",
				Err: fmt.Errorf("must be >= 0, got %d", *y.Workers),
			}
		}
		cfg.Workers = *y.Workers
	}
	if y.KernelLayout != nil {
		l, err := filter.ParseLayout(*y.KernelLayout)
		if err != nil {
			return cfg, &errs.OpError{Op: "config.parse", Kind: errs.KindFormat, Field: "kernel_layout", Err: err}
		}
		cfg.KernelLayout = l
	}
	if y.Clamp != nil {
		p, err := filter.ParseClampPolicy(*y.Clamp)
		if err != nil {
			return cfg, &errs.OpError{Op: "config.parse", Kind: errs.KindFormat, Field: "clamp", Err: err}
		}
		cfg.Clamp = p
	}
	if y.Debug != nil {
		cfg.Debug = *y.Debug
	}

	return cfg, nil
}
