// Package config loads run settings from an optional YAML file. Command
// line flags are applied on top by the cmd package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/clvecsum/internal/backend"
	"github.com/cwbudde/clvecsum/internal/compute"
	"github.com/cwbudde/clvecsum/internal/vecsum"
)

// AnyExtension in Extensions disables the device extension requirement.
const AnyExtension = "any"

// Config holds every setting of a run.
type Config struct {
	// Backend is auto, host or opencl.
	Backend string `yaml:"backend"`
	// Elements is the vector length.
	Elements int `yaml:"elements"`
	// Platform selects the first platform whose name contains this text.
	// Empty selects the first platform.
	Platform string `yaml:"platform"`
	// DeviceType filters devices (gpu, cpu, accelerator, default, all).
	// Empty uses the backend default.
	DeviceType string `yaml:"device_type"`
	// Extensions the device must support at least one of. Nil uses the
	// backend default; a list containing "any" accepts every device.
	Extensions []string `yaml:"extensions"`
	// DataDir enables run records and stage traces when set.
	DataDir string `yaml:"data_dir"`
	// Quiet suppresses per-element output.
	Quiet bool `yaml:"quiet"`
	// Verify compares the result with the host computation.
	Verify   bool   `yaml:"verify"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the reference run settings.
func Default() Config {
	return Config{
		Backend:  string(backend.BackendAuto),
		Elements: vecsum.DefaultElements,
		Verify:   true,
		LogLevel: "info",
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads YAML from r over the defaults.
func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	if c.Elements < 0 {
		return fmt.Errorf("elements must be >= 0, got %d", c.Elements)
	}
	if c.Elements > math.MaxInt32 {
		return fmt.Errorf("elements must be <= %d, got %d", math.MaxInt32, c.Elements)
	}
	b := backend.Normalize(c.Backend)
	known := false
	for _, s := range backend.Supported() {
		if s == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("%w: %s", backend.ErrUnknownBackend, c.Backend)
	}
	if c.DeviceType != "" {
		if _, err := compute.ParseDeviceType(c.DeviceType); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Selection builds the device selection for backend b, starting from the
// backend default and applying the configured overrides.
func (c Config) Selection(b backend.Backend) (compute.Selection, error) {
	sel := backend.DefaultSelection(b)

	if c.Platform != "" {
		sel.Platform = compute.PlatformNamed(c.Platform)
	}
	if c.DeviceType != "" {
		t, err := compute.ParseDeviceType(c.DeviceType)
		if err != nil {
			return compute.Selection{}, err
		}
		sel.DeviceType = t
	}
	if c.Extensions != nil {
		exts := make([]string, 0, len(c.Extensions))
		for _, ext := range c.Extensions {
			ext = strings.TrimSpace(ext)
			if ext == "" {
				continue
			}
			if strings.EqualFold(ext, AnyExtension) {
				exts = nil
				break
			}
			exts = append(exts, ext)
		}
		sel.Device = compute.HasAnyExtension(exts...)
	}
	return sel, nil
}
