// Package config loads the bimgraph YAML configuration.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/JPShankel/ModumateLegacy-sub002/graph3d"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/logging"
	"github.com/JPShankel/ModumateLegacy-sub002/miter"
)

type Config struct {
	Tolerances ToleranceConfig `yaml:"tolerances"`
	Miter      MiterConfig     `yaml:"miter"`
	Log        LogConfig       `yaml:"log"`
}

type ToleranceConfig struct {
	Vertex float64 `yaml:"vertex"`
	Planar float64 `yaml:"planar"`
	Dot    float64 `yaml:"dot"`
}

type MiterConfig struct {
	ExtensionRangeFactor float64 `yaml:"extension_range_factor"`
	// Assembly hosted on every face by the CLI.
	Assembly miter.Assembly `yaml:"assembly"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	tol := graph3d.DefaultTolerances()
	return Config{
		Tolerances: ToleranceConfig{Vertex: tol.Vertex, Planar: tol.Planar, Dot: tol.Dot},
		Miter: MiterConfig{
			ExtensionRangeFactor: miter.DefaultExtensionRangeFactor,
			Assembly: miter.Assembly{
				Layers: []miter.Layer{
					{Name: "interior finish", Thickness: 0.0125},
					{Name: "structure", Thickness: 0.15, Structural: true},
					{Name: "exterior finish", Thickness: 0.02},
				},
				Offset: 0.5,
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a config file. Fields missing from the file keep their
// defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "opening config")
	}
	defer f.Close()
	cfg, err := Decode(f)
	return cfg, errors.Wrapf(err, "loading %s", path)
}

func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config")
	}
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(err, "parsing config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Tolerances.Vertex <= 0 || c.Tolerances.Planar <= 0 || c.Tolerances.Dot <= 0 {
		return errors.Errorf("tolerances must be positive, got %+v", c.Tolerances)
	}
	if c.Tolerances.Dot >= 1 {
		return errors.Errorf("dot tolerance %g must be below 1", c.Tolerances.Dot)
	}
	if c.Miter.ExtensionRangeFactor <= 0 {
		return errors.Errorf("miter extension_range_factor must be positive, got %g", c.Miter.ExtensionRangeFactor)
	}
	if err := c.Miter.Assembly.Validate(); err != nil {
		return errors.Wrap(err, "miter assembly")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c Config) GraphTolerances() graph3d.Tolerances {
	return graph3d.Tolerances{Vertex: c.Tolerances.Vertex, Planar: c.Tolerances.Planar, Dot: c.Tolerances.Dot}
}
