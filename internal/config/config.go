// Package config loads designdoc settings from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ha1tch/designdoc/internal/logging"
	"github.com/ha1tch/designdoc/pkg/diagram"
	"github.com/ha1tch/designdoc/pkg/docx"
)

// Config is the top-level configuration.
type Config struct {
	Engine      string        `yaml:"engine"`   // auto | graphviz | native
	DotPath     string        `yaml:"dot_path"` // empty: "dot" on PATH
	Supersample int           `yaml:"supersample"`
	Diagram     DiagramConfig `yaml:"diagram"`
	Header      docx.Header   `yaml:"header"`
	OutputName  string        `yaml:"output_name"`
	LogLevel    string        `yaml:"log_level"`
	Listen      string        `yaml:"listen"`
}

// DiagramConfig is the display size of the diagram inside the document.
type DiagramConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Engine:      diagram.EngineAuto,
		Supersample: 2,
		Diagram:     DiagramConfig{Width: 600, Height: 300},
		Header:      docx.DefaultHeader(),
		OutputName:  docx.DefaultName,
		LogLevel:    "info",
		Listen:      ":8080",
	}
}

// Load reads a YAML file over Default. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Header
// fields left out of the file keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Engine) {
	case diagram.EngineAuto, diagram.EngineGraphviz, diagram.EngineNative:
	default:
		return fmt.Errorf("engine must be auto, graphviz or native, not %q", c.Engine)
	}
	if c.Supersample < 1 || c.Supersample > 8 {
		return fmt.Errorf("supersample must be between 1 and 8")
	}
	if c.Diagram.Width <= 0 || c.Diagram.Height <= 0 {
		return fmt.Errorf("diagram width and height must be > 0")
	}
	if c.OutputName == "" {
		return fmt.Errorf("output_name is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DocxOptions returns the assembler options this configuration selects.
func (c *Config) DocxOptions() docx.Options {
	return docx.Options{
		Header:        c.Header,
		Name:          c.OutputName,
		DiagramWidth:  c.Diagram.Width,
		DiagramHeight: c.Diagram.Height,
	}
}

// Renderer builds the configured diagram engine.
func (c *Config) Renderer() (diagram.Renderer, error) {
	return diagram.NewRenderer(c.Engine, c.DotPath, diagram.DefaultSVGOptions())
}

// Rasterizer returns the configured rasterizer.
func (c *Config) Rasterizer() diagram.Rasterizer {
	return diagram.Rasterizer{Supersample: c.Supersample}
}
