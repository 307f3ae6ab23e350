package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/designdoc/pkg/diagram"
	"github.com/ha1tch/designdoc/pkg/docx"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, docx.DefaultName, cfg.OutputName)
	assert.Equal(t, 600, cfg.Diagram.Width)
	assert.Equal(t, "COMP 1234", cfg.Header.Course)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
engine: native
supersample: 3
diagram:
  width: 400
header:
  author: Sam Roe
output_name: out.docx
`))
	require.NoError(t, err)

	assert.Equal(t, diagram.EngineNative, cfg.Engine)
	assert.Equal(t, 3, cfg.Supersample)
	assert.Equal(t, 400, cfg.Diagram.Width)
	assert.Equal(t, 300, cfg.Diagram.Height)
	assert.Equal(t, "Sam Roe", cfg.Header.Author)
	assert.Equal(t, "Assignment 1", cfg.Header.Assignment)

	opts := cfg.DocxOptions()
	assert.Equal(t, "out.docx", opts.Name)
	assert.Equal(t, 400, opts.DiagramWidth)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":  "colour: blue\n",
		"bad engine":   "engine: neato\n",
		"supersample":  "supersample: 0\n",
		"diagram size": "diagram:\n  height: -1\n",
		"log level":    "log_level: loud\n",
		"syntax":       "engine: [\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(text))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRendererFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Engine = diagram.EngineNative
	r, err := cfg.Renderer()
	require.NoError(t, err)
	assert.IsType(t, diagram.NativeEngine{}, r)
	assert.Equal(t, 2, cfg.Rasterizer().Supersample)
}
