package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/clvecsum/internal/backend"
	"github.com/cwbudde/clvecsum/internal/compute"
)

func TestDefaultIsReferenceRun(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "auto", cfg.Backend)
	assert.Equal(t, 1024, cfg.Elements)
	assert.True(t, cfg.Verify)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clvecsum.yaml")
	content := `
backend: host
elements: 16
device_type: cpu
extensions: [cl_khr_fp64]
quiet: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "host", cfg.Backend)
	assert.Equal(t, 16, cfg.Elements)
	assert.True(t, cfg.Quiet)
	assert.True(t, cfg.Verify, "unset keys keep their default")
	assert.Equal(t, []string{"cl_khr_fp64"}, cfg.Extensions)
}

func TestDecodeEmptyDocument(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "elemnts: 3\n",
		"negative":       "elements: -1\n",
		"too many":       "elements: 2147483648\n",
		"backend":        "backend: vulkan\n",
		"device type":    "device_type: fpga\n",
		"log level":      "log_level: chatty\n",
		"malformed yaml": "elements: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSelectionOverrides(t *testing.T) {
	gpu := compute.DeviceInfo{Type: compute.DeviceTypeGPU}
	fp64 := compute.DeviceInfo{Type: compute.DeviceTypeGPU, Extensions: []string{"cl_khr_fp64"}}

	sel, err := Default().Selection(backend.BackendOpenCL)
	require.NoError(t, err)
	assert.Equal(t, compute.DeviceTypeGPU, sel.DeviceType)
	assert.False(t, sel.Device(gpu), "reference policy requires a sharing extension")

	cfg := Default()
	cfg.Extensions = []string{"any"}
	cfg.DeviceType = "all"
	sel, err = cfg.Selection(backend.BackendOpenCL)
	require.NoError(t, err)
	assert.Equal(t, compute.DeviceTypeAll, sel.DeviceType)
	assert.True(t, sel.Device(gpu))

	cfg.Extensions = []string{"cl_khr_fp64"}
	sel, err = cfg.Selection(backend.BackendOpenCL)
	require.NoError(t, err)
	assert.True(t, sel.Device(fp64))
	assert.False(t, sel.Device(gpu))

	cfg.Platform = "intel"
	sel, err = cfg.Selection(backend.BackendHost)
	require.NoError(t, err)
	_, ok := sel.Platform([]compute.Platform{{Info: compute.PlatformInfo{Name: "AMD APP"}}})
	assert.False(t, ok)
}
