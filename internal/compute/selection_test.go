package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeviceType(t *testing.T) {
	tests := []struct {
		in      string
		want    DeviceType
		wantErr bool
	}{
		{"gpu", DeviceTypeGPU, false},
		{" GPU ", DeviceTypeGPU, false},
		{"cpu", DeviceTypeCPU, false},
		{"acc", DeviceTypeAccelerator, false},
		{"any", DeviceTypeAll, false},
		{"fpga", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDeviceType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseDeviceType(%q)", tt.in)
			continue
		}
		assert.NoError(t, err, "ParseDeviceType(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseDeviceType(%q)", tt.in)
	}
}

func TestHasAnyExtension(t *testing.T) {
	pred := HasAnyExtension(SharingExtensions...)

	assert.False(t, pred(DeviceInfo{Extensions: SplitExtensions("cl_khr_fp64 cl_khr_icd")}), "device without sharing extension accepted")
	assert.True(t, pred(DeviceInfo{Extensions: SplitExtensions("cl_khr_fp64  cl_khr_gl_sharing")}))
	assert.True(t, pred(DeviceInfo{Extensions: []string{"cl_APPLE_gl_sharing"}}))
	assert.True(t, HasAnyExtension()(DeviceInfo{}), "empty extension list should accept every device")
}

func TestFirstPlatform(t *testing.T) {
	_, ok := FirstPlatform(nil)
	assert.False(t, ok)

	p, ok := FirstPlatform([]Platform{{Info: PlatformInfo{Name: "one"}}, {Info: PlatformInfo{Name: "two"}}})
	assert.True(t, ok)
	assert.Equal(t, "one", p.Info.Name)
}

func TestDeviceTypeMatches(t *testing.T) {
	assert.True(t, DeviceTypeAll.Matches(DeviceTypeCPU))
	assert.False(t, DeviceTypeGPU.Matches(DeviceTypeCPU))
}

func TestMemFlagsString(t *testing.T) {
	assert.Equal(t, "write-only|copy-host-ptr", DefaultInputFlags.String())
	assert.Equal(t, "none", MemFlags(0).String())
}
