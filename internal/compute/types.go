package compute

import (
	"fmt"
	"strings"
)

// DeviceType describes the class of a compute device.
type DeviceType string

const (
	DeviceTypeGPU         DeviceType = "GPU"
	DeviceTypeCPU         DeviceType = "CPU"
	DeviceTypeAccelerator DeviceType = "Accelerator"
	DeviceTypeDefault     DeviceType = "Default"
	DeviceTypeUnknown     DeviceType = "Unknown"

	// DeviceTypeAll is only meaningful as an enumeration filter.
	DeviceTypeAll DeviceType = "All"
)

// ParseDeviceType maps user input to a DeviceType filter.
func ParseDeviceType(name string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gpu":
		return DeviceTypeGPU, nil
	case "cpu":
		return DeviceTypeCPU, nil
	case "accelerator", "acc":
		return DeviceTypeAccelerator, nil
	case "default":
		return DeviceTypeDefault, nil
	case "all", "any":
		return DeviceTypeAll, nil
	default:
		return "", fmt.Errorf("unknown device type %q", name)
	}
}

// Matches reports whether a device of type t passes the filter.
func (filter DeviceType) Matches(t DeviceType) bool {
	return filter == DeviceTypeAll || filter == t
}

// DeviceInfo captures metadata about a compute device.
type DeviceInfo struct {
	Name            string
	Vendor          string
	Version         string
	Type            DeviceType
	MaxComputeUnits uint32
	GlobalMemBytes  uint64
	Extensions      []string
}

// HasExtension reports whether the device advertises ext.
func (d DeviceInfo) HasExtension(ext string) bool {
	for _, e := range d.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// PlatformInfo captures metadata about a compute platform and its devices.
type PlatformInfo struct {
	Name       string
	Vendor     string
	Version    string
	Extensions []string
	Devices    []DeviceInfo
}

// Platform is a discovered runtime instance. Ref is the driver's own handle
// and must only be interpreted by the driver that produced it.
type Platform struct {
	Info PlatformInfo
	Ref  any
}

// Device is a compute unit belonging to a Platform.
type Device struct {
	Info DeviceInfo
	Ref  any
}

// SplitExtensions parses the space separated extension string OpenCL
// reports for platforms and devices.
func SplitExtensions(s string) []string {
	return strings.Fields(s)
}
