//go:build !gpu

package opencl

import (
	"fmt"

	"github.com/cwbudde/clvecsum/internal/compute"
)

// Driver is a placeholder when OpenCL support is not compiled.
type Driver struct{}

// ErrNotBuilt indicates the binary was built without OpenCL support.
var ErrNotBuilt = fmt.Errorf("opencl support requires building with '-tags gpu'")

// New returns an error when OpenCL support is not compiled in.
func New() (*Driver, error) {
	return nil, ErrNotBuilt
}

// Available reports whether this binary was built with OpenCL support.
func Available() bool { return false }

// Name implements compute.Driver.
func (d *Driver) Name() string { return "opencl" }

// Platforms returns ErrNotBuilt.
func (d *Driver) Platforms() ([]compute.Platform, error) {
	return nil, ErrNotBuilt
}

// Devices returns ErrNotBuilt.
func (d *Driver) Devices(compute.Platform, compute.DeviceType) ([]compute.Device, error) {
	return nil, ErrNotBuilt
}

// CreateContext returns ErrNotBuilt.
func (d *Driver) CreateContext(compute.Platform, compute.Device, func(string)) (compute.DriverContext, error) {
	return nil, ErrNotBuilt
}
