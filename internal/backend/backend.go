// Package backend maps user-facing backend names onto compute drivers.
package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwbudde/clvecsum/internal/compute"
	"github.com/cwbudde/clvecsum/internal/compute/host"
	"github.com/cwbudde/clvecsum/internal/compute/opencl"
)

// Backend identifies a compute driver implementation.
type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendHost   Backend = "host"
	BackendOpenCL Backend = "opencl"
)

var (
	// ErrUnknownBackend is returned when the name does not match a known backend.
	ErrUnknownBackend = errors.New("unknown compute backend")
	// ErrBackendUnavailable indicates the backend is not available in this build.
	ErrBackendUnavailable = errors.New("compute backend unavailable")
)

// Normalize maps arbitrary user input to a canonical backend identifier.
func Normalize(name string) Backend {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return BackendAuto
	case "host", "cpu", "emulated":
		return BackendHost
	case "gpu", "opencl", "cl":
		return BackendOpenCL
	default:
		return Backend(name)
	}
}

// Supported returns the backends understood by Open.
func Supported() []Backend {
	return []Backend{BackendAuto, BackendHost, BackendOpenCL}
}

// Open constructs the driver for name. The auto backend prefers OpenCL and
// falls back to the host driver when the binary was built without it.
// hostOpts configure the host driver, typically to register kernels.
func Open(name string, hostOpts ...host.Option) (compute.Driver, Backend, error) {
	b := Normalize(name)

	switch b {
	case BackendHost:
		return host.New(hostOpts...), BackendHost, nil
	case BackendOpenCL:
		drv, err := opencl.New()
		if err != nil {
			return nil, b, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return drv, BackendOpenCL, nil
	case BackendAuto:
		drv, err := opencl.New()
		if err == nil {
			return drv, BackendOpenCL, nil
		}
		slog.Warn("OpenCL backend unavailable, using host emulation", "reason", err)
		return host.New(hostOpts...), BackendHost, nil
	default:
		return nil, b, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}

// DefaultSelection is the device selection used when the configuration does
// not override it. On OpenCL it is the reference policy: the first GPU on
// the first platform that supports context sharing. The host backend only
// has a plain CPU device, so it accepts any device.
func DefaultSelection(b Backend) compute.Selection {
	if b == BackendOpenCL {
		return compute.Selection{
			Platform:   compute.FirstPlatform,
			DeviceType: compute.DeviceTypeGPU,
			Device:     compute.HasAnyExtension(compute.SharingExtensions...),
		}
	}
	return compute.Selection{
		Platform:   compute.FirstPlatform,
		DeviceType: compute.DeviceTypeAll,
		Device:     compute.AnyDevice,
	}
}
