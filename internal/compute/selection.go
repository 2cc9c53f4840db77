package compute

import (
	"fmt"
	"strings"
)

// PlatformPolicy picks one platform out of the enumerated candidates.
type PlatformPolicy func([]Platform) (Platform, bool)

// DevicePredicate decides whether a device qualifies.
type DevicePredicate func(DeviceInfo) bool

// SharingExtensions are the context sharing extensions the reference demo
// requires on its device.
var SharingExtensions = []string{"cl_khr_gl_sharing", "cl_APPLE_gl_sharing"}

// Selection describes which platform and device Initialize binds to.
// Zero values mean: first platform, any device type, any device.
type Selection struct {
	Platform   PlatformPolicy
	DeviceType DeviceType
	Device     DevicePredicate
}

// FirstPlatform selects the first enumerated platform.
func FirstPlatform(platforms []Platform) (Platform, bool) {
	if len(platforms) == 0 {
		return Platform{}, false
	}
	return platforms[0], true
}

// PlatformNamed selects the first platform whose name contains substr,
// case-insensitively.
func PlatformNamed(substr string) PlatformPolicy {
	needle := strings.ToLower(substr)
	return func(platforms []Platform) (Platform, bool) {
		for _, p := range platforms {
			if strings.Contains(strings.ToLower(p.Info.Name), needle) {
				return p, true
			}
		}
		return Platform{}, false
	}
}

// AnyDevice accepts every device.
func AnyDevice(DeviceInfo) bool { return true }

// HasAnyExtension accepts devices advertising at least one of exts.
// With no extensions it accepts every device.
func HasAnyExtension(exts ...string) DevicePredicate {
	if len(exts) == 0 {
		return AnyDevice
	}
	return func(d DeviceInfo) bool {
		for _, ext := range exts {
			if d.HasExtension(ext) {
				return true
			}
		}
		return false
	}
}

// DiscoverPlatform enumerates platforms and applies policy (FirstPlatform
// when nil).
func DiscoverPlatform(drv Driver, policy PlatformPolicy) (Platform, error) {
	platforms, err := drv.Platforms()
	if err != nil {
		return Platform{}, fmt.Errorf("%w: %w", ErrNoPlatform, err)
	}
	if len(platforms) == 0 {
		return Platform{}, ErrNoPlatform
	}
	if policy == nil {
		policy = FirstPlatform
	}
	p, ok := policy(platforms)
	if !ok {
		return Platform{}, fmt.Errorf("%w: %d platform(s) enumerated, none accepted by policy", ErrNoPlatform, len(platforms))
	}
	return p, nil
}

// SelectDevice returns the first device of type t on the platform that
// satisfies pred (AnyDevice when nil). Finding none is an error.
func SelectDevice(drv Driver, p Platform, t DeviceType, pred DevicePredicate) (Device, error) {
	if t == "" {
		t = DeviceTypeAll
	}
	if pred == nil {
		pred = AnyDevice
	}

	devices, err := drv.Devices(p, t)
	if err != nil {
		return Device{}, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}

	for _, d := range devices {
		if !t.Matches(d.Info.Type) {
			continue
		}
		if !pred(d.Info) {
			continue
		}
		return d, nil
	}

	return Device{}, fmt.Errorf("%w: platform %q has %d %s device(s), none qualify", ErrNoDevice, p.Info.Name, len(devices), t)
}
