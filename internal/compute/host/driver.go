// Package host is an in-process compute backend. It enumerates configurable
// platforms and devices, performs structural checks on kernel source and
// executes kernels through Go implementations registered by entry point
// name. It is the CPU fallback of the CLI and the driver tests run against.
package host

import (
	"runtime"
	"sort"
	"sync"

	"github.com/cwbudde/clvecsum/internal/compute"
)

// Op names a driver call that can be made to fail with WithFault.
type Op string

const (
	OpPlatforms     Op = "platforms"
	OpDevices       Op = "devices"
	OpCreateContext Op = "create-context"
	OpCreateQueue   Op = "create-queue"
	OpCreateBuffer  Op = "create-buffer"
	OpCreateProgram Op = "create-program"
	OpBuild         Op = "build"
	OpCreateKernel  Op = "create-kernel"
	OpSetArg        Op = "set-arg"
	OpEnqueue       Op = "enqueue"
	OpFinish        Op = "finish"
	OpRead          Op = "read"
)

// Driver implements compute.Driver in process.
type Driver struct {
	platforms []compute.PlatformInfo
	kernels   map[string]KernelFunc
	faults    map[Op]error

	mu     sync.Mutex
	nextID int
	live   map[int]string
	stats  Stats
}

// Stats counts work the driver has executed.
type Stats struct {
	Dispatches int
	WorkItems  int
	Reads      int
}

// Option configures a Driver.
type Option func(*Driver)

// WithPlatforms replaces the default enumeration. Each platform lists its
// devices in Devices. Passing no platforms yields an empty enumeration.
func WithPlatforms(platforms ...compute.PlatformInfo) Option {
	return func(d *Driver) {
		d.platforms = platforms
	}
}

// WithKernel registers the Go implementation of an entry point.
func WithKernel(name string, fn KernelFunc) Option {
	return func(d *Driver) {
		d.kernels[name] = fn
	}
}

// WithFault makes every call of op fail with err.
func WithFault(op Op, err error) Option {
	return func(d *Driver) {
		d.faults[op] = err
	}
}

// DefaultPlatform is the enumeration used when WithPlatforms is not given:
// one platform with a single CPU device.
func DefaultPlatform() compute.PlatformInfo {
	return compute.PlatformInfo{
		Name:    "Host Emulation",
		Vendor:  "clvecsum",
		Version: "OpenCL 1.2 host",
		Devices: []compute.DeviceInfo{{
			Name:            "host-cpu",
			Vendor:          "clvecsum",
			Version:         "OpenCL 1.2 host",
			Type:            compute.DeviceTypeCPU,
			MaxComputeUnits: uint32(runtime.NumCPU()),
		}},
	}
}

// New returns a host driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		platforms: []compute.PlatformInfo{DefaultPlatform()},
		kernels:   make(map[string]KernelFunc),
		faults:    make(map[Op]error),
		live:      make(map[int]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements compute.Driver.
func (d *Driver) Name() string { return "host" }

// Live returns the number of created and not yet released objects.
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// LiveKinds returns the kinds of unreleased objects, sorted.
func (d *Driver) LiveKinds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]string, 0, len(d.live))
	for _, k := range d.live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Stats returns execution counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Driver) fault(op Op) error {
	return d.faults[op]
}

func (d *Driver) track(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.live[d.nextID] = kind
	return d.nextID
}

func (d *Driver) untrack(id int, op string, code int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[id]; !ok {
		return statusError(op, code)
	}
	delete(d.live, id)
	return nil
}

type platformRef struct {
	index int
}

type deviceRef struct {
	platform int
	index    int
}

// Platforms implements compute.Driver.
func (d *Driver) Platforms() ([]compute.Platform, error) {
	if err := d.fault(OpPlatforms); err != nil {
		return nil, err
	}
	out := make([]compute.Platform, len(d.platforms))
	for i, info := range d.platforms {
		out[i] = compute.Platform{Info: info, Ref: platformRef{index: i}}
	}
	return out, nil
}

// Devices implements compute.Driver.
func (d *Driver) Devices(p compute.Platform, t compute.DeviceType) ([]compute.Device, error) {
	if err := d.fault(OpDevices); err != nil {
		return nil, err
	}
	ref, ok := p.Ref.(platformRef)
	if !ok || ref.index < 0 || ref.index >= len(d.platforms) {
		return nil, statusError("devices", statusInvalidPlatform)
	}

	var out []compute.Device
	for i, info := range d.platforms[ref.index].Devices {
		if !t.Matches(info.Type) {
			continue
		}
		out = append(out, compute.Device{Info: info, Ref: deviceRef{platform: ref.index, index: i}})
	}
	return out, nil
}

// CreateContext implements compute.Driver.
func (d *Driver) CreateContext(p compute.Platform, dev compute.Device, onError func(string)) (compute.DriverContext, error) {
	if err := d.fault(OpCreateContext); err != nil {
		return nil, err
	}
	pref, ok := p.Ref.(platformRef)
	if !ok {
		return nil, statusError("create context", statusInvalidPlatform)
	}
	dref, ok := dev.Ref.(deviceRef)
	if !ok || dref.platform != pref.index {
		return nil, statusError("create context", statusInvalidDevice)
	}
	if onError == nil {
		onError = func(string) {}
	}
	return &hostContext{
		driver:  d,
		id:      d.track("context"),
		onError: onError,
	}, nil
}
