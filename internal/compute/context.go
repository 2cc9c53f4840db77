package compute

import (
	"fmt"
	"log/slog"
)

// Context owns a runtime context bound to one device together with its
// command queue. It is not safe for concurrent use.
type Context struct {
	driver   Driver
	platform Platform
	device   Device
	raw      DriverContext
	queue    DriverQueue
	logger   *slog.Logger
}

// Option configures Initialize.
type Option func(*Context)

// WithLogger sets the logger used for runtime diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// Initialize discovers a platform, selects a device, creates a context on it
// and a command queue. On failure nothing created along the way stays alive.
func Initialize(drv Driver, sel Selection, opts ...Option) (*Context, error) {
	c := &Context{
		driver: drv,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	platform, err := DiscoverPlatform(drv, sel.Platform)
	if err != nil {
		return nil, err
	}

	device, err := SelectDevice(drv, platform, sel.DeviceType, sel.Device)
	if err != nil {
		return nil, err
	}

	raw, err := drv.CreateContext(platform, device, c.onRuntimeError)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextCreation, err)
	}

	queue, err := raw.CreateQueue()
	if err != nil {
		if rErr := raw.Release(); rErr != nil {
			c.logger.Warn("Releasing context after queue failure", "err", rErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrContextCreation, err)
	}

	c.platform = platform
	c.device = device
	c.raw = raw
	c.queue = queue

	c.logger.Info("Compute context initialised",
		"backend", drv.Name(),
		"platform", platform.Info.Name,
		"device", device.Info.Name,
		"vendor", device.Info.Vendor,
		"compute_units", device.Info.MaxComputeUnits,
	)

	return c, nil
}

func (c *Context) onRuntimeError(info string) {
	c.logger.Error("Compute runtime reported an error", "backend", c.driver.Name(), "info", info)
}

// Platform returns the platform the context is bound to.
func (c *Context) Platform() Platform { return c.platform }

// Device returns the device the context is bound to.
func (c *Context) Device() Device { return c.device }

// Driver returns the backend driver.
func (c *Context) Driver() Driver { return c.driver }

// Released reports whether Close has been called.
func (c *Context) Released() bool { return c.raw == nil }

// CreateBuffer allocates a device buffer populated from host. Zero flags
// mean DefaultInputFlags.
func (c *Context) CreateBuffer(host []float32, flags MemFlags) (*Buffer, error) {
	if c.raw == nil {
		return nil, fmt.Errorf("create buffer: %w", ErrReleased)
	}
	if flags == 0 {
		flags = DefaultInputFlags
	}
	size := len(host) * 4
	raw, err := c.raw.CreateBuffer(flags|MemCopyHostPtr, size, host)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes (%s): %w", ErrBufferAllocation, size, flags, err)
	}
	return &Buffer{raw: raw, flags: flags | MemCopyHostPtr, size: size}, nil
}

// CreateResultBuffer allocates an uninitialised device buffer of byteSize
// bytes. Zero flags mean DefaultResultFlags.
func (c *Context) CreateResultBuffer(byteSize int, flags MemFlags) (*Buffer, error) {
	if c.raw == nil {
		return nil, fmt.Errorf("create result buffer: %w", ErrReleased)
	}
	if byteSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrBufferAllocation, byteSize)
	}
	if flags == 0 {
		flags = DefaultResultFlags
	}
	flags &^= MemCopyHostPtr
	raw, err := c.raw.CreateBuffer(flags, byteSize, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes (%s): %w", ErrBufferAllocation, byteSize, flags, err)
	}
	return &Buffer{raw: raw, flags: flags, size: byteSize}, nil
}

// Enqueue submits one range dispatch of k. A request with zero work items
// submits nothing.
func (c *Context) Enqueue(k *Kernel, req DispatchRequest) error {
	if c.raw == nil {
		return fmt.Errorf("enqueue: %w", ErrReleased)
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if err := k.ready(); err != nil {
		return err
	}
	if req.WorkItems() == 0 {
		c.logger.Debug("Skipping empty dispatch", "kernel", k.EntryPoint())
		return nil
	}
	if err := c.queue.EnqueueRange(k.raw, req.GlobalSize); err != nil {
		return fmt.Errorf("%w: %s over %v: %w", ErrDispatch, k.EntryPoint(), req.GlobalSize, err)
	}
	return nil
}

// Finish blocks until every submitted command has completed.
func (c *Context) Finish() error {
	if c.raw == nil {
		return fmt.Errorf("finish: %w", ErrReleased)
	}
	if err := c.queue.Finish(); err != nil {
		return fmt.Errorf("%w: finish: %w", ErrDispatch, err)
	}
	return nil
}

// ReadFloat32 blocks until len(dst) floats have been copied from b.
func (c *Context) ReadFloat32(b *Buffer, dst []float32) error {
	if c.raw == nil {
		return fmt.Errorf("read: %w", ErrReleased)
	}
	if b.raw == nil {
		return fmt.Errorf("%w: %w", ErrReadback, ErrReleased)
	}
	if len(dst) == 0 {
		return nil
	}
	if len(dst)*4 > b.size {
		return fmt.Errorf("%w: %d floats requested from %d byte buffer", ErrReadback, len(dst), b.size)
	}
	if err := c.queue.ReadFloat32(b.raw, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrReadback, err)
	}
	return nil
}

// Close releases the queue and the runtime context. A second call returns
// ErrReleased without touching the runtime.
func (c *Context) Close() error {
	if c.raw == nil {
		return fmt.Errorf("context: %w", ErrReleased)
	}
	queue, raw := c.queue, c.raw
	c.queue, c.raw = nil, nil

	var firstErr error
	if err := queue.Release(); err != nil {
		firstErr = fmt.Errorf("release queue: %w", err)
	}
	if err := raw.Release(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("release context: %w", err)
	}
	return firstErr
}
