package compute

// Driver is the boundary to a compute runtime. Every call is fallible and
// reports failure through its returned error; no status is kept between
// calls.
type Driver interface {
	// Name identifies the backend in logs.
	Name() string
	// Platforms enumerates the available platforms. An empty result is not an error.
	Platforms() ([]Platform, error)
	// Devices enumerates the devices of the given type on a platform.
	Devices(p Platform, t DeviceType) ([]Device, error)
	// CreateContext binds a device. onError receives diagnostic text the
	// runtime reports asynchronously; drivers without such reporting never call it.
	CreateContext(p Platform, d Device, onError func(info string)) (DriverContext, error)
}

// DriverContext is a runtime context bound to one device.
type DriverContext interface {
	CreateQueue() (DriverQueue, error)
	// CreateBuffer allocates size bytes. When host is non-nil and flags
	// include MemCopyHostPtr the buffer is populated from it.
	CreateBuffer(flags MemFlags, size int, host []float32) (DriverBuffer, error)
	CreateProgram(source string) (DriverProgram, error)
	Release() error
}

// DriverQueue is an ordered submission channel.
type DriverQueue interface {
	EnqueueRange(k DriverKernel, globalSize []int) error
	Finish() error
	// ReadFloat32 is a blocking read of len(dst) floats from the start of b.
	ReadFloat32(b DriverBuffer, dst []float32) error
	Release() error
}

// DriverProgram is a program created from source.
type DriverProgram interface {
	// Build compiles the program. A build failure with compiler output is
	// reported as *CompileError.
	Build() error
	CreateKernel(entryPoint string) (DriverKernel, error)
	Release() error
}

// DriverKernel is an entry point extracted from a built program.
type DriverKernel interface {
	// NumArgs reports the declared parameter count, or -1 when unknown.
	NumArgs() (int, error)
	SetArgInt32(index int, v int32) error
	SetArgBuffer(index int, b DriverBuffer) error
	Release() error
}

// DriverBuffer is a device memory allocation.
type DriverBuffer interface {
	Size() int
	Release() error
}
