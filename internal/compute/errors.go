package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPlatform is returned when the runtime reports zero platforms.
	ErrNoPlatform = errors.New("no compute platform found")
	// ErrNoDevice is returned when no device on the platform passes the selection.
	ErrNoDevice = errors.New("no qualifying compute device")
	// ErrContextCreation wraps failures creating the context or its queue.
	ErrContextCreation = errors.New("compute context creation failed")
	// ErrBufferAllocation wraps failures allocating device memory.
	ErrBufferAllocation = errors.New("buffer allocation failed")
	// ErrCompilation wraps program build failures. See CompileError.
	ErrCompilation = errors.New("kernel compilation failed")
	// ErrEntryPointNotFound is returned when the program has no kernel of the requested name.
	ErrEntryPointNotFound = errors.New("kernel entry point not found")
	// ErrArgument is returned when a kernel argument does not match the declared signature.
	ErrArgument = errors.New("kernel argument mismatch")
	// ErrDispatch wraps failures submitting or draining a range dispatch.
	ErrDispatch = errors.New("kernel dispatch failed")
	// ErrReadback wraps failures reading a buffer back to the host.
	ErrReadback = errors.New("buffer readback failed")
	// ErrReleased is returned when a handle is used or released after Close.
	ErrReleased = errors.New("handle already released")
)

// StatusError is a failed runtime call. Code is the runtime status code and
// Name its symbolic form (e.g. CL_INVALID_KERNEL_NAME).
type StatusError struct {
	Op   string
	Code int
	Name string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Name, e.Code)
}

// CompileError carries the compiler diagnostic of a failed program build.
type CompileError struct {
	EntryPoint string
	Log        string
	Err        error
}

func (e *CompileError) Error() string {
	msg := "kernel compilation failed"
	if e.EntryPoint != "" {
		msg += " (" + e.EntryPoint + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Log != "" {
		msg += "\n" + e.Log
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

func (e *CompileError) Is(target error) bool {
	return target == ErrCompilation
}
