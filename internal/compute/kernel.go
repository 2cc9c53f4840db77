package compute

import (
	"errors"
	"fmt"
	"strings"
)

// ArgKind is the type of one kernel parameter slot.
type ArgKind int

const (
	ArgInt32 ArgKind = iota + 1
	ArgBuffer
)

func (k ArgKind) String() string {
	switch k {
	case ArgInt32:
		return "int32"
	case ArgBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("ArgKind(%d)", int(k))
	}
}

// Signature is the ordered parameter list of a kernel entry point.
type Signature []ArgKind

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Kernel owns a built program and one entry point extracted from it.
// Arguments are bound by position and checked against the signature.
type Kernel struct {
	program    DriverProgram
	raw        DriverKernel
	entryPoint string
	signature  Signature
	bound      []bool
}

// BuildKernel compiles source on the context's device and extracts
// entryPoint. When the driver reports the kernel's parameter count it must
// equal len(sig). On any failure the program and kernel are released.
func BuildKernel(c *Context, source, entryPoint string, sig Signature) (*Kernel, error) {
	if c.raw == nil {
		return nil, fmt.Errorf("build kernel: %w", ErrReleased)
	}

	program, err := c.raw.CreateProgram(source)
	if err != nil {
		return nil, &CompileError{EntryPoint: entryPoint, Err: err}
	}

	release := func(cause error) error {
		if rErr := program.Release(); rErr != nil {
			c.logger.Warn("Releasing program after failure", "entry_point", entryPoint, "err", rErr)
		}
		return cause
	}

	if err := program.Build(); err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			if ce.EntryPoint == "" {
				ce.EntryPoint = entryPoint
			}
			c.logger.Error("Kernel build log", "entry_point", entryPoint, "log", ce.Log)
			return nil, release(ce)
		}
		return nil, release(&CompileError{EntryPoint: entryPoint, Err: err})
	}

	raw, err := program.CreateKernel(entryPoint)
	if err != nil {
		return nil, release(fmt.Errorf("%w: %q: %w", ErrEntryPointNotFound, entryPoint, err))
	}

	n, err := raw.NumArgs()
	if err == nil && n >= 0 && n != len(sig) {
		err = fmt.Errorf("%w: %s declares %d parameter(s), signature %s has %d", ErrArgument, entryPoint, n, sig, len(sig))
	}
	if err != nil {
		if rErr := raw.Release(); rErr != nil {
			c.logger.Warn("Releasing kernel after failure", "entry_point", entryPoint, "err", rErr)
		}
		if !errors.Is(err, ErrArgument) {
			err = fmt.Errorf("%w: querying %s parameters: %w", ErrArgument, entryPoint, err)
		}
		return nil, release(err)
	}

	return &Kernel{
		program:    program,
		raw:        raw,
		entryPoint: entryPoint,
		signature:  append(Signature(nil), sig...),
		bound:      make([]bool, len(sig)),
	}, nil
}

// EntryPoint returns the kernel's function name.
func (k *Kernel) EntryPoint() string { return k.entryPoint }

// Signature returns the declared parameter list.
func (k *Kernel) Signature() Signature { return k.signature }

// Released reports whether Close has been called.
func (k *Kernel) Released() bool { return k.raw == nil }

func (k *Kernel) checkSlot(index int, kind ArgKind) error {
	if k.raw == nil {
		return fmt.Errorf("%s: %w", k.entryPoint, ErrReleased)
	}
	if index < 0 || index >= len(k.signature) {
		return fmt.Errorf("%w: %s has %d parameter(s), index %d out of range", ErrArgument, k.entryPoint, len(k.signature), index)
	}
	if k.signature[index] != kind {
		return fmt.Errorf("%w: %s parameter %d is %s, got %s", ErrArgument, k.entryPoint, index, k.signature[index], kind)
	}
	return nil
}

// SetInt32 binds an integer to parameter index.
func (k *Kernel) SetInt32(index int, v int32) error {
	if err := k.checkSlot(index, ArgInt32); err != nil {
		return err
	}
	if err := k.raw.SetArgInt32(index, v); err != nil {
		return fmt.Errorf("%w: %s parameter %d: %w", ErrArgument, k.entryPoint, index, err)
	}
	k.bound[index] = true
	return nil
}

// SetBuffer binds a device buffer to parameter index.
func (k *Kernel) SetBuffer(index int, b *Buffer) error {
	if err := k.checkSlot(index, ArgBuffer); err != nil {
		return err
	}
	if b == nil || b.raw == nil {
		return fmt.Errorf("%w: %s parameter %d: buffer %w", ErrArgument, k.entryPoint, index, ErrReleased)
	}
	if err := k.raw.SetArgBuffer(index, b.raw); err != nil {
		return fmt.Errorf("%w: %s parameter %d: %w", ErrArgument, k.entryPoint, index, err)
	}
	k.bound[index] = true
	return nil
}

func (k *Kernel) ready() error {
	if k.raw == nil {
		return fmt.Errorf("%s: %w", k.entryPoint, ErrReleased)
	}
	for i, ok := range k.bound {
		if !ok {
			return fmt.Errorf("%w: %s parameter %d (%s) is unbound", ErrArgument, k.entryPoint, i, k.signature[i])
		}
	}
	return nil
}

// Close releases the kernel and its program together. A second call
// returns ErrReleased.
func (k *Kernel) Close() error {
	if k.raw == nil {
		return fmt.Errorf("kernel %s: %w", k.entryPoint, ErrReleased)
	}
	raw, program := k.raw, k.program
	k.raw, k.program = nil, nil

	var firstErr error
	if err := raw.Release(); err != nil {
		firstErr = fmt.Errorf("release kernel %s: %w", k.entryPoint, err)
	}
	if err := program.Release(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("release program %s: %w", k.entryPoint, err)
	}
	return firstErr
}

// DispatchRequest describes one range dispatch: one entry of GlobalSize
// per dimension.
type DispatchRequest struct {
	GlobalSize []int
}

// Range1D returns a one-dimensional request over n work items.
func Range1D(n int) DispatchRequest {
	return DispatchRequest{GlobalSize: []int{n}}
}

// Dimensions returns the dimensionality of the request.
func (r DispatchRequest) Dimensions() int { return len(r.GlobalSize) }

// WorkItems returns the total number of work items.
func (r DispatchRequest) WorkItems() int {
	if len(r.GlobalSize) == 0 {
		return 0
	}
	total := 1
	for _, n := range r.GlobalSize {
		total *= n
	}
	return total
}

// Validate checks dimensionality (1 to 3) and sizes.
func (r DispatchRequest) Validate() error {
	if d := r.Dimensions(); d < 1 || d > 3 {
		return fmt.Errorf("%w: %d dimensions", ErrDispatch, d)
	}
	for i, n := range r.GlobalSize {
		if n < 0 {
			return fmt.Errorf("%w: negative size %d in dimension %d", ErrDispatch, n, i)
		}
	}
	return nil
}
