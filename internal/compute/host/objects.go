package host

import (
	"fmt"

	"github.com/cwbudde/clvecsum/internal/compute"
)

type hostContext struct {
	driver  *Driver
	id      int
	onError func(string)
}

func (c *hostContext) CreateQueue() (compute.DriverQueue, error) {
	if err := c.driver.fault(OpCreateQueue); err != nil {
		return nil, err
	}
	return &hostQueue{ctx: c, id: c.driver.track("queue")}, nil
}

func (c *hostContext) CreateBuffer(flags compute.MemFlags, size int, host []float32) (compute.DriverBuffer, error) {
	if err := c.driver.fault(OpCreateBuffer); err != nil {
		return nil, err
	}
	if size <= 0 || size%4 != 0 {
		return nil, statusError("create buffer", statusInvalidBufferSize)
	}
	if flags&compute.MemCopyHostPtr != 0 && host == nil {
		return nil, statusError("create buffer", statusInvalidHostPtr)
	}

	data := make([]float32, size/4)
	if flags&compute.MemCopyHostPtr != 0 {
		copy(data, host)
	}
	return &hostBuffer{ctx: c, id: c.driver.track("buffer"), data: data}, nil
}

func (c *hostContext) CreateProgram(source string) (compute.DriverProgram, error) {
	if err := c.driver.fault(OpCreateProgram); err != nil {
		return nil, err
	}
	if source == "" {
		return nil, statusError("create program", statusInvalidValue)
	}
	return &hostProgram{ctx: c, id: c.driver.track("program"), source: source}, nil
}

func (c *hostContext) Release() error {
	return c.driver.untrack(c.id, "release context", statusInvalidContext)
}

type hostBuffer struct {
	ctx  *hostContext
	id   int
	data []float32
}

func (b *hostBuffer) Size() int { return len(b.data) * 4 }

func (b *hostBuffer) Release() error {
	return b.ctx.driver.untrack(b.id, "release buffer", statusInvalidMemObject)
}

type hostProgram struct {
	ctx    *hostContext
	id     int
	source string
	built  bool
	decls  map[string]kernelDecl
}

func (p *hostProgram) Build() error {
	if err := p.ctx.driver.fault(OpBuild); err != nil {
		return err
	}
	decls, log := compileSource(p.source)
	if log != "" {
		return &compute.CompileError{Log: log, Err: statusError("build program", statusBuildProgramFailure)}
	}
	p.decls = make(map[string]kernelDecl, len(decls))
	for _, decl := range decls {
		p.decls[decl.name] = decl
	}
	p.built = true
	return nil
}

func (p *hostProgram) CreateKernel(entryPoint string) (compute.DriverKernel, error) {
	if err := p.ctx.driver.fault(OpCreateKernel); err != nil {
		return nil, err
	}
	if !p.built {
		return nil, statusError("create kernel", statusInvalidProgramExecutable)
	}
	decl, ok := p.decls[entryPoint]
	if !ok {
		return nil, statusError("create kernel", statusInvalidKernelName)
	}
	fn, ok := p.ctx.driver.kernels[entryPoint]
	if !ok {
		return nil, fmt.Errorf("no host implementation registered for %q: %w", entryPoint, statusError("create kernel", statusInvalidKernelName))
	}
	return &hostKernel{
		ctx:  p.ctx,
		id:   p.ctx.driver.track("kernel"),
		decl: decl,
		fn:   fn,
		args: make([]arg, len(decl.params)),
	}, nil
}

func (p *hostProgram) Release() error {
	return p.ctx.driver.untrack(p.id, "release program", statusInvalidProgram)
}

type hostKernel struct {
	ctx  *hostContext
	id   int
	decl kernelDecl
	fn   KernelFunc
	args []arg
}

func (k *hostKernel) NumArgs() (int, error) {
	return len(k.decl.params), nil
}

func (k *hostKernel) SetArgInt32(index int, v int32) error {
	if err := k.ctx.driver.fault(OpSetArg); err != nil {
		return err
	}
	if index < 0 || index >= len(k.args) {
		return statusError("set kernel arg", statusInvalidArgIndex)
	}
	k.args[index] = arg{set: true, i32: v}
	return nil
}

func (k *hostKernel) SetArgBuffer(index int, b compute.DriverBuffer) error {
	if err := k.ctx.driver.fault(OpSetArg); err != nil {
		return err
	}
	if index < 0 || index >= len(k.args) {
		return statusError("set kernel arg", statusInvalidArgIndex)
	}
	hb, ok := b.(*hostBuffer)
	if !ok || hb.ctx != k.ctx {
		return statusError("set kernel arg", statusInvalidMemObject)
	}
	k.args[index] = arg{set: true, buf: hb}
	return nil
}

func (k *hostKernel) Release() error {
	return k.ctx.driver.untrack(k.id, "release kernel", statusInvalidKernel)
}
