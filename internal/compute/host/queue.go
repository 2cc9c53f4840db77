package host

import (
	"fmt"

	"github.com/cwbudde/clvecsum/internal/compute"
)

// KernelFunc executes one work item. gid is the linear global id.
type KernelFunc func(gid int, args Args) error

type arg struct {
	set bool
	i32 int32
	buf *hostBuffer
}

// Args are the arguments bound at enqueue time.
type Args struct {
	entryPoint string
	values     []arg
}

// Len returns the number of parameters.
func (a Args) Len() int { return len(a.values) }

// Int32 returns parameter i as an integer.
func (a Args) Int32(i int) (int32, error) {
	if i < 0 || i >= len(a.values) || a.values[i].buf != nil {
		return 0, fmt.Errorf("%s: parameter %d is not an integer", a.entryPoint, i)
	}
	return a.values[i].i32, nil
}

// Floats returns the backing storage of buffer parameter i.
func (a Args) Floats(i int) ([]float32, error) {
	if i < 0 || i >= len(a.values) || a.values[i].buf == nil {
		return nil, fmt.Errorf("%s: parameter %d is not a buffer", a.entryPoint, i)
	}
	return a.values[i].buf.data, nil
}

type command struct {
	kernel *hostKernel
	args   Args
	items  int
}

// hostQueue is in-order: enqueued ranges run when the queue is drained by
// Finish or by a blocking read.
type hostQueue struct {
	ctx     *hostContext
	id      int
	pending []command
}

func (q *hostQueue) EnqueueRange(k compute.DriverKernel, globalSize []int) error {
	if err := q.ctx.driver.fault(OpEnqueue); err != nil {
		return err
	}
	hk, ok := k.(*hostKernel)
	if !ok || hk.ctx != q.ctx {
		return statusError("enqueue range", statusInvalidKernel)
	}

	items := 1
	for _, n := range globalSize {
		if n <= 0 {
			return statusError("enqueue range", statusInvalidValue)
		}
		items *= n
	}

	values := make([]arg, len(hk.args))
	for i, a := range hk.args {
		if !a.set {
			return statusError("enqueue range", statusInvalidKernelArgs)
		}
		values[i] = a
	}

	q.pending = append(q.pending, command{
		kernel: hk,
		args:   Args{entryPoint: hk.decl.name, values: values},
		items:  items,
	})
	return nil
}

func (q *hostQueue) Finish() error {
	if err := q.ctx.driver.fault(OpFinish); err != nil {
		return err
	}
	return q.drain()
}

func (q *hostQueue) drain() error {
	pending := q.pending
	q.pending = nil
	for _, cmd := range pending {
		if err := q.run(cmd); err != nil {
			q.ctx.onError(err.Error())
			return statusError("finish", statusOutOfResources)
		}
	}
	return nil
}

func (q *hostQueue) run(cmd command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: work item fault: %v", cmd.args.entryPoint, r)
		}
	}()

	for gid := 0; gid < cmd.items; gid++ {
		if err := cmd.kernel.fn(gid, cmd.args); err != nil {
			return fmt.Errorf("%s: work item %d: %w", cmd.args.entryPoint, gid, err)
		}
	}

	d := q.ctx.driver
	d.mu.Lock()
	d.stats.Dispatches++
	d.stats.WorkItems += cmd.items
	d.mu.Unlock()
	return nil
}

func (q *hostQueue) ReadFloat32(b compute.DriverBuffer, dst []float32) error {
	if err := q.ctx.driver.fault(OpRead); err != nil {
		return err
	}
	hb, ok := b.(*hostBuffer)
	if !ok || hb.ctx != q.ctx {
		return statusError("read buffer", statusInvalidMemObject)
	}
	if len(dst) > len(hb.data) {
		return statusError("read buffer", statusInvalidValue)
	}
	if err := q.drain(); err != nil {
		return err
	}
	copy(dst, hb.data)

	d := q.ctx.driver
	d.mu.Lock()
	d.stats.Reads++
	d.mu.Unlock()
	return nil
}

func (q *hostQueue) Release() error {
	return q.ctx.driver.untrack(q.id, "release queue", statusInvalidCommandQueue)
}
