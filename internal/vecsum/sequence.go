package vecsum

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/clvecsum/internal/compute"
)

// Stage is a state of the dispatch sequence. Stages only move forward.
type Stage int

const (
	StageIdle Stage = iota
	StageBuffersReady
	StageKernelReady
	StageArgumentsBound
	StageSubmitted
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageBuffersReady:
		return "buffers-ready"
	case StageKernelReady:
		return "kernel-ready"
	case StageArgumentsBound:
		return "arguments-bound"
	case StageSubmitted:
		return "submitted"
	case StageCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ErrAlreadyRun is returned when Run is called on a used Sequence.
var ErrAlreadyRun = errors.New("sequence already run")

// StageError is a failure while advancing out of Stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("sum sequence failed after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Transition is reported to the observer every time the sequence advances.
type Transition struct {
	From    Stage
	To      Stage
	At      time.Time
	Elapsed time.Duration
}

// Sequence builds buffers, builds the kernel, binds arguments, submits one
// range dispatch, waits for it and reads the result back. It runs once.
type Sequence struct {
	ctx      *compute.Context
	out      io.Writer
	observer func(Transition)
	logger   *slog.Logger

	stage     Stage
	stageTime time.Time
}

// SequenceOption configures a Sequence.
type SequenceOption func(*Sequence)

// WithOutput sets where per-element diagnostics are printed. Defaults to
// io.Discard.
func WithOutput(w io.Writer) SequenceOption {
	return func(s *Sequence) {
		if w != nil {
			s.out = w
		}
	}
}

// WithObserver registers a callback for stage transitions.
func WithObserver(fn func(Transition)) SequenceOption {
	return func(s *Sequence) { s.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SequenceOption {
	return func(s *Sequence) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSequence prepares a sequence on ctx. The context stays owned by the
// caller.
func NewSequence(ctx *compute.Context, opts ...SequenceOption) *Sequence {
	s := &Sequence{
		ctx:    ctx,
		out:    io.Discard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage returns the furthest stage reached.
func (s *Sequence) Stage() Stage { return s.stage }

func (s *Sequence) advance(to Stage) {
	now := time.Now()
	t := Transition{From: s.stage, To: to, At: now, Elapsed: now.Sub(s.stageTime)}
	s.stage = to
	s.stageTime = now

	s.logger.Debug("Sum sequence advanced", "from", t.From.String(), "to", t.To.String(), "elapsed", t.Elapsed)
	if s.observer != nil {
		s.observer(t)
	}
}

func (s *Sequence) fail(err error) error {
	return &StageError{Stage: s.stage, Err: err}
}

// Run computes a + 2*b on the device. Every buffer and the kernel are
// released before Run returns, whether or not it succeeded. Empty inputs
// allocate nothing and submit no dispatch.
func (s *Sequence) Run(a, b []float32) (result []float32, err error) {
	if s.stage != StageIdle || !s.stageTime.IsZero() {
		return nil, ErrAlreadyRun
	}
	s.stageTime = time.Now()

	if len(a) != len(b) {
		return nil, s.fail(fmt.Errorf("input length mismatch: a has %d element(s), b has %d", len(a), len(b)))
	}
	n := len(a)
	if n > math.MaxInt32 {
		return nil, s.fail(fmt.Errorf("%d elements exceed the kernel's int size parameter", n))
	}

	var scope compute.Scope
	defer func() {
		if rErr := scope.Release(); rErr != nil {
			s.logger.Error("Releasing sum sequence resources", "err", rErr)
			if err == nil {
				err = fmt.Errorf("release: %w", rErr)
			}
		}
	}()

	if n == 0 {
		s.logger.Info("Empty input, nothing to dispatch")
		for st := StageBuffersReady; st <= StageCompleted; st++ {
			s.advance(st)
		}
		return []float32{}, nil
	}

	bufA, err := s.upload("a", a)
	if err != nil {
		return nil, s.fail(err)
	}
	scope.Hold(bufA)

	bufB, err := s.upload("b", b)
	if err != nil {
		return nil, s.fail(err)
	}
	scope.Hold(bufB)

	bufResult, err := s.ctx.CreateResultBuffer(n*4, 0)
	if err != nil {
		return nil, s.fail(err)
	}
	scope.Hold(bufResult)
	s.advance(StageBuffersReady)

	kernel, err := compute.BuildKernel(s.ctx, SumKernelSource, EntryPoint, SumSignature)
	if err != nil {
		return nil, s.fail(err)
	}
	scope.Hold(kernel)
	s.advance(StageKernelReady)

	if err := bindSum(kernel, bufA, bufB, bufResult, n); err != nil {
		return nil, s.fail(err)
	}
	s.advance(StageArgumentsBound)

	if err := s.ctx.Enqueue(kernel, compute.Range1D(n)); err != nil {
		return nil, s.fail(err)
	}
	s.advance(StageSubmitted)

	if err := s.ctx.Finish(); err != nil {
		return nil, s.fail(err)
	}
	s.advance(StageCompleted)

	out := make([]float32, n)
	if err := s.ctx.ReadFloat32(bufResult, out); err != nil {
		return nil, s.fail(err)
	}

	for i, v := range out {
		fmt.Fprintf(s.out, "result at %d = %v\n", i, v)
	}

	return out, nil
}

func (s *Sequence) upload(name string, data []float32) (*compute.Buffer, error) {
	for i, v := range data {
		fmt.Fprintf(s.out, "%s[%d]=%v\n", name, i, v)
	}
	buf, err := s.ctx.CreateBuffer(data, 0)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", name, err)
	}
	return buf, nil
}

func bindSum(k *compute.Kernel, a, b, result *compute.Buffer, n int) error {
	if err := k.SetBuffer(0, a); err != nil {
		return err
	}
	if err := k.SetBuffer(1, b); err != nil {
		return err
	}
	if err := k.SetBuffer(2, result); err != nil {
		return err
	}
	return k.SetInt32(3, int32(n))
}
