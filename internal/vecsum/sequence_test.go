package vecsum

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/clvecsum/internal/compute"
	"github.com/cwbudde/clvecsum/internal/compute/host"
)

func newHostContext(t *testing.T, opts ...host.Option) (*compute.Context, *host.Driver) {
	t.Helper()
	drv := host.New(append([]host.Option{host.WithKernel(EntryPoint, HostSum)}, opts...)...)
	ctx, err := compute.Initialize(drv, compute.Selection{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ctx.Close())
		assert.Zero(t, drv.Live(), "leaked: %v", drv.LiveKinds())
	})
	return ctx, drv
}

func TestReferenceRun(t *testing.T) {
	ctx, drv := newHostContext(t)
	a, b := Inputs(DefaultElements)

	var transitions []Transition
	seq := NewSequence(ctx, WithObserver(func(tr Transition) { transitions = append(transitions, tr) }))

	result, err := seq.Run(a, b)
	require.NoError(t, err)
	require.Len(t, result, DefaultElements)
	for i, v := range result {
		if want := float32(2046 - i); v != want {
			t.Fatalf("result[%d] = %v, want %v", i, v, want)
		}
	}
	require.NoError(t, Verify(result, a, b))

	assert.Equal(t, StageCompleted, seq.Stage())
	stages := make([]Stage, len(transitions))
	for i, tr := range transitions {
		stages[i] = tr.To
	}
	assert.Equal(t, []Stage{StageBuffersReady, StageKernelReady, StageArgumentsBound, StageSubmitted, StageCompleted}, stages)
	assert.Equal(t, StageIdle, transitions[0].From)

	assert.Equal(t, host.Stats{Dispatches: 1, WorkItems: DefaultElements, Reads: 1}, drv.Stats())
	assert.Equal(t, 2, drv.Live(), "only context and queue remain after Run")
}

func TestRunPrintsDiagnostics(t *testing.T) {
	ctx, _ := newHostContext(t)
	a, b := Inputs(3)

	var out bytes.Buffer
	_, err := NewSequence(ctx, WithOutput(&out)).Run(a, b)
	require.NoError(t, err)

	want := strings.Join([]string{
		"a[0]=0", "a[1]=1", "a[2]=2",
		"b[0]=2", "b[1]=1", "b[2]=0",
		"result at 0 = 4", "result at 1 = 5", "result at 2 = 6",
	}, "\n") + "\n"
	assert.Equal(t, want, out.String())
}

func TestRunIsSingleShot(t *testing.T) {
	ctx, _ := newHostContext(t)
	a, b := Inputs(4)
	seq := NewSequence(ctx)

	_, err := seq.Run(a, b)
	require.NoError(t, err)
	_, err = seq.Run(a, b)
	require.ErrorIs(t, err, ErrAlreadyRun)
}

func TestEmptyInputSubmitsNothing(t *testing.T) {
	ctx, drv := newHostContext(t)

	result, err := NewSequence(ctx).Run(nil, nil)

	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Zero(t, drv.Stats().Dispatches)
}

func TestLengthMismatch(t *testing.T) {
	ctx, _ := newHostContext(t)

	_, err := NewSequence(ctx).Run([]float32{1, 2}, []float32{1})

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageIdle, se.Stage)
}

func TestFailuresReleaseEverything(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		op    host.Op
		want  error
		stage Stage
	}{
		{"buffer", host.OpCreateBuffer, compute.ErrBufferAllocation, StageIdle},
		{"build", host.OpBuild, compute.ErrCompilation, StageBuffersReady},
		{"entry point", host.OpCreateKernel, compute.ErrEntryPointNotFound, StageBuffersReady},
		{"bind", host.OpSetArg, compute.ErrArgument, StageKernelReady},
		{"enqueue", host.OpEnqueue, compute.ErrDispatch, StageArgumentsBound},
		{"finish", host.OpFinish, compute.ErrDispatch, StageSubmitted},
		{"read", host.OpRead, compute.ErrReadback, StageCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The cleanup registered by newHostContext asserts nothing is live.
			ctx, _ := newHostContext(t, host.WithFault(tt.op, boom))
			a, b := Inputs(16)

			_, err := NewSequence(ctx).Run(a, b)

			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, boom)
			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
		})
	}
}

func TestCompileErrorSurfacesBuildLog(t *testing.T) {
	ctx, drv := newHostContext(t)
	before := drv.Live()

	_, err := compute.BuildKernel(ctx, strings.TrimSuffix(strings.TrimSpace(SumKernelSource), "}"), EntryPoint, SumSignature)

	var ce *compute.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Log, "expected matching bracket")
	assert.Equal(t, before, drv.Live())
}

func TestSignatureMatchesSource(t *testing.T) {
	ctx, _ := newHostContext(t)

	k, err := compute.BuildKernel(ctx, SumKernelSource, EntryPoint, SumSignature)
	require.NoError(t, err)
	assert.Equal(t, "(buffer, buffer, buffer, int32)", k.Signature().String())
	require.NoError(t, k.Close())
}

func TestVerify(t *testing.T) {
	a, b := Inputs(4)
	good := Expected(a, b)
	assert.Equal(t, []float32{6, 5, 4, 3}, good)
	require.NoError(t, Verify(good, a, b))

	bad := append([]float32(nil), good...)
	bad[1], bad[3] = 0, 0
	var me *MismatchError
	require.ErrorAs(t, Verify(bad, a, b), &me)
	assert.Equal(t, 2, me.Count)
	assert.Equal(t, 1, me.First)

	assert.Error(t, Verify(good[:2], a, b))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "arguments-bound", StageArgumentsBound.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
