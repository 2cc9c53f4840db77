package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSourceCollectsKernels(t *testing.T) {
	src := `
/* two kernels; the comment (has brackets} that must be ignored */
kernel void sum(global const float* a, global const float* b, global float* result, int const size) {
  if (get_global_id(0) < size) { result[0] = a[0] + b[0]; }
}
__kernel void noop(void) {}
// kernel void commented(int x) {
`
	decls, log := compileSource(src)
	require.Empty(t, log)
	require.Len(t, decls, 2)

	assert.Equal(t, "sum", decls[0].name)
	require.Len(t, decls[0].params, 4)
	assert.Equal(t, "int const size", decls[0].params[3])
	assert.Equal(t, "noop", decls[1].name)
	assert.Empty(t, decls[1].params)
}

func TestCompileSourceReportsBracketErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unclosed", "kernel void k(int a) {\n  a = 1;\n", "<source>:1:22: error: expected matching bracket for '{'"},
		{"stray", "kernel void k(int a) { }\n}", "<source>:2:1: error: unexpected '}'"},
		{"mismatched", "kernel void k(int a] { }", "unexpected ']'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, log := compileSource(tt.src)
			assert.Contains(t, log, tt.want)
		})
	}
}
