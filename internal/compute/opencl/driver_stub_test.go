//go:build !gpu

package opencl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/clvecsum/internal/compute"
)

func TestStubReportsNotBuilt(t *testing.T) {
	assert.False(t, Available(), "Available() should be false without the gpu tag")

	drv, err := New()
	require.ErrorIs(t, err, ErrNotBuilt)
	assert.Nil(t, drv)

	var stub Driver
	_, err = compute.Initialize(&stub, compute.Selection{})
	assert.ErrorIs(t, err, compute.ErrNoPlatform)
	assert.ErrorIs(t, err, ErrNotBuilt)
}
