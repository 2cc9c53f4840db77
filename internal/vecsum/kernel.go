// Package vecsum runs the elementwise a + 2*b demo kernel through a compute
// context as a single linear dispatch sequence.
package vecsum

import (
	"github.com/cwbudde/clvecsum/internal/compute"
	"github.com/cwbudde/clvecsum/internal/compute/host"
)

// EntryPoint is the kernel function name in SumKernelSource.
const EntryPoint = "sum"

// SumKernelSource computes result[i] = a[i] + 2*b[i] for i below size.
const SumKernelSource = `kernel void sum(global const float* a, global const float* b, global float* result, int const size) {
  const int itemId = get_global_id(0);
  if (itemId < size) {
    result[itemId] = a[itemId] + b[itemId] * 2;
  }
}
`

// SumSignature is the parameter list of the sum kernel.
var SumSignature = compute.Signature{
	compute.ArgBuffer, // a
	compute.ArgBuffer, // b
	compute.ArgBuffer, // result
	compute.ArgInt32,  // size
}

// HostSum is the host backend implementation of the sum kernel.
func HostSum(gid int, args host.Args) error {
	a, err := args.Floats(0)
	if err != nil {
		return err
	}
	b, err := args.Floats(1)
	if err != nil {
		return err
	}
	result, err := args.Floats(2)
	if err != nil {
		return err
	}
	size, err := args.Int32(3)
	if err != nil {
		return err
	}
	if gid < int(size) {
		result[gid] = a[gid] + b[gid]*2
	}
	return nil
}
