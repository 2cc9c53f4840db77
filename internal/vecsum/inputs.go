package vecsum

import "fmt"

// DefaultElements is the element count of the reference run.
const DefaultElements = 1024

// Inputs returns the reference inputs: a counts up from 0 and b counts down
// to 0, so every result element is 2*(n-1) - i.
func Inputs(n int) (a, b []float32) {
	a = make([]float32, n)
	b = make([]float32, n)
	for i := 0; i < n; i++ {
		a[i] = float32(i)
		b[i] = float32(n - 1 - i)
	}
	return a, b
}

// Expected computes a + 2*b on the host.
func Expected(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]*2
	}
	return out
}

// MismatchError reports result elements that differ from the host
// computation.
type MismatchError struct {
	Count int
	First int
	Got   float32
	Want  float32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%d result element(s) differ, first at %d: got %v, want %v", e.Count, e.First, e.Got, e.Want)
}

// Verify compares result against Expected(a, b). Values are small integers,
// so the comparison is exact.
func Verify(result, a, b []float32) error {
	want := Expected(a, b)
	if len(result) != len(want) {
		return fmt.Errorf("result has %d element(s), want %d", len(result), len(want))
	}

	var mismatch *MismatchError
	for i := range want {
		if result[i] == want[i] {
			continue
		}
		if mismatch == nil {
			mismatch = &MismatchError{First: i, Got: result[i], Want: want[i]}
		}
		mismatch.Count++
	}
	if mismatch != nil {
		return mismatch
	}
	return nil
}
