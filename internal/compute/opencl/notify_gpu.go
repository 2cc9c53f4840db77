//go:build gpu

package opencl

/*
#include <stdint.h>
*/
import "C"

import "runtime/cgo"

//export clvecsumContextNotify
func clvecsumContextNotify(errinfo *C.char, handle C.uintptr_t) {
	dispatchNotify(cgo.Handle(handle), C.GoString(errinfo))
}

// dispatchNotify delivers asynchronous runtime diagnostics to the callback
// registered when the context was created.
func dispatchNotify(h cgo.Handle, info string) {
	if fn, ok := h.Value().(func(string)); ok && fn != nil {
		fn(info)
	}
}
