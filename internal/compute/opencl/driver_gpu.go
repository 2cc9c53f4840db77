//go:build gpu

package opencl

/*
#cgo LDFLAGS: -lOpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#include <CL/cl.h>
#include <stdint.h>
#include <stdlib.h>

static const char* clvecsum_error_string(cl_int status) {
	switch (status) {
	case CL_SUCCESS: return "CL_SUCCESS";
	case CL_DEVICE_NOT_FOUND: return "CL_DEVICE_NOT_FOUND";
	case CL_DEVICE_NOT_AVAILABLE: return "CL_DEVICE_NOT_AVAILABLE";
	case CL_COMPILER_NOT_AVAILABLE: return "CL_COMPILER_NOT_AVAILABLE";
	case CL_MEM_OBJECT_ALLOCATION_FAILURE: return "CL_MEM_OBJECT_ALLOCATION_FAILURE";
	case CL_OUT_OF_RESOURCES: return "CL_OUT_OF_RESOURCES";
	case CL_OUT_OF_HOST_MEMORY: return "CL_OUT_OF_HOST_MEMORY";
	case CL_BUILD_PROGRAM_FAILURE: return "CL_BUILD_PROGRAM_FAILURE";
	case CL_MAP_FAILURE: return "CL_MAP_FAILURE";
	case CL_INVALID_VALUE: return "CL_INVALID_VALUE";
	case CL_INVALID_DEVICE_TYPE: return "CL_INVALID_DEVICE_TYPE";
	case CL_INVALID_PLATFORM: return "CL_INVALID_PLATFORM";
	case CL_INVALID_DEVICE: return "CL_INVALID_DEVICE";
	case CL_INVALID_CONTEXT: return "CL_INVALID_CONTEXT";
	case CL_INVALID_QUEUE_PROPERTIES: return "CL_INVALID_QUEUE_PROPERTIES";
	case CL_INVALID_COMMAND_QUEUE: return "CL_INVALID_COMMAND_QUEUE";
	case CL_INVALID_HOST_PTR: return "CL_INVALID_HOST_PTR";
	case CL_INVALID_MEM_OBJECT: return "CL_INVALID_MEM_OBJECT";
	case CL_INVALID_BINARY: return "CL_INVALID_BINARY";
	case CL_INVALID_BUILD_OPTIONS: return "CL_INVALID_BUILD_OPTIONS";
	case CL_INVALID_PROGRAM: return "CL_INVALID_PROGRAM";
	case CL_INVALID_PROGRAM_EXECUTABLE: return "CL_INVALID_PROGRAM_EXECUTABLE";
	case CL_INVALID_KERNEL_NAME: return "CL_INVALID_KERNEL_NAME";
	case CL_INVALID_KERNEL_DEFINITION: return "CL_INVALID_KERNEL_DEFINITION";
	case CL_INVALID_KERNEL: return "CL_INVALID_KERNEL";
	case CL_INVALID_ARG_INDEX: return "CL_INVALID_ARG_INDEX";
	case CL_INVALID_ARG_VALUE: return "CL_INVALID_ARG_VALUE";
	case CL_INVALID_ARG_SIZE: return "CL_INVALID_ARG_SIZE";
	case CL_INVALID_KERNEL_ARGS: return "CL_INVALID_KERNEL_ARGS";
	case CL_INVALID_WORK_DIMENSION: return "CL_INVALID_WORK_DIMENSION";
	case CL_INVALID_WORK_GROUP_SIZE: return "CL_INVALID_WORK_GROUP_SIZE";
	case CL_INVALID_WORK_ITEM_SIZE: return "CL_INVALID_WORK_ITEM_SIZE";
	case CL_INVALID_GLOBAL_OFFSET: return "CL_INVALID_GLOBAL_OFFSET";
	case CL_INVALID_EVENT_WAIT_LIST: return "CL_INVALID_EVENT_WAIT_LIST";
	case CL_INVALID_EVENT: return "CL_INVALID_EVENT";
	case CL_INVALID_OPERATION: return "CL_INVALID_OPERATION";
	case CL_INVALID_BUFFER_SIZE: return "CL_INVALID_BUFFER_SIZE";
	case CL_INVALID_GLOBAL_WORK_SIZE: return "CL_INVALID_GLOBAL_WORK_SIZE";
	case -1001: return "CL_PLATFORM_NOT_FOUND_KHR";
	default: return "CL_UNKNOWN_ERROR";
	}
}

extern void clvecsumContextNotify(char* errinfo, uintptr_t handle);

static void CL_CALLBACK clvecsum_notify(const char *errinfo, const void *private_info, size_t cb, void *user_data) {
	clvecsumContextNotify((char*)errinfo, (uintptr_t)user_data);
}

static cl_context clvecsum_create_context(cl_device_id device, uintptr_t handle, cl_int *status) {
	return clCreateContext(NULL, 1, &device, clvecsum_notify, (void*)handle, status);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"

	"github.com/cwbudde/clvecsum/internal/compute"
)

// The ICD loader reports an empty platform list with this status.
const statusPlatformNotFoundKHR = -1001

// Driver talks to the system OpenCL ICD loader.
type Driver struct{}

// New returns the OpenCL driver.
func New() (*Driver, error) {
	return &Driver{}, nil
}

// Available reports whether this binary was built with OpenCL support.
func Available() bool { return true }

// Name implements compute.Driver.
func (d *Driver) Name() string { return "opencl" }

func statusError(op string, status C.cl_int) error {
	return &compute.StatusError{
		Op:   op,
		Code: int(status),
		Name: C.GoString(C.clvecsum_error_string(status)),
	}
}

// Platforms implements compute.Driver.
func (d *Driver) Platforms() ([]compute.Platform, error) {
	var count C.cl_uint
	status := C.clGetPlatformIDs(0, nil, &count)
	if status == statusPlatformNotFoundKHR {
		return nil, nil
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(count)", status)
	}
	if count == 0 {
		return nil, nil
	}

	ids := make([]C.cl_platform_id, int(count))
	status = C.clGetPlatformIDs(count, &ids[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(list)", status)
	}

	out := make([]compute.Platform, 0, len(ids))
	for _, pid := range ids {
		info, err := platformInfo(pid)
		if err != nil {
			return nil, err
		}
		devices, err := deviceIDs(pid, C.CL_DEVICE_TYPE_ALL)
		if err != nil {
			return nil, err
		}
		for _, id := range devices {
			dev, err := deviceInfo(id)
			if err != nil {
				return nil, err
			}
			info.Devices = append(info.Devices, dev)
		}
		out = append(out, compute.Platform{Info: info, Ref: pid})
	}
	return out, nil
}

// Devices implements compute.Driver.
func (d *Driver) Devices(p compute.Platform, t compute.DeviceType) ([]compute.Device, error) {
	pid, ok := p.Ref.(C.cl_platform_id)
	if !ok {
		return nil, statusError("clGetDeviceIDs", C.CL_INVALID_PLATFORM)
	}

	ids, err := deviceIDs(pid, deviceTypeFilter(t))
	if err != nil {
		return nil, err
	}

	out := make([]compute.Device, 0, len(ids))
	for _, id := range ids {
		info, err := deviceInfo(id)
		if err != nil {
			return nil, err
		}
		out = append(out, compute.Device{Info: info, Ref: id})
	}
	return out, nil
}

// CreateContext implements compute.Driver. onError receives the text the
// runtime passes to the context notification callback.
func (d *Driver) CreateContext(p compute.Platform, dev compute.Device, onError func(string)) (compute.DriverContext, error) {
	id, ok := dev.Ref.(C.cl_device_id)
	if !ok {
		return nil, statusError("clCreateContext", C.CL_INVALID_DEVICE)
	}
	if onError == nil {
		onError = func(string) {}
	}

	notify := cgo.NewHandle(onError)
	var status C.cl_int
	ctx := C.clvecsum_create_context(id, C.uintptr_t(notify), &status)
	if status != C.CL_SUCCESS {
		notify.Delete()
		return nil, statusError("clCreateContext", status)
	}
	return &clContext{ctx: ctx, device: id, notify: notify}, nil
}

// deviceIDs lists the devices of type dt. CL_DEVICE_NOT_FOUND is an empty
// enumeration, not a failure.
func deviceIDs(pid C.cl_platform_id, dt C.cl_device_type) ([]C.cl_device_id, error) {
	var count C.cl_uint
	status := C.clGetDeviceIDs(pid, dt, 0, nil, &count)
	if status == C.CL_DEVICE_NOT_FOUND {
		return nil, nil
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(count)", status)
	}
	if count == 0 {
		return nil, nil
	}

	ids := make([]C.cl_device_id, int(count))
	status = C.clGetDeviceIDs(pid, dt, count, &ids[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(list)", status)
	}
	return ids, nil
}

func platformInfo(pid C.cl_platform_id) (compute.PlatformInfo, error) {
	var info compute.PlatformInfo
	var exts string
	for _, field := range []struct {
		param C.cl_platform_info
		dst   *string
	}{
		{C.CL_PLATFORM_NAME, &info.Name},
		{C.CL_PLATFORM_VENDOR, &info.Vendor},
		{C.CL_PLATFORM_VERSION, &info.Version},
		{C.CL_PLATFORM_EXTENSIONS, &exts},
	} {
		v, err := getPlatformString(pid, field.param)
		if err != nil {
			return compute.PlatformInfo{}, err
		}
		*field.dst = v
	}
	info.Extensions = compute.SplitExtensions(exts)
	return info, nil
}

func deviceInfo(id C.cl_device_id) (compute.DeviceInfo, error) {
	var info compute.DeviceInfo
	var exts string
	for _, field := range []struct {
		param C.cl_device_info
		dst   *string
	}{
		{C.CL_DEVICE_NAME, &info.Name},
		{C.CL_DEVICE_VENDOR, &info.Vendor},
		{C.CL_DEVICE_VERSION, &info.Version},
		{C.CL_DEVICE_EXTENSIONS, &exts},
	} {
		v, err := getDeviceString(id, field.param)
		if err != nil {
			return compute.DeviceInfo{}, err
		}
		*field.dst = v
	}
	info.Extensions = compute.SplitExtensions(exts)

	var rawType C.cl_device_type
	status := C.clGetDeviceInfo(id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(rawType)), unsafe.Pointer(&rawType), nil)
	if status != C.CL_SUCCESS {
		return compute.DeviceInfo{}, statusError("clGetDeviceInfo(type)", status)
	}
	info.Type = mapDeviceType(rawType)

	var computeUnits C.cl_uint
	status = C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(computeUnits)), unsafe.Pointer(&computeUnits), nil)
	if status != C.CL_SUCCESS {
		return compute.DeviceInfo{}, statusError("clGetDeviceInfo(computeUnits)", status)
	}
	info.MaxComputeUnits = uint32(computeUnits)

	var globalMem C.cl_ulong
	status = C.clGetDeviceInfo(id, C.CL_DEVICE_GLOBAL_MEM_SIZE, C.size_t(unsafe.Sizeof(globalMem)), unsafe.Pointer(&globalMem), nil)
	if status != C.CL_SUCCESS {
		return compute.DeviceInfo{}, statusError("clGetDeviceInfo(globalMem)", status)
	}
	info.GlobalMemBytes = uint64(globalMem)

	return info, nil
}

func getPlatformString(id C.cl_platform_id, param C.cl_platform_info) (string, error) {
	var size C.size_t
	status := C.clGetPlatformInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(value)", status)
	}
	return trimNull(buf), nil
}

func getDeviceString(id C.cl_device_id, param C.cl_device_info) (string, error) {
	var size C.size_t
	status := C.clGetDeviceInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(value)", status)
	}
	return trimNull(buf), nil
}

func trimNull(buf []byte) string {
	if len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

func mapDeviceType(dt C.cl_device_type) compute.DeviceType {
	switch {
	case dt&C.CL_DEVICE_TYPE_GPU != 0:
		return compute.DeviceTypeGPU
	case dt&C.CL_DEVICE_TYPE_CPU != 0:
		return compute.DeviceTypeCPU
	case dt&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		return compute.DeviceTypeAccelerator
	case dt&C.CL_DEVICE_TYPE_DEFAULT != 0:
		return compute.DeviceTypeDefault
	default:
		return compute.DeviceTypeUnknown
	}
}

func deviceTypeFilter(t compute.DeviceType) C.cl_device_type {
	switch t {
	case compute.DeviceTypeGPU:
		return C.CL_DEVICE_TYPE_GPU
	case compute.DeviceTypeCPU:
		return C.CL_DEVICE_TYPE_CPU
	case compute.DeviceTypeAccelerator:
		return C.CL_DEVICE_TYPE_ACCELERATOR
	case compute.DeviceTypeDefault:
		return C.CL_DEVICE_TYPE_DEFAULT
	default:
		return C.CL_DEVICE_TYPE_ALL
	}
}

func memFlags(f compute.MemFlags) C.cl_mem_flags {
	var out C.cl_mem_flags
	if f&compute.MemReadWrite != 0 {
		out |= C.CL_MEM_READ_WRITE
	}
	if f&compute.MemWriteOnly != 0 {
		out |= C.CL_MEM_WRITE_ONLY
	}
	if f&compute.MemReadOnly != 0 {
		out |= C.CL_MEM_READ_ONLY
	}
	if f&compute.MemCopyHostPtr != 0 {
		out |= C.CL_MEM_COPY_HOST_PTR
	}
	return out
}

type clContext struct {
	ctx    C.cl_context
	device C.cl_device_id
	notify cgo.Handle
}

func (c *clContext) CreateQueue() (compute.DriverQueue, error) {
	var status C.cl_int
	queue := C.clCreateCommandQueue(c.ctx, c.device, 0, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateCommandQueue", status)
	}
	return &clQueue{queue: queue}, nil
}

func (c *clContext) CreateBuffer(flags compute.MemFlags, size int, host []float32) (compute.DriverBuffer, error) {
	var hostPtr unsafe.Pointer
	if flags&compute.MemCopyHostPtr != 0 {
		if len(host) == 0 {
			return nil, statusError("clCreateBuffer", C.CL_INVALID_HOST_PTR)
		}
		hostPtr = unsafe.Pointer(&host[0])
	}

	var status C.cl_int
	mem := C.clCreateBuffer(c.ctx, memFlags(flags), C.size_t(size), hostPtr, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateBuffer", status)
	}
	return &clBuffer{mem: mem, size: size}, nil
}

func (c *clContext) CreateProgram(source string) (compute.DriverProgram, error) {
	src := C.CString(source)
	defer C.free(unsafe.Pointer(src))

	var status C.cl_int
	program := C.clCreateProgramWithSource(c.ctx, 1, &src, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateProgramWithSource", status)
	}
	return &clProgram{program: program, device: c.device}, nil
}

// Release releases the context. The notification handle is dropped only
// once the runtime has accepted the release.
func (c *clContext) Release() error {
	if status := C.clReleaseContext(c.ctx); status != C.CL_SUCCESS {
		return statusError("clReleaseContext", status)
	}
	c.notify.Delete()
	return nil
}

type clQueue struct {
	queue C.cl_command_queue
}

func (q *clQueue) EnqueueRange(k compute.DriverKernel, globalSize []int) error {
	kernel, ok := k.(*clKernel)
	if !ok {
		return statusError("clEnqueueNDRangeKernel", C.CL_INVALID_KERNEL)
	}
	if len(globalSize) == 0 {
		return statusError("clEnqueueNDRangeKernel", C.CL_INVALID_WORK_DIMENSION)
	}

	global := make([]C.size_t, len(globalSize))
	for i, n := range globalSize {
		global[i] = C.size_t(n)
	}
	status := C.clEnqueueNDRangeKernel(q.queue, kernel.kernel, C.cl_uint(len(global)), nil, &global[0], nil, 0, nil, nil)
	if status != C.CL_SUCCESS {
		return statusError("clEnqueueNDRangeKernel", status)
	}
	return nil
}

func (q *clQueue) Finish() error {
	if status := C.clFinish(q.queue); status != C.CL_SUCCESS {
		return statusError("clFinish", status)
	}
	return nil
}

func (q *clQueue) ReadFloat32(b compute.DriverBuffer, dst []float32) error {
	buf, ok := b.(*clBuffer)
	if !ok {
		return statusError("clEnqueueReadBuffer", C.CL_INVALID_MEM_OBJECT)
	}
	if len(dst) == 0 {
		return nil
	}

	bytes := C.size_t(len(dst) * int(unsafe.Sizeof(float32(0))))
	status := C.clEnqueueReadBuffer(q.queue, buf.mem, C.CL_TRUE, 0, bytes, unsafe.Pointer(&dst[0]), 0, nil, nil)
	if status != C.CL_SUCCESS {
		return statusError("clEnqueueReadBuffer", status)
	}
	return nil
}

func (q *clQueue) Release() error {
	if status := C.clReleaseCommandQueue(q.queue); status != C.CL_SUCCESS {
		return statusError("clReleaseCommandQueue", status)
	}
	return nil
}

type clProgram struct {
	program C.cl_program
	device  C.cl_device_id
}

func (p *clProgram) Build() error {
	status := C.clBuildProgram(p.program, 1, &p.device, nil, nil, nil)
	if status == C.CL_SUCCESS {
		return nil
	}
	err := statusError("clBuildProgram", status)
	if status != C.CL_BUILD_PROGRAM_FAILURE {
		return err
	}
	return &compute.CompileError{Log: p.buildLog(), Err: err}
}

func (p *clProgram) buildLog() string {
	var size C.size_t
	if status := C.clGetProgramBuildInfo(p.program, p.device, C.CL_PROGRAM_BUILD_LOG, 0, nil, &size); status != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, int(size))
	if status := C.clGetProgramBuildInfo(p.program, p.device, C.CL_PROGRAM_BUILD_LOG, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return ""
	}
	return trimNull(buf)
}

func (p *clProgram) CreateKernel(entryPoint string) (compute.DriverKernel, error) {
	name := C.CString(entryPoint)
	defer C.free(unsafe.Pointer(name))

	var status C.cl_int
	kernel := C.clCreateKernel(p.program, name, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError(fmt.Sprintf("clCreateKernel(%s)", entryPoint), status)
	}
	return &clKernel{kernel: kernel}, nil
}

func (p *clProgram) Release() error {
	if status := C.clReleaseProgram(p.program); status != C.CL_SUCCESS {
		return statusError("clReleaseProgram", status)
	}
	return nil
}

type clKernel struct {
	kernel C.cl_kernel
}

func (k *clKernel) NumArgs() (int, error) {
	var n C.cl_uint
	status := C.clGetKernelInfo(k.kernel, C.CL_KERNEL_NUM_ARGS, C.size_t(unsafe.Sizeof(n)), unsafe.Pointer(&n), nil)
	if status != C.CL_SUCCESS {
		return -1, statusError("clGetKernelInfo(numArgs)", status)
	}
	return int(n), nil
}

func (k *clKernel) SetArgInt32(index int, v int32) error {
	value := C.cl_int(v)
	status := C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(value)), unsafe.Pointer(&value))
	if status != C.CL_SUCCESS {
		return statusError(fmt.Sprintf("clSetKernelArg(%d)", index), status)
	}
	return nil
}

func (k *clKernel) SetArgBuffer(index int, b compute.DriverBuffer) error {
	buf, ok := b.(*clBuffer)
	if !ok {
		return statusError(fmt.Sprintf("clSetKernelArg(%d)", index), C.CL_INVALID_MEM_OBJECT)
	}
	mem := buf.mem
	status := C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(mem)), unsafe.Pointer(&mem))
	if status != C.CL_SUCCESS {
		return statusError(fmt.Sprintf("clSetKernelArg(%d)", index), status)
	}
	return nil
}

func (k *clKernel) Release() error {
	if status := C.clReleaseKernel(k.kernel); status != C.CL_SUCCESS {
		return statusError("clReleaseKernel", status)
	}
	return nil
}

type clBuffer struct {
	mem  C.cl_mem
	size int
}

func (b *clBuffer) Size() int { return b.size }

func (b *clBuffer) Release() error {
	if status := C.clReleaseMemObject(b.mem); status != C.CL_SUCCESS {
		return statusError("clReleaseMemObject", status)
	}
	return nil
}
