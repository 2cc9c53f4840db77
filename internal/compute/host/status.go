package host

import "github.com/cwbudde/clvecsum/internal/compute"

// Status codes follow the OpenCL numbering so logs read the same on both
// backends.
const (
	statusDeviceNotFound           = -1
	statusOutOfResources           = -5
	statusBuildProgramFailure      = -11
	statusInvalidValue             = -30
	statusInvalidPlatform          = -32
	statusInvalidDevice            = -33
	statusInvalidContext           = -34
	statusInvalidCommandQueue      = -36
	statusInvalidHostPtr           = -37
	statusInvalidMemObject         = -38
	statusInvalidProgram           = -44
	statusInvalidProgramExecutable = -45
	statusInvalidKernelName        = -46
	statusInvalidKernel            = -48
	statusInvalidArgIndex          = -49
	statusInvalidArgValue          = -50
	statusInvalidKernelArgs        = -52
	statusInvalidBufferSize        = -61
)

var statusNames = map[int]string{
	statusDeviceNotFound:           "CL_DEVICE_NOT_FOUND",
	statusOutOfResources:           "CL_OUT_OF_RESOURCES",
	statusBuildProgramFailure:      "CL_BUILD_PROGRAM_FAILURE",
	statusInvalidValue:             "CL_INVALID_VALUE",
	statusInvalidPlatform:          "CL_INVALID_PLATFORM",
	statusInvalidDevice:            "CL_INVALID_DEVICE",
	statusInvalidContext:           "CL_INVALID_CONTEXT",
	statusInvalidCommandQueue:      "CL_INVALID_COMMAND_QUEUE",
	statusInvalidHostPtr:           "CL_INVALID_HOST_PTR",
	statusInvalidMemObject:         "CL_INVALID_MEM_OBJECT",
	statusInvalidProgram:           "CL_INVALID_PROGRAM",
	statusInvalidProgramExecutable: "CL_INVALID_PROGRAM_EXECUTABLE",
	statusInvalidKernelName:        "CL_INVALID_KERNEL_NAME",
	statusInvalidKernel:            "CL_INVALID_KERNEL",
	statusInvalidArgIndex:          "CL_INVALID_ARG_INDEX",
	statusInvalidArgValue:          "CL_INVALID_ARG_VALUE",
	statusInvalidKernelArgs:        "CL_INVALID_KERNEL_ARGS",
	statusInvalidBufferSize:        "CL_INVALID_BUFFER_SIZE",
}

func statusError(op string, code int) error {
	name, ok := statusNames[code]
	if !ok {
		name = "CL_UNKNOWN_ERROR"
	}
	return &compute.StatusError{Op: op, Code: code, Name: name}
}
