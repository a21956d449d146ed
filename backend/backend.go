package backend

import (
	"errors"

	"github.com/gogpu/gpuplot/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendWGPU is the name of the GPU backend built on gogpu/wgpu hal.
	BackendWGPU = "wgpu"
	// BackendSoftware is the name of the CPU reference backend.
	BackendSoftware = "software"
)

// Factory opens a device. Factories of GPU backends fail when no adapter
// can be opened.
type Factory func() (gpucore.Device, error)
