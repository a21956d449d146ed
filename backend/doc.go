// Package backend selects the device a plot renders with.
//
// Devices implement [gpucore.Device]. Backend packages register a factory
// from their init() functions:
//
//	import (
//		_ "github.com/gogpu/gpuplot/backend/software"
//		_ "github.com/gogpu/gpuplot/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to open the best available device, or Get() to request
// a specific backend by name:
//
//	// Open the default (best available) device
//	dev, err := backend.Default()
//
//	// Or request a specific backend
//	dev, err := backend.Get("software")
//
// # Available Backends
//
//   - "wgpu": GPU rendering through gogpu/wgpu hal (Vulkan, Metal, DX12, GL)
//   - "software": CPU reference rasterizer, always available
package backend
