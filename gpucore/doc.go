// Package gpucore provides the GPU abstraction the plot engine draws through.
//
// The [Device] interface hides the backend (gogpu/wgpu hal, or the CPU
// reference rasterizer) behind opaque resource IDs:
//
//	               +-----------------+
//	               |     gpuplot     |
//	               | (Plot, layers)  |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               | gpucore.Device  |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  backend/wgpu   |          |backend/software |
//	|  (hal.Device)   |          | (CPU raster)    |
//	+-----------------+          +-----------------+
//
// # Resource Management
//
// Vertex buffers, data textures, programs and render targets are created
// and destroyed through the device. Programs are usually obtained through
// a [ProgramCache], which deduplicates identical shaders across
// configuration updates and destroys programs on eviction.
//
// # Host Views
//
// A [DrawCall] may carry a [HostView]: the same draw expressed as
// projected, shaded primitives. Devices that cannot run WGSL use it to
// produce equivalent output (including picking colors).
package gpucore
