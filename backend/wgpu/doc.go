// Package wgpu implements gpucore.Device on top of the gogpu/wgpu HAL.
//
// Every program is one WGSL module with a vertex and a fragment entry
// point, a single bind group (uniform block at binding 0, unfilterable
// float data textures after it) and one vertex buffer per attribute.
// Render targets are RGBA8Unorm textures. Render encodes one render pass
// and submits it; no pixels leave the GPU. ReadPixels copies only the
// requested rectangle into a staging buffer and maps it.
//
// The package registers itself as the "wgpu" backend:
//
//	import _ "github.com/gogpu/gpuplot/backend/wgpu"
//
// A device can also be built from an existing HAL device, for example one
// owned by a gogpu application:
//
//	dev, err := wgpu.NewFromProvider(provider)
package wgpu
