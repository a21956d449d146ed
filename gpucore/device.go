package gpucore

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnknownResource is returned when an ID does not name a live resource.
var ErrUnknownResource = errors.New("gpucore: unknown resource id")

// Device abstracts over the GPU backends that can execute plot draws.
//
// Resources are addressed by opaque IDs. Every Create method has a
// matching Destroy method; destroying an unknown ID is a no-op.
// All methods are called from the plot's frame loop and are synchronous.
type Device interface {
	// Name returns the backend identifier (e.g. "wgpu", "software").
	Name() string

	// CreateBuffer uploads vertex data and returns its handle.
	CreateBuffer(label string, data []byte) (BufferID, error)

	// DestroyBuffer releases a vertex buffer.
	DestroyBuffer(id BufferID)

	// CreateTexture creates a data texture initialized with data.
	// data holds Width*Height*Format.Channels() little-endian float32 values.
	CreateTexture(desc *TextureDesc, data []byte) (TextureID, error)

	// DestroyTexture releases a data texture.
	DestroyTexture(id TextureID)

	// CreateProgram compiles a render program.
	CreateProgram(desc *ProgramDesc) (ProgramID, error)

	// DestroyProgram releases a render program.
	DestroyProgram(id ProgramID)

	// CreateTarget creates an RGBA8 off-screen render target.
	CreateTarget(width, height int) (TargetID, error)

	// DestroyTarget releases a render target.
	DestroyTarget(id TargetID)

	// Render clears target to clear (straight RGBA in [0,1]) and executes
	// calls in order inside a single render pass.
	Render(target TargetID, clear [4]float64, calls []DrawCall) error

	// ReadPixels reads back a w*h rectangle of RGBA8 pixels whose top-left
	// corner is (x, y). The result is tightly packed, 4*w bytes per row.
	ReadPixels(target TargetID, x, y, w, h int) ([]byte, error)

	// Destroy releases every resource owned by the device.
	Destroy()
}

// Float32Bytes encodes values as little-endian float32, the layout of
// vertex buffers and data textures.
func Float32Bytes(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}
