// Package pick implements object picking through encoded output colors.
//
// During a pick pass every layer is re-drawn with a picking flag set. The
// shared apply-color function, emitted into every layer shader by the
// active [Strategy], replaces the layer's color with an encoding of
// (layer index, primitive index); the plot reads back the single pixel
// under the cursor and decodes it.
package pick

import (
	"fmt"

	"github.com/gogpu/gpuplot/shader"
)

// Uniform names read by the apply-color function.
const (
	PickingUniform    = "picking"
	LayerIndexUniform = "layer_index"
)

// IDVarying is the flat per-primitive identifier passed to the fragment stage.
const IDVarying = "pick_id"

// ApplyColorFunc is the WGSL function every layer fragment shader calls
// on its final color: apply_color(color, pick_id).
const ApplyColorFunc = "apply_color"

// MaxDataIndex is the largest primitive index that fits the 24-bit encoding.
const MaxDataIndex = 1<<24 - 1

// MaxLayers is the largest number of layers the 8-bit layer channel can address.
const MaxLayers = 255

// Result identifies a picked primitive.
type Result struct {
	LayerIndex int
	DataIndex  int
}

// String returns a human-readable form of the result.
func (r Result) String() string {
	return fmt.Sprintf("layer %d, index %d", r.LayerIndex, r.DataIndex)
}

// Strategy is the seam between layer shaders and the picking protocol.
// Layer shaders only ever call apply_color; the strategy decides what it
// emits and how a read-back pixel is decoded.
type Strategy interface {
	// Declare adds the apply_color helper and the uniforms it reads.
	Declare(b *shader.Builder)

	// Encode returns the pick-pass color for a primitive, matching what
	// the emitted apply_color writes.
	Encode(layerIndex, dataIndex int) [4]uint8

	// Decode maps a read-back pixel to a result; ok is false on background.
	Decode(px [4]uint8) (r Result, ok bool)
}

// ColorChannels encodes layerIndex+1 in the red channel and the
// primitive index as a 24-bit big-endian value in green, blue and alpha.
// A red channel of 0 is reserved for "no layer".
type ColorChannels struct{}

var _ Strategy = ColorChannels{}

const applyColorSource = `fn apply_color(color: vec4<f32>, id: u32) -> vec4<f32> {
    if (u.picking == 0) {
        return color;
    }
    let layer = f32(u.layer_index + 1);
    return vec4<f32>(
        layer / 255.0,
        f32((id >> 16u) & 255u) / 255.0,
        f32((id >> 8u) & 255u) / 255.0,
        f32(id & 255u) / 255.0
    );
}`

// Declare implements Strategy.
func (ColorChannels) Declare(b *shader.Builder) {
	b.Uniform(PickingUniform, shader.I32)
	b.Uniform(LayerIndexUniform, shader.I32)
	b.Helper(ApplyColorFunc, applyColorSource)
}

// Encode implements Strategy.
func (ColorChannels) Encode(layerIndex, dataIndex int) [4]uint8 {
	return [4]uint8{
		uint8(layerIndex + 1),
		uint8(dataIndex >> 16),
		uint8(dataIndex >> 8),
		uint8(dataIndex),
	}
}

// Decode implements Strategy.
func (ColorChannels) Decode(px [4]uint8) (Result, bool) {
	if px[0] == 0 {
		return Result{}, false
	}
	return Result{
		LayerIndex: int(px[0]) - 1,
		DataIndex:  int(px[1])<<16 | int(px[2])<<8 | int(px[3]),
	}, true
}
