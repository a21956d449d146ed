package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.

// BufferID is an opaque handle to a vertex buffer.
type BufferID uint64

// TextureID is an opaque handle to a data texture.
type TextureID uint64

// ProgramID is an opaque handle to a compiled render program
// (shader module, bind group layout and render pipeline).
type ProgramID uint64

// TargetID is an opaque handle to an off-screen RGBA8 render target.
type TargetID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// TextureFormat specifies the format of data texture texels.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatR32Float holds one float32 per texel.
	TextureFormatR32Float TextureFormat = iota + 1

	// TextureFormatRG32Float holds two float32 per texel (complex data).
	TextureFormatRG32Float
)

// Channels returns the number of float32 components per texel.
func (f TextureFormat) Channels() int {
	if f == TextureFormatRG32Float {
		return 2
	}
	return 1
}

// VertexFormat is the format of a single vertex attribute.
type VertexFormat uint32

// Vertex formats.
const (
	VertexFormatFloat32 VertexFormat = iota + 1
	VertexFormatFloat32x2
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() uint64 {
	if f == VertexFormatFloat32x2 {
		return 8
	}
	return 4
}

// StepMode selects whether a vertex buffer advances per vertex or per instance.
type StepMode uint32

// Step modes.
const (
	StepVertex StepMode = iota
	StepInstance
)

// Topology is the primitive topology of a program.
type Topology uint32

// Primitive topologies.
const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyLineStrip
	TopologyPointList
)

// String returns the topology name used in configuration and logs.
func (t Topology) String() string {
	switch t {
	case TopologyTriangleList:
		return "triangle-list"
	case TopologyTriangleStrip:
		return "triangle-strip"
	case TopologyLineList:
		return "line-list"
	case TopologyLineStrip:
		return "line-strip"
	case TopologyPointList:
		return "point-list"
	default:
		return "unknown"
	}
}

// TextureDesc describes a data texture.
type TextureDesc struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the texture dimensions in texels.
	Width, Height int

	// Format is the texel format.
	Format TextureFormat
}

// VertexAttribute describes one attribute inside a vertex buffer.
type VertexAttribute struct {
	// Location is the shader @location index.
	Location uint32

	// Format is the attribute format.
	Format VertexFormat

	// Offset is the byte offset inside one buffer element.
	Offset uint64
}

// VertexBufferLayout describes how a vertex buffer is read.
type VertexBufferLayout struct {
	// Stride is the byte distance between consecutive elements.
	Stride uint64

	// StepMode selects per-vertex or per-instance stepping.
	StepMode StepMode

	// Attributes lists the attributes read from this buffer.
	Attributes []VertexAttribute
}

// ProgramDesc describes a render program.
//
// Bind group 0 holds the uniform buffer at binding 0 followed by
// TextureCount data textures at bindings 1..TextureCount.
type ProgramDesc struct {
	// Label is an optional debug label.
	Label string

	// Source is the complete WGSL module.
	Source string

	// VertexEntry and FragmentEntry name the entry points in Source.
	VertexEntry   string
	FragmentEntry string

	// Buffers lists the vertex buffer layouts, one per slot.
	Buffers []VertexBufferLayout

	// UniformSize is the byte size of the uniform block.
	UniformSize uint64

	// TextureCount is the number of data textures the program samples.
	TextureCount int

	// Topology is the primitive topology.
	Topology Topology

	// Blend enables straight-alpha source-over blending.
	Blend bool
}

// VertexBinding binds a buffer to a vertex slot for one draw.
type VertexBinding struct {
	Slot   uint32
	Buffer BufferID
}

// DrawCall is one draw submitted inside a render pass.
type DrawCall struct {
	// Program is the compiled program to draw with.
	Program ProgramID

	// Vertex lists the vertex buffer bindings.
	Vertex []VertexBinding

	// Uniforms is the packed uniform block.
	Uniforms []byte

	// Textures lists the bound data textures in binding order.
	Textures []TextureID

	// VertexCount and InstanceCount are the draw counts.
	VertexCount   uint32
	InstanceCount uint32

	// Host is a host-side view of the draw used by devices that cannot
	// execute WGSL. GPU devices ignore it.
	Host *HostView
}

// HostView describes a draw in terms a CPU rasterizer can execute:
// one axis-aligned square per primitive.
type HostView struct {
	// Count is the number of primitives.
	Count int

	// Project returns the pixel-space center of primitive i.
	// ok is false when the primitive has no valid position.
	Project func(i int) (x, y float64, ok bool)

	// Shade returns the RGBA8 output color of primitive i.
	// ok is false when the primitive is filtered out.
	Shade func(i int) (rgba [4]uint8, ok bool)

	// HalfSize is the half extent of the square in pixels.
	HalfSize float64
}
