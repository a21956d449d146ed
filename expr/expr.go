// Package expr resolves layer attributes that may be computed.
//
// An attribute is an expression tree whose leaves are host buffers,
// scalars or data textures and whose inner nodes are named computations.
// There are two kinds of computation:
//
//   - Texture computations run on the host side of the frame loop and
//     produce a data texture (histogram, convolution, FFT). They may read
//     axis state; the reads are tracked so the result is recomputed when
//     one of those axes changes.
//   - Shader computations are pure WGSL combinators of their arguments.
//     They only exist inside a shader and cannot produce a raw value.
//
// [Resolver.ResolveRaw] evaluates a tree into a raw value.
// [Resolver.ResolveShader] lowers it into WGSL code plus the [Effects]
// (inputs, uniforms, textures, helpers, refreshers) the code depends on.
package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/gpuplot/gpucore"
)

// Expr is an attribute expression: Buffer, Scalar, *Texture or *Call.
type Expr interface {
	exprNode()
}

// Buffer is a literal per-vertex (or per-instance) host buffer.
type Buffer []float32

// Scalar is a literal constant.
type Scalar float64

// Texture is GPU-resident numeric data with a host mirror.
//
// Elements are laid out row-major; element i lives at texel
// (i % Width, i / Width).
type Texture struct {
	ID     gpucore.TextureID
	Width  int
	Height int
	Format gpucore.TextureFormat

	// Data is the host copy, Len()*Channels() values, interleaved.
	Data []float32

	// transient textures are owned by the resolver that produced them.
	transient bool
}

// Channels returns the number of values per element.
func (t *Texture) Channels() int { return t.Format.Channels() }

// Len returns the number of elements.
func (t *Texture) Len() int { return len(t.Data) / t.Channels() }

// Call applies a registered computation.
type Call struct {
	// Name is the registered computation name.
	Name string

	// Args are the expression arguments, by parameter name.
	Args map[string]Expr

	// Options are literal string parameters (quantity kinds, modes).
	Options map[string]string
}

func (Buffer) exprNode()   {}
func (Scalar) exprNode()   {}
func (*Texture) exprNode() {}
func (*Call) exprNode()    {}

// NewCall builds a call with expression arguments.
func NewCall(name string, args map[string]Expr) *Call {
	return &Call{Name: name, Args: args}
}

// WithOption sets a literal option and returns c.
func (c *Call) WithOption(key, value string) *Call {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	return c
}

func (c *Call) argNames() []string {
	names := make([]string, 0, len(c.Args))
	for n := range c.Args {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// String renders the expression for logs and errors.
func String(e Expr) string {
	switch v := e.(type) {
	case Buffer:
		return fmt.Sprintf("buffer[%d]", len(v))
	case Scalar:
		return fmt.Sprintf("%g", float64(v))
	case *Texture:
		return fmt.Sprintf("texture[%dx%d]", v.Width, v.Height)
	case *Call:
		parts := make([]string, 0, len(v.Args)+len(v.Options))
		for _, n := range v.argNames() {
			parts = append(parts, n+"="+String(v.Args[n]))
		}
		keys := make([]string, 0, len(v.Options))
		for k := range v.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+"="+fmt.Sprintf("%q", v.Options[k]))
		}
		return v.Name + "(" + strings.Join(parts, ", ") + ")"
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", e)
	}
}

// IsComputed reports whether e is a computation rather than a literal.
func IsComputed(e Expr) bool {
	_, ok := e.(*Call)
	return ok
}

// Len returns the element count of the first buffer or texture found in e,
// searching call arguments in name order.
func Len(e Expr) (int, bool) {
	switch v := e.(type) {
	case Buffer:
		return len(v), true
	case *Texture:
		return v.Len(), true
	case *Call:
		for _, n := range v.argNames() {
			if l, ok := Len(v.Args[n]); ok {
				return l, true
			}
		}
	}
	return 0, false
}
