package expr

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/shader"
)

// Errors reported by registration and resolution.
var (
	ErrUnknownComputation   = errors.New("expr: unknown computation")
	ErrShaderInRawPosition  = errors.New("expr: shader computation where a raw value is required")
	ErrDuplicateComputation = errors.New("expr: computation already registered")
)

// Signature lists the parameters a computation accepts. Args are
// expressions; Options are literal strings. Required lists the args and
// options that must be present.
type Signature struct {
	Args     []string
	Options  []string
	Required []string
}

func (s Signature) has(list []string, name string) bool {
	for _, x := range list {
		if x == name {
			return true
		}
	}
	return false
}

// IsOption reports whether name is a literal option of the signature.
func (s Signature) IsOption(name string) bool { return s.has(s.Options, name) }

func (s Signature) check(c *Call) error {
	for name := range c.Args {
		if !s.has(s.Args, name) {
			return fmt.Errorf("expr: %s: unknown argument %q", c.Name, name)
		}
	}
	for name := range c.Options {
		if !s.has(s.Options, name) {
			return fmt.Errorf("expr: %s: unknown option %q", c.Name, name)
		}
	}
	for _, name := range s.Required {
		_, a := c.Args[name]
		_, o := c.Options[name]
		if !a && !o {
			return fmt.Errorf("expr: %s: missing %q", c.Name, name)
		}
	}
	return nil
}

// TextureComputation produces a data texture from raw arguments.
// Axis state must be read through axes so the read is tracked.
type TextureComputation interface {
	Signature() Signature
	Compute(ctx *Context, args Args, options map[string]string, axes axis.Reader) (*Texture, error)
}

// Operand is a resolved shader argument.
type Operand struct {
	Code string
	Type shader.Type
}

// ShaderComputation combines resolved shader arguments into WGSL code.
type ShaderComputation interface {
	Signature() Signature
	Shader(args map[string]Operand, options map[string]string) (Operand, error)
}

// Registry holds the computations known to a plot session.
type Registry struct {
	textures map[string]TextureComputation
	shaders  map[string]ShaderComputation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		textures: make(map[string]TextureComputation),
		shaders:  make(map[string]ShaderComputation),
	}
}

func (r *Registry) taken(name string) bool {
	_, t := r.textures[name]
	_, s := r.shaders[name]
	return t || s
}

// RegisterTexture adds a texture computation.
func (r *Registry) RegisterTexture(name string, c TextureComputation) error {
	if r.taken(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateComputation, name)
	}
	r.textures[name] = c
	return nil
}

// RegisterShader adds a shader computation.
func (r *Registry) RegisterShader(name string, c ShaderComputation) error {
	if r.taken(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateComputation, name)
	}
	r.shaders[name] = c
	return nil
}

// Lookup returns the signature of a computation and whether it is a
// shader computation.
func (r *Registry) Lookup(name string) (sig Signature, isShader bool, err error) {
	if c, ok := r.textures[name]; ok {
		return c.Signature(), false, nil
	}
	if c, ok := r.shaders[name]; ok {
		return c.Signature(), true, nil
	}
	return Signature{}, false, fmt.Errorf("%w: %q", ErrUnknownComputation, name)
}

// Names returns the registered computation names.
func (r *Registry) Names() []string {
	var names []string
	for n := range r.textures {
		names = append(names, n)
	}
	for n := range r.shaders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, v := range r.textures {
		c.textures[k] = v
	}
	for k, v := range r.shaders {
		c.shaders[k] = v
	}
	return c
}

// TextureFunc adapts a function to TextureComputation.
type TextureFunc struct {
	Sig Signature
	Fn  func(ctx *Context, args Args, options map[string]string, axes axis.Reader) (*Texture, error)
}

// Signature implements TextureComputation.
func (f TextureFunc) Signature() Signature { return f.Sig }

// Compute implements TextureComputation.
func (f TextureFunc) Compute(ctx *Context, args Args, options map[string]string, axes axis.Reader) (*Texture, error) {
	return f.Fn(ctx, args, options, axes)
}

// ShaderFunc adapts a function to ShaderComputation.
type ShaderFunc struct {
	Sig Signature
	Fn  func(args map[string]Operand, options map[string]string) (Operand, error)
}

// Signature implements ShaderComputation.
func (f ShaderFunc) Signature() Signature { return f.Sig }

// Shader implements ShaderComputation.
func (f ShaderFunc) Shader(args map[string]Operand, options map[string]string) (Operand, error) {
	return f.Fn(args, options)
}
