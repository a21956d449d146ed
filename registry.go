package gpuplot

import (
	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/colorscale"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/layer"
	"github.com/gogpu/gpuplot/layers"
)

// Registry is the registration context of a plot session: layer types,
// computations, colorscales and quantity kinds. A Plot copies the
// registry it is created with, so later registrations do not affect it.
//
// Registry is not safe for concurrent registration.
type Registry struct {
	types       *layer.Types
	exprs       *expr.Registry
	colorscales *colorscale.Registry
	kinds       *axis.QuantityKinds
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:       layer.NewTypes(),
		exprs:       expr.NewRegistry(),
		colorscales: colorscale.NewRegistry(),
		kinds:       axis.NewQuantityKinds(),
	}
}

// DefaultRegistry returns a registry holding the built-in layer types,
// computations and colorscales.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := layers.RegisterBuiltins(r.types); err != nil {
		return nil, err
	}
	if err := expr.RegisterBuiltins(r.exprs); err != nil {
		return nil, err
	}
	if err := colorscale.RegisterBuiltins(r.colorscales); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterLayerType adds a layer type. Names are unique.
func (r *Registry) RegisterLayerType(t *layer.Type) error {
	return r.types.Register(t)
}

// RegisterColorscale adds a 1D colorscale and returns its index.
func (r *Registry) RegisterColorscale(cs colorscale.Colorscale) (int, error) {
	return r.colorscales.Register(cs)
}

// Register2DColorscale adds a 2D colorscale and returns its (negative) index.
func (r *Registry) Register2DColorscale(cs colorscale.Colorscale) (int, error) {
	return r.colorscales.Register2D(cs)
}

// RegisterQuantityKind adds or replaces the defaults of a quantity kind.
func (r *Registry) RegisterQuantityKind(qk axis.QuantityKind) error {
	return r.kinds.Register(qk)
}

// RegisterTextureComputation adds a computation evaluated into a texture.
func (r *Registry) RegisterTextureComputation(name string, c expr.TextureComputation) error {
	return r.exprs.RegisterTexture(name, c)
}

// RegisterShaderComputation adds a computation lowered to WGSL.
func (r *Registry) RegisterShaderComputation(name string, c expr.ShaderComputation) error {
	return r.exprs.RegisterShader(name, c)
}

// LayerTypes returns the registered layer type names, sorted.
func (r *Registry) LayerTypes() []string { return r.types.Names() }

// Computations returns the registered computation names, sorted.
func (r *Registry) Computations() []string { return r.exprs.Names() }

// Colorscales returns the registered 1D and 2D colorscale names.
func (r *Registry) Colorscales() (oneD, twoD []string) { return r.colorscales.Names() }

// QuantityKind returns the defaults of a quantity kind.
func (r *Registry) QuantityKind(name string) axis.QuantityKind { return r.kinds.Lookup(name) }

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	return &Registry{
		types:       r.types.Clone(),
		exprs:       r.exprs.Clone(),
		colorscales: r.colorscales.Clone(),
		kinds:       r.kinds.Clone(),
	}
}
