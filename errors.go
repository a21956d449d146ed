package gpuplot

import (
	"errors"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/layer"
)

// Errors reported by Update and the domain edits. They alias the
// sub-package sentinels, so errors.Is works with either.
var (
	ErrUnknownLayerType     = layer.ErrUnknownLayerType
	ErrQuantityKindConflict = axis.ErrQuantityKindConflict
	ErrNonPositiveLogDomain = axis.ErrNonPositiveLog
	ErrUnknownAxis          = axis.ErrUnknownAxis
	ErrMissingColumn        = data.ErrMissingColumn
	ErrUnknownComputation   = expr.ErrUnknownComputation
	ErrShaderInRawPosition  = expr.ErrShaderInRawPosition
)

var (
	// ErrClosed is returned by every method of a closed plot.
	ErrClosed = errors.New("gpuplot: plot is closed")

	// ErrTooManyLayers is returned when a configuration has more layers
	// than the pick encoding can address.
	ErrTooManyLayers = errors.New("gpuplot: too many layers")

	// ErrTooManyPrimitives is returned when a layer draws more primitives
	// than a pick id can index.
	ErrTooManyPrimitives = errors.New("gpuplot: too many primitives in layer")
)
