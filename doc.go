// Package gpuplot renders large numeric datasets as GPU plots.
//
// # Overview
//
// A plot is a list of layers over shared axes. Each layer names a
// registered layer type and its parameters; the type turns parameters and
// data columns into a WGSL program, vertex buffers and uniforms. Attributes
// may be computed on the fly (histograms, FFTs, convolutions) and are
// recomputed automatically when an axis they read changes.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gpuplot"
//	    "github.com/gogpu/gpuplot/backend"
//	    "github.com/gogpu/gpuplot/config"
//	    "github.com/gogpu/gpuplot/data"
//	    _ "github.com/gogpu/gpuplot/backend/software"
//	)
//
//	dev := backend.MustDefault()
//	reg, _ := gpuplot.DefaultRegistry()
//	p, _ := gpuplot.New(dev, reg, gpuplot.WithSize(800, 600))
//	doc, _ := config.Load("plot.yaml")
//	_ = p.Update(doc, table)
//	_ = p.Render()
//	hit, ok, _ := p.Pick(120, 40)
//
// # Axes
//
// Three independent classes of axes share one model:
//   - spatial axes occupy the four fixed slots and position primitives;
//   - color axes map a quantity kind through a colorscale;
//   - filter axes hide primitives outside an optional min/max.
//
// Axis domains come from the union of the data extents of every layer
// using them, then from the configuration's axes map, then from
// programmatic edits ([Plot.SetDomain], [Plot.SetFilterBound]).
//
// # Picking
//
// [Plot.Pick] re-renders the plot with every layer writing its ordinal and
// the primitive index into the color channels, then reads one pixel back.
//
// # Frame Scheduling
//
// Mutations mark the plot dirty and request at most one pending frame from
// the host [Scheduler]. Without a scheduler the host calls [Plot.Render].
package gpuplot

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
