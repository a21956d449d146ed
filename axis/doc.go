// Package axis manages the coordinate domains of a plot.
//
// There are three independent registries:
//
//   - [SpatialRegistry]: four fixed positional slots (xaxis_bottom,
//     xaxis_top, yaxis_left, yaxis_right), each bound once to a quantity
//     kind, with a linear or log scale onto a fixed pixel range.
//   - [ColorRegistry]: color-mapping ranges keyed by quantity kind.
//   - [FilterRegistry]: inclusion ranges keyed by quantity kind, with
//     independently open bounds.
//
// Domains are derived from the layers using each axis (the union of their
// extents, a layer-declared domain standing in for a data scan) and then
// overridden by configuration. Log axes must have strictly positive
// domains.
//
// Registries are built from scratch for every configuration update, so a
// failed validation never leaves a live registry half-updated.
package axis
