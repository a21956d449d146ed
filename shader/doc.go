// Package shader assembles WGSL render modules from structured parts.
//
// A [Builder] collects directives, uniform members, data texture bindings,
// helper declarations, vertex inputs, varyings and entry-function
// statements. [Builder.Build] serializes them once, in a fixed order, so
// injected helpers never depend on text surgery over a template:
//
//	b := shader.NewBuilder()
//	b.Uniform("x_domain", shader.Vec2)
//	b.Input("x", shader.F32)
//	b.VertexBody("vout.position = vec4<f32>(x, 0.0, 0.0, 1.0);")
//	b.FragmentBody("return vec4<f32>(1.0);")
//	src, err := b.Build()
//
// Inside the vertex entry function every input is available under its own
// name; inside the fragment entry function every varying is.
package shader
