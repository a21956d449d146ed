// Package colorscale keeps the named colorscales of a plot and emits the
// shared WGSL dispatch block that maps an integer index to one of them.
//
// One-dimensional colorscales are indexed 0, 1, 2, ... in registration
// order. Two-dimensional colorscale j is indexed -(j+1), so both families
// share a single i32 uniform without colliding.
package colorscale

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Errors returned by registration and lookup.
var (
	ErrDuplicate = errors.New("colorscale: already registered")
	ErrUnknown   = errors.New("colorscale: not registered")
)

// Colorscale is a named mapping from a normalized value to a color.
type Colorscale struct {
	// Name is the registry key.
	Name string

	// Source is WGSL declaring FuncName(Name). One-dimensional scales take
	// (t: f32), two-dimensional ones (t: vec2<f32>); both return vec4<f32>.
	Source string

	// Host evaluates the scale on the CPU for 1D scales, if available.
	Host func(t float64) [4]float64

	// Host2D evaluates the scale on the CPU for 2D scales, if available.
	Host2D func(a, b float64) [4]float64
}

// FuncName returns the WGSL function name a colorscale's Source must declare.
func FuncName(name string) string {
	var sb strings.Builder
	sb.WriteString("cs_")
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Registry holds the colorscales known to a plot session.
type Registry struct {
	oneD  []*Colorscale
	twoD  []*Colorscale
	index map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) check(cs *Colorscale) error {
	if cs.Name == "" {
		return fmt.Errorf("colorscale: empty name")
	}
	if _, ok := r.index[cs.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, cs.Name)
	}
	fn := "fn " + FuncName(cs.Name) + "("
	if !strings.Contains(cs.Source, fn) {
		return fmt.Errorf("colorscale: %q source does not declare %s...)", cs.Name, fn)
	}
	for _, other := range r.oneD {
		if FuncName(other.Name) == FuncName(cs.Name) {
			return fmt.Errorf("colorscale: %q and %q share function name %s", cs.Name, other.Name, FuncName(cs.Name))
		}
	}
	for _, other := range r.twoD {
		if FuncName(other.Name) == FuncName(cs.Name) {
			return fmt.Errorf("colorscale: %q and %q share function name %s", cs.Name, other.Name, FuncName(cs.Name))
		}
	}
	return nil
}

// Register adds a one-dimensional colorscale and returns its index.
func (r *Registry) Register(cs Colorscale) (int, error) {
	if err := r.check(&cs); err != nil {
		return 0, err
	}
	idx := len(r.oneD)
	r.oneD = append(r.oneD, &cs)
	r.index[cs.Name] = idx
	return idx, nil
}

// Register2D adds a two-dimensional colorscale and returns its (negative) index.
func (r *Registry) Register2D(cs Colorscale) (int, error) {
	if err := r.check(&cs); err != nil {
		return 0, err
	}
	r.twoD = append(r.twoD, &cs)
	idx := -len(r.twoD)
	r.index[cs.Name] = idx
	return idx, nil
}

// Index returns the dispatch index of a colorscale.
func (r *Registry) Index(name string) (int, error) {
	idx, ok := r.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return idx, nil
}

// Is2D reports whether an index names a two-dimensional colorscale.
func Is2D(index int) bool { return index < 0 }

// Lookup returns the colorscale at a dispatch index.
func (r *Registry) Lookup(index int) (*Colorscale, bool) {
	if index >= 0 {
		if index < len(r.oneD) {
			return r.oneD[index], true
		}
		return nil, false
	}
	j := -index - 1
	if j < len(r.twoD) {
		return r.twoD[j], true
	}
	return nil, false
}

// Names returns the 1D and 2D colorscale names in index order.
func (r *Registry) Names() (oneD, twoD []string) {
	for _, cs := range r.oneD {
		oneD = append(oneD, cs.Name)
	}
	for _, cs := range r.twoD {
		twoD = append(twoD, cs.Name)
	}
	return oneD, twoD
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		oneD:  append([]*Colorscale(nil), r.oneD...),
		twoD:  append([]*Colorscale(nil), r.twoD...),
		index: make(map[string]int, len(r.index)),
	}
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}

// Color evaluates a 1D colorscale on the host at normalized t.
// ok is false if the index is unknown or the scale has no host form.
func (r *Registry) Color(index int, t float64) (rgba [4]float64, ok bool) {
	cs, found := r.Lookup(index)
	if !found || cs.Host == nil {
		return rgba, false
	}
	return cs.Host(clamp01(t)), true
}

// Color2D evaluates the two-axis mapping on the host, mirroring the
// emitted map_color_2d: equal 2D indices use the true 2D colorscale,
// any other pairing averages the two 1D colors.
func (r *Registry) Color2D(indexA int, a float64, indexB int, b float64) (rgba [4]float64, ok bool) {
	if Is2D(indexA) && indexA == indexB {
		cs, found := r.Lookup(indexA)
		if !found || cs.Host2D == nil {
			return rgba, false
		}
		return cs.Host2D(clamp01(a), clamp01(b)), true
	}
	ca, okA := r.Color(indexA, a)
	cb, okB := r.Color(indexB, b)
	if !okA || !okB {
		return rgba, false
	}
	for i := range rgba {
		rgba[i] = (ca[i] + cb[i]) / 2
	}
	return rgba, true
}

func clamp01(t float64) float64 {
	switch {
	case t != t:
		return 0
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}
