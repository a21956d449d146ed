package axis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/scale"
)

// Spatial axis slot names.
const (
	XBottom = "xaxis_bottom"
	XTop    = "xaxis_top"
	YLeft   = "yaxis_left"
	YRight  = "yaxis_right"
)

// Slots lists the fixed spatial axis slots.
var Slots = []string{XBottom, XTop, YLeft, YRight}

// IsSpatial reports whether name is a spatial axis slot.
func IsSpatial(name string) bool {
	for _, s := range Slots {
		if s == name {
			return true
		}
	}
	return false
}

// IsX reports whether a spatial slot is horizontal.
func IsX(name string) bool { return name == XBottom || name == XTop }

// Errors reported by the registries.
var (
	ErrQuantityKindConflict = errors.New("axis: quantity kind conflict")
	ErrNonPositiveLog       = errors.New("axis: log scale domain must be strictly positive")
	ErrUnknownAxis          = errors.New("axis: unknown axis")
)

// Spatial is one positional axis.
type Spatial struct {
	Name         string
	QuantityKind string
	Scale        ScaleType
	Label        string

	domain Domain
	pixels Domain
}

// Domain returns the current data domain.
func (s *Spatial) Domain() Domain { return s.domain }

// Pixels returns the fixed pixel range the domain maps onto.
func (s *Spatial) Pixels() Domain { return s.pixels }

func (s *Spatial) quantitative() scale.Quantitative {
	if s.Scale == ScaleLog {
		l, err := scale.NewLog(s.domain.Min, s.domain.Max, 10)
		if err == nil {
			return &l
		}
	}
	return &scale.Linear{Min: s.domain.Min, Max: s.domain.Max}
}

// Normalize maps v into [0,1] over the domain, as the shader's
// normalize_axis does. Non-positive values on a log axis yield NaN.
func (s *Spatial) Normalize(v float64) float64 {
	if s.Scale == ScaleLog && v <= 0 {
		return math.NaN()
	}
	if s.domain.Min == s.domain.Max {
		return 0.5
	}
	return s.quantitative().Map(v)
}

// Pixel maps a data value to its pixel coordinate.
func (s *Spatial) Pixel(v float64) float64 {
	q := scale.QQ{Src: s.quantitative(), Dest: &scale.Linear{Min: s.pixels.Min, Max: s.pixels.Max}}
	if s.Scale == ScaleLog && v <= 0 {
		return math.NaN()
	}
	return q.Map(v)
}

// Value maps a pixel coordinate back to a data value.
func (s *Spatial) Value(px float64) float64 {
	q := scale.QQ{Src: s.quantitative(), Dest: &scale.Linear{Min: s.pixels.Min, Max: s.pixels.Max}}
	return q.Unmap(px)
}

// Ticks returns at most n major tick positions for the external tick renderer.
func (s *Spatial) Ticks(n int) []float64 {
	major, _ := s.quantitative().Ticks(scale.TickOptions{Max: n})
	return major
}

// SpatialRegistry holds the four positional axes of a plot.
type SpatialRegistry struct {
	width, height int
	axes          map[string]*Spatial
}

// NewSpatialRegistry creates an empty registry for a width x height viewport.
func NewSpatialRegistry(width, height int) *SpatialRegistry {
	return &SpatialRegistry{width: width, height: height, axes: make(map[string]*Spatial)}
}

// EnsureAxis binds name to quantityKind, creating the axis on first use.
// Binding is set-once: a different quantity kind is an error. A non-unset
// scale sets the axis scale.
func (r *SpatialRegistry) EnsureAxis(name, quantityKind string, st ScaleType) (*Spatial, error) {
	if !IsSpatial(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAxis, name)
	}
	if a, ok := r.axes[name]; ok {
		if a.QuantityKind != quantityKind {
			return nil, fmt.Errorf("%w: axis %s is bound to %q, not %q", ErrQuantityKindConflict, name, a.QuantityKind, quantityKind)
		}
		if st != ScaleUnset {
			a.Scale = st
		}
		return a, nil
	}
	a := &Spatial{
		Name:         name,
		QuantityKind: quantityKind,
		Scale:        st.Or(ScaleLinear),
		pixels:       r.pixelRange(name),
	}
	a.domain = defaultDomain(a.Scale)
	r.axes[name] = a
	return a, nil
}

func (r *SpatialRegistry) pixelRange(name string) Domain {
	if IsX(name) {
		return Domain{Min: 0, Max: float64(r.width)}
	}
	return Domain{Min: float64(r.height), Max: 0}
}

func defaultDomain(st ScaleType) Domain {
	if st == ScaleLog {
		return Domain{Min: 1, Max: 10}
	}
	return Domain{Min: 0, Max: 1}
}

// Axis returns a bound axis.
func (r *SpatialRegistry) Axis(name string) (*Spatial, bool) {
	a, ok := r.axes[name]
	return a, ok
}

// Names returns the bound axis names in slot order.
func (r *SpatialRegistry) Names() []string {
	var names []string
	for _, s := range Slots {
		if _, ok := r.axes[s]; ok {
			names = append(names, s)
		}
	}
	return names
}

// ApplyAutoDomains sets every bound axis to the union of the extents of
// the layers plotted on it, then applies overrides keyed by axis name or
// quantity kind (axis name wins), then validates log axes.
func (r *SpatialRegistry) ApplyAutoDomains(usages []Usage, overrides map[string]Override) error {
	for _, name := range r.Names() {
		a := r.axes[name]
		d, ok, err := union(usages, func(u Usage) bool { return u.Spatial[name] == a.QuantityKind }, a.QuantityKind)
		if err != nil {
			return fmt.Errorf("axis %s: %w", name, err)
		}
		if !ok {
			d = defaultDomain(a.Scale)
		}
		if o, ok := overrides[a.QuantityKind]; ok {
			d = o.apply(d)
		}
		if o, ok := overrides[name]; ok {
			d = o.apply(d)
		}
		a.domain = pad(d, a.Scale)
	}
	return r.Validate()
}

// pad widens a zero-width domain so it maps onto a non-empty range.
func pad(d Domain, st ScaleType) Domain {
	if d.Min != d.Max {
		return d
	}
	if st == ScaleLog && d.Min > 0 {
		return Domain{Min: d.Min / 10, Max: d.Max * 10}
	}
	return Domain{Min: d.Min - 0.5, Max: d.Max + 0.5}
}

// Validate checks that every log axis has a strictly positive domain.
func (r *SpatialRegistry) Validate() error {
	names := r.Names()
	sort.Strings(names)
	for _, name := range names {
		a := r.axes[name]
		if err := checkDomain(a.Scale, a.domain); err != nil {
			return fmt.Errorf("axis %s: %w", name, err)
		}
	}
	return nil
}

func checkDomain(st ScaleType, d Domain) error {
	if !d.Valid() {
		return fmt.Errorf("axis: invalid domain %v", d)
	}
	if st == ScaleLog {
		if d.Min <= 0 {
			return fmt.Errorf("%w: %v", ErrNonPositiveLog, d)
		}
		if _, err := scale.NewLog(d.Min, d.Max, 10); err != nil {
			return fmt.Errorf("%w: %v", ErrNonPositiveLog, err)
		}
	}
	return nil
}

// SetDomain replaces an axis domain after validating it. On error the
// axis keeps its previous domain.
func (r *SpatialRegistry) SetDomain(name string, d Domain) error {
	a, ok := r.axes[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAxis, name)
	}
	if err := checkDomain(a.Scale, d); err != nil {
		return fmt.Errorf("axis %s: %w", name, err)
	}
	a.domain = d
	return nil
}

// Resize updates the pixel ranges of every axis.
func (r *SpatialRegistry) Resize(width, height int) {
	r.width, r.height = width, height
	for name, a := range r.axes {
		a.pixels = r.pixelRange(name)
	}
}
