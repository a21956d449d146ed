package axis

import (
	"fmt"
	"math"
	"sort"
)

// FilterRange is an inclusion range with independently open bounds.
// An open bound keeps a zero value so equal ranges compare equal.
type FilterRange struct {
	Min, Max       float64
	HasMin, HasMax bool
}

// Bounds builds a range from optional bounds; nil means open.
func Bounds(lo, hi *float64) FilterRange {
	var f FilterRange
	f.SetMin(lo)
	f.SetMax(hi)
	return f
}

// SetMin closes the lower bound at *v, or opens it when v is nil.
func (f *FilterRange) SetMin(v *float64) {
	if v == nil {
		f.Min, f.HasMin = 0, false
		return
	}
	f.Min, f.HasMin = *v, true
}

// SetMax closes the upper bound at *v, or opens it when v is nil.
func (f *FilterRange) SetMax(v *float64) {
	if v == nil {
		f.Max, f.HasMax = 0, false
		return
	}
	f.Max, f.HasMax = *v, true
}

// Vec4 returns the shader uniform [min, max, hasMin, hasMax].
func (f FilterRange) Vec4() [4]float32 {
	v := [4]float32{float32(f.Min), float32(f.Max), 0, 0}
	if f.HasMin {
		v[2] = 1
	}
	if f.HasMax {
		v[3] = 1
	}
	return v
}

// Contains mirrors the shader's filter_in test.
func (f FilterRange) Contains(v float64, st ScaleType) bool {
	if st == ScaleLog && v <= 0 {
		return false
	}
	if f.HasMin && v < f.Min {
		return false
	}
	if f.HasMax && v > f.Max {
		return false
	}
	return true
}

func (f FilterRange) String() string {
	lo, hi := "-inf", "+inf"
	if f.HasMin {
		lo = fmt.Sprint(f.Min)
	}
	if f.HasMax {
		hi = fmt.Sprint(f.Max)
	}
	return "[" + lo + ", " + hi + "]"
}

// Filter is an inclusion/exclusion axis keyed by quantity kind.
type Filter struct {
	QuantityKind string
	Scale        ScaleType
	Label        string

	bounds FilterRange
	extent Domain
}

// Bounds returns the current filter range.
func (f *Filter) Bounds() FilterRange { return f.bounds }

// Extent returns the cached raw-data extent for display.
func (f *Filter) Extent() Domain { return f.extent }

// FilterRegistry holds the filter axes of a plot.
type FilterRegistry struct {
	axes map[string]*Filter
}

// NewFilterRegistry returns an empty registry.
func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{axes: make(map[string]*Filter)}
}

// Ensure returns the filter for quantityKind, creating it on first use.
// New filters start open on both ends.
func (r *FilterRegistry) Ensure(qk QuantityKind, o Override) *Filter {
	if a, ok := r.axes[qk.Name]; ok {
		return a
	}
	a := &Filter{
		QuantityKind: qk.Name,
		Scale:        o.Scale.Or(qk.Scale).Or(ScaleLinear),
		Label:        qk.Label,
	}
	if o.Label != "" {
		a.Label = o.Label
	}
	r.axes[qk.Name] = a
	return a
}

// Axis returns the filter for a quantity kind.
func (r *FilterRegistry) Axis(quantityKind string) (*Filter, bool) {
	a, ok := r.axes[quantityKind]
	return a, ok
}

// Names returns the quantity kinds in sorted order.
func (r *FilterRegistry) Names() []string {
	names := make([]string, 0, len(r.axes))
	for n := range r.axes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ApplyAutoDomains caches the union of layer extents for each filter and
// closes the bounds given in overrides. Bounds without an override stay open.
func (r *FilterRegistry) ApplyAutoDomains(usages []Usage, overrides map[string]Override) error {
	for _, name := range r.Names() {
		a := r.axes[name]
		d, ok, err := union(usages, func(u Usage) bool { return contains(u.Filter, name) }, name)
		if err != nil {
			return fmt.Errorf("filter axis %s: %w", name, err)
		}
		if ok {
			a.extent = d
		} else {
			a.extent = Domain{Min: math.NaN(), Max: math.NaN()}
		}
		a.bounds = FilterRange{}
		if o, found := overrides[name]; found {
			a.bounds = Bounds(o.Min, o.Max)
		}
		if err := checkBounds(a); err != nil {
			return err
		}
	}
	return nil
}

func checkBounds(a *Filter) error {
	b := a.bounds
	if b.HasMin && b.HasMax && b.Min > b.Max {
		return fmt.Errorf("filter axis %s: min %g exceeds max %g", a.QuantityKind, b.Min, b.Max)
	}
	if a.Scale == ScaleLog && ((b.HasMin && b.Min <= 0) || (b.HasMax && b.Max <= 0)) {
		return fmt.Errorf("filter axis %s: %w: %v", a.QuantityKind, ErrNonPositiveLog, b)
	}
	return nil
}

// SetBounds replaces both bounds; nil opens a bound. On error the filter
// keeps its previous range.
func (r *FilterRegistry) SetBounds(quantityKind string, lo, hi *float64) error {
	a, ok := r.axes[quantityKind]
	if !ok {
		return fmt.Errorf("%w: filter %q", ErrUnknownAxis, quantityKind)
	}
	prev := a.bounds
	a.bounds = Bounds(lo, hi)
	if err := checkBounds(a); err != nil {
		a.bounds = prev
		return err
	}
	return nil
}

// SetMin changes only the lower bound.
func (r *FilterRegistry) SetMin(quantityKind string, lo *float64) error {
	a, ok := r.axes[quantityKind]
	if !ok {
		return fmt.Errorf("%w: filter %q", ErrUnknownAxis, quantityKind)
	}
	prev := a.bounds
	a.bounds.SetMin(lo)
	if err := checkBounds(a); err != nil {
		a.bounds = prev
		return err
	}
	return nil
}

// SetMax changes only the upper bound.
func (r *FilterRegistry) SetMax(quantityKind string, hi *float64) error {
	a, ok := r.axes[quantityKind]
	if !ok {
		return fmt.Errorf("%w: filter %q", ErrUnknownAxis, quantityKind)
	}
	prev := a.bounds
	a.bounds.SetMax(hi)
	if err := checkBounds(a); err != nil {
		a.bounds = prev
		return err
	}
	return nil
}
