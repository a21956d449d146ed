package axis

import (
	"fmt"
	"sort"
)

// Color is a color-mapping axis keyed by quantity kind.
type Color struct {
	QuantityKind string
	Colorscale   string
	Scale        ScaleType
	Label        string
	AlphaBlend   bool

	rng    Domain
	extent Domain
}

// Range returns the value range mapped onto the colorscale.
func (c *Color) Range() Domain { return c.rng }

// Extent returns the raw data extent from the last auto-domain pass.
func (c *Color) Extent() Domain { return c.extent }

// ColorRegistry holds the color axes of a plot.
type ColorRegistry struct {
	axes map[string]*Color
}

// NewColorRegistry returns an empty registry.
func NewColorRegistry() *ColorRegistry {
	return &ColorRegistry{axes: make(map[string]*Color)}
}

// Ensure returns the axis for quantityKind, creating it from the
// quantity-kind defaults and override on first use.
func (r *ColorRegistry) Ensure(qk QuantityKind, o Override) *Color {
	if a, ok := r.axes[qk.Name]; ok {
		return a
	}
	a := &Color{
		QuantityKind: qk.Name,
		Colorscale:   qk.Colorscale,
		Scale:        o.Scale.Or(qk.Scale).Or(ScaleLinear),
		Label:        qk.Label,
	}
	if o.Colorscale != "" {
		a.Colorscale = o.Colorscale
	}
	if o.Label != "" {
		a.Label = o.Label
	}
	a.rng = defaultDomain(a.Scale)
	r.axes[qk.Name] = a
	return a
}

// Axis returns the axis for a quantity kind.
func (r *ColorRegistry) Axis(quantityKind string) (*Color, bool) {
	a, ok := r.axes[quantityKind]
	return a, ok
}

// Names returns the quantity kinds in sorted order.
func (r *ColorRegistry) Names() []string {
	names := make([]string, 0, len(r.axes))
	for n := range r.axes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ApplyAutoDomains sets each range to the union of layer extents, then
// applies overrides keyed by quantity kind, then validates log axes.
func (r *ColorRegistry) ApplyAutoDomains(usages []Usage, overrides map[string]Override) error {
	for _, name := range r.Names() {
		a := r.axes[name]
		d, ok, err := union(usages, func(u Usage) bool { return contains(u.Color, name) }, name)
		if err != nil {
			return fmt.Errorf("color axis %s: %w", name, err)
		}
		if ok {
			a.extent = d
		} else {
			d = defaultDomain(a.Scale)
		}
		if o, found := overrides[name]; found {
			d = o.apply(d)
		}
		a.rng = d
	}
	for _, name := range r.Names() {
		a := r.axes[name]
		if err := checkDomain(a.Scale, a.rng); err != nil {
			return fmt.Errorf("color axis %s: %w", name, err)
		}
	}
	return nil
}

// SetRange replaces a color range after validation.
func (r *ColorRegistry) SetRange(quantityKind string, d Domain) error {
	a, ok := r.axes[quantityKind]
	if !ok {
		return fmt.Errorf("%w: color %q", ErrUnknownAxis, quantityKind)
	}
	if err := checkDomain(a.Scale, d); err != nil {
		return fmt.Errorf("color axis %s: %w", quantityKind, err)
	}
	a.rng = d
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
