package axis

import "math"

// Class distinguishes the three axis registries.
type Class uint8

// Axis classes.
const (
	ClassSpatial Class = iota
	ClassColor
	ClassFilter
)

func (c Class) String() string {
	switch c {
	case ClassSpatial:
		return "spatial"
	case ClassColor:
		return "color"
	default:
		return "filter"
	}
}

// ID identifies an axis across registries. Spatial axes are named by
// slot, color and filter axes by quantity kind.
type ID struct {
	Class Class
	Name  string
}

func (id ID) String() string { return id.Class.String() + ":" + id.Name }

// SpatialID, ColorID and FilterID build axis identifiers.
func SpatialID(name string) ID { return ID{Class: ClassSpatial, Name: name} }
func ColorID(qk string) ID     { return ID{Class: ClassColor, Name: qk} }
func FilterID(qk string) ID    { return ID{Class: ClassFilter, Name: qk} }

// State is the value of an axis as observed by a computation: the domain
// of spatial and color axes, or the bounds of a filter axis. Scale is
// the axis scale the bounds are interpreted under.
type State struct {
	Min, Max       float64
	HasMin, HasMax bool
	Scale          ScaleType
}

// Equal compares states by value; NaN equals NaN.
func (s State) Equal(o State) bool {
	return same(s.Min, o.Min) && same(s.Max, o.Max) && s.HasMin == o.HasMin && s.HasMax == o.HasMax &&
		s.Scale == o.Scale
}

func same(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// Domain returns the closed bounds of the state.
func (s State) Domain() Domain { return Domain{Min: s.Min, Max: s.Max} }

// Filter returns the state as a filter range.
func (s State) Filter() FilterRange {
	return FilterRange{Min: s.Min, Max: s.Max, HasMin: s.HasMin, HasMax: s.HasMax}
}

// Contains reports whether v passes the state read as a filter, under
// its own scale.
func (s State) Contains(v float64) bool { return s.Filter().Contains(v, s.Scale) }

func domainState(d Domain, st ScaleType) State {
	return State{Min: d.Min, Max: d.Max, HasMin: true, HasMax: true, Scale: st}
}

// Reader gives read access to axis state.
type Reader interface {
	State(id ID) (State, bool)
}

// Set bundles the three registries of one plot configuration.
type Set struct {
	Spatial *SpatialRegistry
	Color   *ColorRegistry
	Filter  *FilterRegistry
}

// NewSet returns empty registries for a width x height viewport.
func NewSet(width, height int) *Set {
	return &Set{
		Spatial: NewSpatialRegistry(width, height),
		Color:   NewColorRegistry(),
		Filter:  NewFilterRegistry(),
	}
}

// State implements Reader.
func (s *Set) State(id ID) (State, bool) {
	switch id.Class {
	case ClassSpatial:
		if a, ok := s.Spatial.Axis(id.Name); ok {
			return domainState(a.Domain(), a.Scale), true
		}
	case ClassColor:
		if a, ok := s.Color.Axis(id.Name); ok {
			return domainState(a.Range(), a.Scale), true
		}
	case ClassFilter:
		if a, ok := s.Filter.Axis(id.Name); ok {
			b := a.Bounds()
			return State{Min: b.Min, Max: b.Max, HasMin: b.HasMin, HasMax: b.HasMax, Scale: a.Scale}, true
		}
	}
	return State{}, false
}

// ApplyAutoDomains runs auto-domain derivation on all three registries:
// filters and colors first, then spatial axes.
func (s *Set) ApplyAutoDomains(usages []Usage, overrides map[string]Override) error {
	if err := s.Filter.ApplyAutoDomains(usages, overrides); err != nil {
		return err
	}
	if err := s.Color.ApplyAutoDomains(usages, overrides); err != nil {
		return err
	}
	return s.Spatial.ApplyAutoDomains(usages, overrides)
}
