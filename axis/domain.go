package axis

import (
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-moremath/stats"
)

// Domain is a closed numeric interval.
type Domain struct {
	Min, Max float64
}

// Valid reports whether the domain has finite, ordered bounds.
func (d Domain) Valid() bool {
	return !math.IsNaN(d.Min) && !math.IsNaN(d.Max) &&
		!math.IsInf(d.Min, 0) && !math.IsInf(d.Max, 0) && d.Min <= d.Max
}

// Union returns the smallest domain containing d and o.
func (d Domain) Union(o Domain) Domain {
	return Domain{Min: math.Min(d.Min, o.Min), Max: math.Max(d.Max, o.Max)}
}

// Vec2 returns the domain as a shader vec2.
func (d Domain) Vec2() [2]float32 {
	return [2]float32{float32(d.Min), float32(d.Max)}
}

func (d Domain) String() string {
	return fmt.Sprintf("[%g, %g]", d.Min, d.Max)
}

// Extent returns the finite extent of values. ok is false when no value is finite.
func Extent(values []float32) (d Domain, ok bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		finite = append(finite, f)
	}
	if len(finite) == 0 {
		return Domain{}, false
	}
	lo, hi := stats.Bounds(finite)
	return Domain{Min: lo, Max: hi}, true
}

// ScaleType selects a linear or logarithmic mapping.
type ScaleType int

// Scale types. ScaleUnset defers to the quantity-kind default.
const (
	ScaleUnset ScaleType = iota
	ScaleLinear
	ScaleLog
)

// ParseScale parses "linear" or "log". The empty string is ScaleUnset.
func ParseScale(s string) (ScaleType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ScaleUnset, nil
	case "linear":
		return ScaleLinear, nil
	case "log":
		return ScaleLog, nil
	default:
		return ScaleUnset, fmt.Errorf("axis: unknown scale %q", s)
	}
}

func (s ScaleType) String() string {
	switch s {
	case ScaleLinear:
		return "linear"
	case ScaleLog:
		return "log"
	default:
		return "unset"
	}
}

// Flag returns the shader scale-type flag: 1 for log, 0 otherwise.
func (s ScaleType) Flag() int32 {
	if s == ScaleLog {
		return 1
	}
	return 0
}

// Or returns s, or def when s is unset.
func (s ScaleType) Or(def ScaleType) ScaleType {
	if s == ScaleUnset {
		return def
	}
	return s
}

// Override holds the configuration values applied on top of auto domains.
type Override struct {
	Min, Max   *float64
	Scale      ScaleType
	Label      string
	Colorscale string
}

func (o Override) apply(d Domain) Domain {
	if o.Min != nil {
		d.Min = *o.Min
	}
	if o.Max != nil {
		d.Max = *o.Max
	}
	return d
}

// Usage describes how one layer uses axes, for auto-domain derivation.
type Usage struct {
	// Spatial maps spatial axis names to the quantity kind the layer plots on them.
	Spatial map[string]string

	// Color and Filter list the quantity kinds of the layer's color and filter axes.
	Color  []string
	Filter []string

	// Extent returns the layer's extent for a quantity kind: its declared
	// domain when present, else a scan of the backing data. ok is false
	// when the layer carries no data for the quantity kind.
	Extent func(quantityKind string) (d Domain, ok bool, err error)
}

// union folds the extents of every layer using quantityKind.
func union(usages []Usage, uses func(Usage) bool, quantityKind string) (Domain, bool, error) {
	var (
		d     Domain
		found bool
	)
	for _, u := range usages {
		if !uses(u) || u.Extent == nil {
			continue
		}
		e, ok, err := u.Extent(quantityKind)
		if err != nil {
			return Domain{}, false, err
		}
		if !ok || !e.Valid() {
			continue
		}
		if !found {
			d, found = e, true
		} else {
			d = d.Union(e)
		}
	}
	return d, found, nil
}
