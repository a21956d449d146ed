package axis

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// QuantityKind describes a named physical or semantic dimension and the
// defaults its axes start from.
type QuantityKind struct {
	Name       string
	Label      string
	Scale      ScaleType
	Colorscale string
}

// QuantityKinds is the registry of known quantity kinds.
type QuantityKinds struct {
	kinds map[string]QuantityKind
}

// NewQuantityKinds returns an empty registry.
func NewQuantityKinds() *QuantityKinds {
	return &QuantityKinds{kinds: make(map[string]QuantityKind)}
}

// Register adds or replaces a quantity kind.
func (q *QuantityKinds) Register(qk QuantityKind) error {
	if qk.Name == "" {
		return fmt.Errorf("axis: quantity kind has empty name")
	}
	q.kinds[qk.Name] = qk
	return nil
}

// DefaultLabel derives an axis label from a quantity-kind name:
// "voltage_V" becomes "Voltage V".
func DefaultLabel(name string) string {
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(name, "_", " "))
}

// Lookup returns the registered quantity kind, or defaults for an
// unregistered name (derived label, unset scale, no colorscale).
func (q *QuantityKinds) Lookup(name string) QuantityKind {
	if qk, ok := q.kinds[name]; ok {
		if qk.Label == "" {
			qk.Label = DefaultLabel(name)
		}
		return qk
	}
	return QuantityKind{Name: name, Label: DefaultLabel(name)}
}

// Clone returns an independent copy of the registry.
func (q *QuantityKinds) Clone() *QuantityKinds {
	c := NewQuantityKinds()
	for k, v := range q.kinds {
		c.kinds[k] = v
	}
	return c
}
