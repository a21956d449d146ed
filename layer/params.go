package layer

import (
	"fmt"
	"sort"
)

// Params are the decoded configuration parameters of one layer.
type Params map[string]any

// Text returns a string parameter, or "" when absent.
func (p Params) Text(name string) string {
	s, _ := p[name].(string)
	return s
}

// Float returns a numeric parameter as float64.
func (p Params) Float(name string) (float64, bool) {
	switch v := p[name].(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Bool returns a boolean parameter, or false when absent.
func (p Params) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

// Kind is the accepted type of a parameter.
type Kind uint8

// Parameter kinds.
const (
	// KindAny accepts any value.
	KindAny Kind = iota
	// KindExpr accepts an attribute expression: a column name, a number,
	// a list of numbers or a computation.
	KindExpr
	// KindColumn accepts a column name.
	KindColumn
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindExpr:
		return "expression"
	case KindColumn:
		return "column"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "any"
	}
}

func (k Kind) accepts(v any) bool {
	switch k {
	case KindExpr:
		switch v.(type) {
		case string, int, float64, []any, map[string]any:
			return true
		}
		return false
	case KindColumn, KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case int, float64:
			return true
		}
		return false
	case KindBool:
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}

// Param describes one layer parameter.
type Param struct {
	Name     string
	Kind     Kind
	Required bool

	// Default is used when the parameter is absent.
	Default any
}

// Schema lists the parameters a layer type accepts.
type Schema []Param

// Apply validates p against the schema and returns a copy with defaults
// filled in. Unknown parameters are rejected.
func (s Schema) Apply(p Params) (Params, error) {
	known := make(map[string]Param, len(s))
	for _, param := range s {
		known[param.Name] = param
	}
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		param, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("layer: unknown parameter %q", name)
		}
		if !param.Kind.accepts(p[name]) {
			return nil, fmt.Errorf("layer: parameter %q must be a %s, got %T", name, param.Kind, p[name])
		}
	}

	out := make(Params, len(s))
	for _, param := range s {
		v, ok := p[param.Name]
		switch {
		case ok:
			out[param.Name] = v
		case param.Required:
			return nil, fmt.Errorf("layer: missing required parameter %q", param.Name)
		case param.Default != nil:
			out[param.Name] = param.Default
		}
	}
	return out, nil
}
