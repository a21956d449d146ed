package expr

import (
	"fmt"

	"github.com/gogpu/gpuplot/data"
)

// Parse converts a decoded configuration value into an expression.
//
//   - a string names a data column and becomes a Buffer;
//   - a number becomes a Scalar;
//   - a list of numbers becomes a Buffer;
//   - a single-key map {name: {param: value, ...}} becomes a Call; params
//     listed as options in the computation's signature must be strings.
func Parse(value any, src data.Source, reg *Registry) (Expr, error) {
	switch v := value.(type) {
	case string:
		if src == nil {
			return nil, fmt.Errorf("%w: %q", data.ErrMissingColumn, v)
		}
		col, err := src.Data(v)
		if err != nil {
			return nil, err
		}
		return Buffer(col), nil
	case int:
		return Scalar(v), nil
	case float64:
		return Scalar(v), nil
	case []any:
		buf := make(Buffer, len(v))
		for i, x := range v {
			switch n := x.(type) {
			case int:
				buf[i] = float32(n)
			case float64:
				buf[i] = float32(n)
			default:
				return nil, fmt.Errorf("expr: list element %d is %T, not a number", i, x)
			}
		}
		return buf, nil
	case map[string]any:
		return parseCall(v, src, reg)
	case Expr:
		return v, nil
	default:
		return nil, fmt.Errorf("expr: cannot parse %T as an expression", value)
	}
}

func parseCall(m map[string]any, src data.Source, reg *Registry) (Expr, error) {
	if len(m) != 1 {
		return nil, fmt.Errorf("expr: computation must be a single-key map, got %d keys", len(m))
	}
	var (
		name   string
		params any
	)
	for k, v := range m {
		name, params = k, v
	}
	sig, _, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	ps, ok := params.(map[string]any)
	if !ok && params != nil {
		return nil, fmt.Errorf("expr: %s: parameters must be a map, got %T", name, params)
	}

	c := &Call{Name: name, Args: make(map[string]Expr, len(ps))}
	for k, v := range ps {
		if sig.IsOption(k) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("expr: %s: option %q must be a string, got %T", name, k, v)
			}
			c.WithOption(k, s)
			continue
		}
		arg, err := Parse(v, src, reg)
		if err != nil {
			return nil, fmt.Errorf("expr: %s.%s: %w", name, k, err)
		}
		c.Args[k] = arg
	}
	if err := sig.check(c); err != nil {
		return nil, err
	}
	return c, nil
}
