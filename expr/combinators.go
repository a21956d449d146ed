package expr

import (
	"fmt"

	"github.com/gogpu/gpuplot/shader"
)

type combinator struct {
	name string
	fn   ShaderFunc
}

func binary(name, op string) combinator {
	return combinator{name, ShaderFunc{
		Sig: Signature{Args: []string{"a", "b"}, Required: []string{"a", "b"}},
		Fn: func(args map[string]Operand, _ map[string]string) (Operand, error) {
			a, b := args["a"], args["b"]
			t, err := widen(a.Type, b.Type)
			if err != nil {
				return Operand{}, fmt.Errorf("%s: %w", name, err)
			}
			return Operand{Code: fmt.Sprintf("(%s %s %s)", a.Code, op, b.Code), Type: t}, nil
		},
	}}
}

// widen returns the result type of an arithmetic op; f32 broadcasts.
func widen(a, b shader.Type) (shader.Type, error) {
	switch {
	case a == b:
		return a, nil
	case a == shader.F32:
		return b, nil
	case b == shader.F32:
		return a, nil
	}
	return "", fmt.Errorf("mismatched operand types %s and %s", a, b)
}

func unary(name string, fn func(x Operand) (Operand, error)) combinator {
	return combinator{name, ShaderFunc{
		Sig: Signature{Args: []string{"x"}, Required: []string{"x"}},
		Fn: func(args map[string]Operand, _ map[string]string) (Operand, error) {
			return fn(args["x"])
		},
	}}
}

func combinators() []combinator {
	return []combinator{
		binary("add", "+"),
		binary("sub", "-"),
		binary("mul", "*"),
		binary("div", "/"),
		{"scale", ShaderFunc{
			Sig: Signature{Args: []string{"x", "k"}, Required: []string{"x", "k"}},
			Fn: func(args map[string]Operand, _ map[string]string) (Operand, error) {
				x, k := args["x"], args["k"]
				if k.Type != shader.F32 {
					return Operand{}, fmt.Errorf("scale: factor must be f32, got %s", k.Type)
				}
				return Operand{Code: fmt.Sprintf("(%s * %s)", x.Code, k.Code), Type: x.Type}, nil
			},
		}},
		unary("log10", func(x Operand) (Operand, error) {
			return Operand{Code: fmt.Sprintf("(log(%s) * 0.4342944819)", x.Code), Type: x.Type}, nil
		}),
		unary("abs", func(x Operand) (Operand, error) {
			return Operand{Code: fmt.Sprintf("abs(%s)", x.Code), Type: x.Type}, nil
		}),
		unary("magnitude", func(x Operand) (Operand, error) {
			if x.Type == shader.F32 {
				return Operand{Code: fmt.Sprintf("abs(%s)", x.Code), Type: shader.F32}, nil
			}
			return Operand{Code: fmt.Sprintf("length(%s)", x.Code), Type: shader.F32}, nil
		}),
		unary("real", func(x Operand) (Operand, error) {
			if x.Type == shader.F32 {
				return x, nil
			}
			return Operand{Code: fmt.Sprintf("(%s).x", x.Code), Type: shader.F32}, nil
		}),
		unary("imag", func(x Operand) (Operand, error) {
			if x.Type == shader.F32 {
				return Operand{Code: "0.0", Type: shader.F32}, nil
			}
			return Operand{Code: fmt.Sprintf("(%s).y", x.Code), Type: shader.F32}, nil
		}),
	}
}
