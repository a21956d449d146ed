package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrInvalid wraps every error naga reports for an assembled module.
var ErrInvalid = errors.New("shader: invalid WGSL")

// Validate parses, lowers and validates a WGSL module with naga.
// It is run on every assembled module before GPU resources are allocated.
func Validate(code string) error {
	ast, err := naga.Parse(code)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	module, err := naga.LowerWithSource(ast, code)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(code string) ([]uint32, error) {
	b, err := naga.Compile(code)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}
