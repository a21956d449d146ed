package shader

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Layout is the byte layout of a WGSL uniform struct.
type Layout struct {
	fields  []Field
	offsets map[string]uint64
	size    uint64
}

func alignSize(t Type) (align, size uint64, err error) {
	switch t {
	case F32, I32, U32:
		return 4, 4, nil
	case Vec2:
		return 8, 8, nil
	case Vec4:
		return 16, 16, nil
	default:
		return 0, 0, fmt.Errorf("shader: unsupported uniform type %q", t)
	}
}

func roundUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}

// NewLayout computes member offsets following WGSL uniform address space
// rules for the supported scalar and vector types.
func NewLayout(fields []Field) (*Layout, error) {
	l := &Layout{fields: fields, offsets: make(map[string]uint64, len(fields))}
	var off uint64
	for _, f := range fields {
		align, size, err := alignSize(f.Type)
		if err != nil {
			return nil, err
		}
		off = roundUp(off, align)
		l.offsets[f.Name] = off
		off += size
	}
	l.size = roundUp(off, 16)
	if l.size == 0 {
		l.size = 16
	}
	return l, nil
}

// Size returns the struct size in bytes.
func (l *Layout) Size() uint64 { return l.size }

// Offset returns the byte offset of a member.
func (l *Layout) Offset(name string) (uint64, bool) {
	off, ok := l.offsets[name]
	return off, ok
}

// Fields returns the members in declaration order.
func (l *Layout) Fields() []Field { return l.fields }

// Value is a uniform value: float32, int32, uint32, [2]float32 or [4]float32.
type Value any

// Pack encodes values into a uniform block. Members without a value are zero.
// Values naming unknown members, or of a type not matching the member, are errors.
func (l *Layout) Pack(values map[string]Value) ([]byte, error) {
	buf := make([]byte, l.size)
	types := make(map[string]Type, len(l.fields))
	for _, f := range l.fields {
		types[f.Name] = f.Type
	}
	for name, v := range values {
		t, ok := types[name]
		if !ok {
			return nil, fmt.Errorf("shader: unknown uniform %q", name)
		}
		off := l.offsets[name]
		if err := put(buf[off:], t, v); err != nil {
			return nil, fmt.Errorf("shader: uniform %q: %w", name, err)
		}
	}
	return buf, nil
}

func put(dst []byte, t Type, v Value) error {
	le := binary.LittleEndian
	switch t {
	case F32:
		f, ok := v.(float32)
		if !ok {
			return fmt.Errorf("want float32, got %T", v)
		}
		le.PutUint32(dst, math.Float32bits(f))
	case I32:
		i, ok := v.(int32)
		if !ok {
			return fmt.Errorf("want int32, got %T", v)
		}
		le.PutUint32(dst, uint32(i))
	case U32:
		u, ok := v.(uint32)
		if !ok {
			return fmt.Errorf("want uint32, got %T", v)
		}
		le.PutUint32(dst, u)
	case Vec2:
		a, ok := v.([2]float32)
		if !ok {
			return fmt.Errorf("want [2]float32, got %T", v)
		}
		le.PutUint32(dst, math.Float32bits(a[0]))
		le.PutUint32(dst[4:], math.Float32bits(a[1]))
	case Vec4:
		a, ok := v.([4]float32)
		if !ok {
			return fmt.Errorf("want [4]float32, got %T", v)
		}
		for i := range a {
			le.PutUint32(dst[4*i:], math.Float32bits(a[i]))
		}
	}
	return nil
}
