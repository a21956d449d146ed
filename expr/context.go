package expr

import (
	"fmt"

	"github.com/gogpu/gpuplot/gpucore"
)

// MaxTextureWidth bounds the width of uploaded data textures. Longer
// sequences wrap onto additional rows.
const MaxTextureWidth = 4096

// Context gives computations access to the device.
// A nil Device keeps textures host-only.
type Context struct {
	Device gpucore.Device
}

// Upload creates a data texture from interleaved values with the given
// number of channels (1 or 2). The texture is owned by the resolver.
func (c *Context) Upload(label string, values []float32, channels int) (*Texture, error) {
	format := gpucore.TextureFormatR32Float
	switch channels {
	case 1:
	case 2:
		format = gpucore.TextureFormatRG32Float
	default:
		return nil, fmt.Errorf("expr: unsupported channel count %d", channels)
	}
	if len(values)%channels != 0 {
		return nil, fmt.Errorf("expr: %d values do not divide into %d channels", len(values), channels)
	}

	n := len(values) / channels
	width := min(max(n, 1), MaxTextureWidth)
	height := max((n+width-1)/width, 1)
	t := &Texture{
		Width:     width,
		Height:    height,
		Format:    format,
		Data:      values,
		transient: true,
	}
	if c == nil || c.Device == nil {
		return t, nil
	}

	padded := make([]float32, width*height*channels)
	copy(padded, values)
	id, err := c.Device.CreateTexture(&gpucore.TextureDesc{
		Label:  label,
		Width:  width,
		Height: height,
		Format: format,
	}, gpucore.Float32Bytes(padded))
	if err != nil {
		return nil, fmt.Errorf("expr: upload %s: %w", label, err)
	}
	t.ID = id
	return t, nil
}

// Release destroys a texture created by Upload. Textures supplied by the
// caller are left alone.
func (c *Context) Release(t *Texture) {
	if t == nil || !t.transient {
		return
	}
	if c != nil && c.Device != nil && t.ID != gpucore.InvalidID {
		c.Device.DestroyTexture(t.ID)
	}
	t.ID = gpucore.InvalidID
}
