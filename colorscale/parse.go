package colorscale

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa", an SVG color name or
// "transparent".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("colorscale: empty color")
	}
	if s[0] == '#' {
		return parseHex(s[1:])
	}
	low := strings.ToLower(s)
	if low == "transparent" {
		return color.RGBA{}, nil
	}
	c, ok := colornames.Map[low]
	if !ok {
		return color.RGBA{}, fmt.Errorf("colorscale: unknown color name %q", s)
	}
	return c, nil
}

func parseHex(x string) (color.RGBA, error) {
	var r, g, b int
	a := 255
	var err error
	switch len(x) {
	case 3:
		_, err = fmt.Sscanf(x, "%1x%1x%1x", &r, &g, &b)
		r |= r << 4
		g |= g << 4
		b |= b << 4
	case 6:
		_, err = fmt.Sscanf(x, "%02x%02x%02x", &r, &g, &b)
	case 8:
		_, err = fmt.Sscanf(x, "%02x%02x%02x%02x", &r, &g, &b, &a)
	default:
		return color.RGBA{}, fmt.Errorf("colorscale: malformed hex color %q", "#"+x)
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colorscale: malformed hex color %q: %w", "#"+x, err)
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}, nil
}

// Vec4 returns c as a straight-alpha shader color.
func Vec4(c color.RGBA) [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}
