// Package config handles YAML plot configuration documents.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/colorscale"
)

// Document is a plot configuration.
type Document struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`

	// Colorscale is used by color axes whose quantity kind and override
	// name none.
	Colorscale string `yaml:"colorscale"`

	Layers    []Layer         `yaml:"layers"`
	Axes      map[string]Axis `yaml:"axes"`
	Colorbars []Colorbar      `yaml:"colorbars"`
}

// Layer is one entry of the layer list: a single-key mapping from a layer
// type name to its parameters.
type Layer struct {
	Type   string
	Params map[string]any
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Layer) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return fmt.Errorf("config: line %d: layer must be a single-key mapping", value.Line)
	}
	key, params := value.Content[0], value.Content[1]
	if key.Kind != yaml.ScalarNode || key.Value == "" {
		return fmt.Errorf("config: line %d: layer type must be a name", key.Line)
	}
	l.Type = key.Value
	l.Params = map[string]any{}
	if params.ShortTag() == "!!null" {
		return nil
	}
	if params.Kind != yaml.MappingNode {
		return fmt.Errorf("config: line %d: parameters of %s must be a mapping", params.Line, l.Type)
	}
	return params.Decode(&l.Params)
}

// MarshalYAML implements yaml.Marshaler.
func (l Layer) MarshalYAML() (any, error) {
	return map[string]any{l.Type: l.Params}, nil
}

// Bar placement of a colorbar or filterbar.
const (
	BarNone       = "none"
	BarVertical   = "vertical"
	BarHorizontal = "horizontal"
)

// Axis overrides one axis, keyed by spatial axis name or quantity kind.
type Axis struct {
	Min        *float64 `yaml:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty"`
	Label      string   `yaml:"label,omitempty"`
	Scale      string   `yaml:"scale,omitempty"`
	Colorscale string   `yaml:"colorscale,omitempty"`
	Colorbar   string   `yaml:"colorbar,omitempty"`
	Filterbar  string   `yaml:"filterbar,omitempty"`
}

// Colorbar declares a floating colorbar widget over one or two color axes.
// Widgets are drawn by the host; the plot only carries the declaration.
type Colorbar struct {
	Axes        []string `yaml:"axes"`
	Orientation string   `yaml:"orientation,omitempty"`
}

// Load reads a document from a YAML file. A missing file yields the
// default document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&doc)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DefaultDocument returns an empty 800x600 plot on white.
func DefaultDocument() *Document {
	return &Document{
		Width:      800,
		Height:     600,
		Background: "white",
		Colorscale: "viridis",
		Axes:       map[string]Axis{},
	}
}

func applyDefaults(doc *Document) {
	defaults := DefaultDocument()

	if doc.Width == 0 {
		doc.Width = defaults.Width
	}
	if doc.Height == 0 {
		doc.Height = defaults.Height
	}
	if doc.Background == "" {
		doc.Background = defaults.Background
	}
	if doc.Colorscale == "" {
		doc.Colorscale = defaults.Colorscale
	}
	if doc.Axes == nil {
		doc.Axes = defaults.Axes
	}
}

// Validate checks sizes, colors, scales and bar placements.
func (d *Document) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("config: plot size %dx%d must be positive", d.Width, d.Height)
	}
	if _, err := d.BackgroundColor(); err != nil {
		return err
	}
	for i, l := range d.Layers {
		if l.Type == "" {
			return fmt.Errorf("config: layer %d has no type", i)
		}
	}
	for name, a := range d.Axes {
		if _, err := axis.ParseScale(a.Scale); err != nil {
			return fmt.Errorf("config: axis %s: %w", name, err)
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			return fmt.Errorf("config: axis %s: min %g exceeds max %g", name, *a.Min, *a.Max)
		}
		if err := checkBar(a.Colorbar); err != nil {
			return fmt.Errorf("config: axis %s: colorbar: %w", name, err)
		}
		if err := checkBar(a.Filterbar); err != nil {
			return fmt.Errorf("config: axis %s: filterbar: %w", name, err)
		}
	}
	for i, c := range d.Colorbars {
		if n := len(c.Axes); n < 1 || n > 2 {
			return fmt.Errorf("config: colorbar %d must name one or two axes, got %d", i, n)
		}
		if err := checkBar(c.Orientation); err != nil {
			return fmt.Errorf("config: colorbar %d: %w", i, err)
		}
	}
	return nil
}

func checkBar(s string) error {
	switch s {
	case "", BarNone, BarVertical, BarHorizontal:
		return nil
	}
	return fmt.Errorf("unknown placement %q", s)
}

// BackgroundColor returns the background as straight-alpha RGBA in [0, 1].
func (d *Document) BackgroundColor() ([4]float64, error) {
	c, err := colorscale.ParseColor(d.Background)
	if err != nil {
		return [4]float64{}, fmt.Errorf("config: background: %w", err)
	}
	v := colorscale.Vec4(c)
	return [4]float64{float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])}, nil
}

// Overrides converts the axes map into axis overrides.
func (d *Document) Overrides() (map[string]axis.Override, error) {
	out := make(map[string]axis.Override, len(d.Axes))
	for name, a := range d.Axes {
		st, err := axis.ParseScale(a.Scale)
		if err != nil {
			return nil, fmt.Errorf("config: axis %s: %w", name, err)
		}
		out[name] = axis.Override{
			Min:        a.Min,
			Max:        a.Max,
			Scale:      st,
			Label:      a.Label,
			Colorscale: a.Colorscale,
		}
	}
	return out, nil
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return b, nil
}
