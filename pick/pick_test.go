package pick

import (
	"strings"
	"testing"

	"github.com/gogpu/gpuplot/shader"
)

func TestColorChannelsRoundTrip(t *testing.T) {
	var s ColorChannels
	tests := []struct {
		layer, index int
	}{
		{0, 0},
		{0, 7},
		{3, 255},
		{1, 256},
		{254, MaxDataIndex},
	}
	for _, tt := range tests {
		px := s.Encode(tt.layer, tt.index)
		r, ok := s.Decode(px)
		if !ok {
			t.Fatalf("Decode(%v) reported background", px)
		}
		if r.LayerIndex != tt.layer || r.DataIndex != tt.index {
			t.Errorf("round trip (%d,%d) = %v", tt.layer, tt.index, r)
		}
	}
}

func TestColorChannelsBigEndian(t *testing.T) {
	px := ColorChannels{}.Encode(0, 0x010203)
	if px != [4]uint8{1, 1, 2, 3} {
		t.Errorf("Encode = %v, want [1 1 2 3]", px)
	}
}

func TestDecodeBackground(t *testing.T) {
	if _, ok := (ColorChannels{}).Decode([4]uint8{0, 9, 9, 9}); ok {
		t.Error("channel 0 == 0 must decode as background")
	}
}

func TestDeclare(t *testing.T) {
	b := shader.NewBuilder()
	ColorChannels{}.Declare(b)
	b.FragmentBody("return apply_color(vec4<f32>(1.0), 0u);")
	src, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{"picking: i32", "layer_index: i32", "fn apply_color("} {
		if !strings.Contains(src.Code, want) {
			t.Errorf("missing %q", want)
		}
	}
}
