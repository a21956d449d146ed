package gpucore

import "testing"

// countingDevice records program lifecycle calls.
type countingDevice struct {
	next      ProgramID
	created   int
	destroyed []ProgramID
}

func (d *countingDevice) Name() string                                  { return "counting" }
func (d *countingDevice) CreateBuffer(string, []byte) (BufferID, error) { return 1, nil }
func (d *countingDevice) DestroyBuffer(BufferID)                        {}
func (d *countingDevice) CreateTexture(*TextureDesc, []byte) (TextureID, error) {
	return 1, nil
}
func (d *countingDevice) DestroyTexture(TextureID) {}
func (d *countingDevice) CreateProgram(*ProgramDesc) (ProgramID, error) {
	d.next++
	d.created++
	return d.next, nil
}
func (d *countingDevice) DestroyProgram(id ProgramID)                   { d.destroyed = append(d.destroyed, id) }
func (d *countingDevice) CreateTarget(int, int) (TargetID, error)       { return 1, nil }
func (d *countingDevice) DestroyTarget(TargetID)                        {}
func (d *countingDevice) Render(TargetID, [4]float64, []DrawCall) error { return nil }
func (d *countingDevice) ReadPixels(TargetID, int, int, int, int) ([]byte, error) {
	return nil, nil
}
func (d *countingDevice) Destroy() {}

func TestProgramCacheReuse(t *testing.T) {
	dev := &countingDevice{}
	cache, err := NewProgramCache(dev, 2)
	if err != nil {
		t.Fatalf("NewProgramCache: %v", err)
	}

	desc := &ProgramDesc{Source: "a", VertexEntry: "vs_main", FragmentEntry: "fs_main"}
	first, err := cache.Program(desc)
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	same := *desc
	second, err := cache.Program(&same)
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if first != second {
		t.Errorf("identical descriptors got programs %d and %d", first, second)
	}
	if dev.created != 1 {
		t.Errorf("created = %d, want 1", dev.created)
	}
}

func TestProgramCacheEvictionDestroys(t *testing.T) {
	dev := &countingDevice{}
	cache, err := NewProgramCache(dev, 1)
	if err != nil {
		t.Fatalf("NewProgramCache: %v", err)
	}
	a, _ := cache.Program(&ProgramDesc{Source: "a"})
	if _, err := cache.Program(&ProgramDesc{Source: "b"}); err != nil {
		t.Fatalf("Program: %v", err)
	}
	if len(dev.destroyed) != 1 || dev.destroyed[0] != a {
		t.Errorf("destroyed = %v, want [%d]", dev.destroyed, a)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestProgramDescKey(t *testing.T) {
	base := ProgramDesc{
		Source:  "src",
		Buffers: []VertexBufferLayout{{Stride: 4, Attributes: []VertexAttribute{{Location: 0, Format: VertexFormatFloat32}}}},
	}
	blend := base
	blend.Blend = true
	instanced := base
	instanced.Buffers = []VertexBufferLayout{{Stride: 4, StepMode: StepInstance, Attributes: base.Buffers[0].Attributes}}

	if base.Key() == blend.Key() {
		t.Error("blend flag does not change key")
	}
	if base.Key() == instanced.Key() {
		t.Error("step mode does not change key")
	}
	if base.Key() != base.Key() {
		t.Error("key is not deterministic")
	}
}

func TestNewProgramCacheRequiresDevice(t *testing.T) {
	if _, err := NewProgramCache(nil, 4); err == nil {
		t.Fatal("expected error for nil device")
	}
}
