package render

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestVertexStride(t *testing.T) {
	v := Vertex{}
	if got := len(v.Encode(nil)); got != VertexStride {
		t.Fatalf("encoded vertex is %d bytes, want %d", got, VertexStride)
	}
}

func TestVertexEncode(t *testing.T) {
	v := Vertex{
		Position: [3]float32{75, 105, 2},
		Coords:   [2]float32{0.25, 0.75},
		Color:    [4]float32{1, 0.5, 0, 1},
		Type:     VertexGlyph,
		TexIndex: 3,
	}
	data := v.Encode(nil)

	readF32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
	if got := readF32(0); got != 75 {
		t.Errorf("position.x = %v, want 75", got)
	}
	if got := readF32(8); got != 2 {
		t.Errorf("position.z = %v, want 2", got)
	}
	if got := readF32(12); got != 0.25 {
		t.Errorf("coords.u = %v, want 0.25", got)
	}
	if got := readF32(20); got != 1 {
		t.Errorf("color.r = %v, want 1", got)
	}
	if got := int32(binary.LittleEndian.Uint32(data[36:])); got != int32(VertexGlyph) {
		t.Errorf("type = %d, want %d", got, VertexGlyph)
	}
	if got := binary.LittleEndian.Uint32(data[40:]); got != 3 {
		t.Errorf("tex_index = %d, want 3", got)
	}
}

func TestVertexLayout(t *testing.T) {
	layouts := VertexLayout()
	if len(layouts) != 1 {
		t.Fatalf("VertexLayout() returned %d buffers, want 1", len(layouts))
	}
	l := layouts[0]
	if uint64(l.ArrayStride) != VertexStride {
		t.Errorf("ArrayStride = %d, want %d", l.ArrayStride, VertexStride)
	}
	if len(l.Attributes) != 5 {
		t.Fatalf("attribute count = %d, want 5", len(l.Attributes))
	}
	// Offsets must be contiguous with the encoded layout.
	wantOffsets := []uint64{0, 12, 20, 36, 40}
	for i, attr := range l.Attributes {
		if uint64(attr.Offset) != wantOffsets[i] {
			t.Errorf("attribute %d offset = %d, want %d", i, attr.Offset, wantOffsets[i])
		}
		if attr.ShaderLocation != uint32(i) {
			t.Errorf("attribute %d shader location = %d, want %d", i, attr.ShaderLocation, i)
		}
	}
}
