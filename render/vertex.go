package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// VertexType selects the fragment shader branch for a vertex.
type VertexType int32

const (
	// VertexSolid is a flat color fill.
	VertexSolid VertexType = 0

	// VertexGlyph samples the glyph atlas as an alpha mask tinted by
	// the vertex color.
	VertexGlyph VertexType = 1

	// VertexImage samples the image atlas and multiplies by the vertex
	// color as a tint.
	VertexImage VertexType = 2

	// VertexYUV samples a YUV image and converts to sRGB.
	VertexYUV VertexType = 3
)

// Vertex is the common vertex record shared by every pipeline stage.
// Position is in device pixels with z carrying the layer index; Coords are
// atlas UVs for textured types and unused for solid fills.
type Vertex struct {
	Position [3]float32
	Coords   [2]float32
	Color    [4]float32
	Type     VertexType
	TexIndex uint32
}

// VertexStride is the byte size of one encoded Vertex:
//
//	position  (vec3<f32>) = 12 bytes (location 0)
//	coords    (vec2<f32>) =  8 bytes (location 1)
//	color     (vec4<f32>) = 16 bytes (location 2)
//	type      (i32)       =  4 bytes (location 3)
//	tex_index (u32)       =  4 bytes (location 4)
const VertexStride = 44

// VertexLayout returns the vertex buffer layout matching VertexInput in
// ui.wgsl.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2},
				{Format: gputypes.VertexFormatSint32, Offset: 36, ShaderLocation: 3},
				{Format: gputypes.VertexFormatUint32, Offset: 40, ShaderLocation: 4},
			},
		},
	}
}

// Encode appends the little-endian byte encoding of v to dst and returns
// the extended slice.
func (v Vertex) Encode(dst []byte) []byte {
	var buf [VertexStride]byte
	off := 0
	for _, f := range v.Position {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	for _, f := range v.Coords {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	for _, f := range v.Color {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(v.Type))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], v.TexIndex)
	return append(dst, buf[:]...)
}

// EncodeVertices serializes vertices into raw bytes for GPU upload.
func EncodeVertices(verts []Vertex) []byte {
	data := make([]byte, 0, len(verts)*VertexStride)
	for _, v := range verts {
		data = v.Encode(data)
	}
	return data
}
