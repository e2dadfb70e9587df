package gfx

import (
	"encoding/binary"
	"hash/fnv"
)

// AttribType is the semantic element type of a vertex attribute.
type AttribType int

const (
	AttribFloat AttribType = iota
	AttribInt
	AttribUint
	AttribShort
	AttribUshort
	AttribByte
	AttribUbyte
)

// Size returns the byte size of one component.
func (t AttribType) Size() int {
	switch t {
	case AttribShort, AttribUshort:
		return 2
	case AttribByte, AttribUbyte:
		return 1
	default:
		return 4
	}
}

// VertexAttribute describes one interleaved attribute. Offset is in bytes from
// the start of the vertex.
type VertexAttribute struct {
	Name       string
	Components int // 1..4
	Type       AttribType
	Normalized bool
	Offset     int
}

// Float returns a float attribute with the given component count.
func Float(name string, components, offset int) VertexAttribute {
	return VertexAttribute{Name: name, Components: components, Type: AttribFloat, Offset: offset}
}

const (
	defaultBufferCapacity = 1024
	bytesPerFloat         = 4
)

// BufferDescriptor is an immutable vertex layout plus allocation hints.
// Capacity is measured in floats.
type BufferDescriptor struct {
	attrs           []VertexAttribute
	floatsPerVertex int
	capacity        int
	dynamic         bool
}

// NewBufferDescriptor builds a descriptor whose floats-per-vertex is the sum of
// the attribute component counts.
func NewBufferDescriptor(attrs ...VertexAttribute) BufferDescriptor {
	fpv := 0
	for _, a := range attrs {
		fpv += a.Components
	}
	return BufferDescriptor{
		attrs:           append([]VertexAttribute(nil), attrs...),
		floatsPerVertex: fpv,
		capacity:        defaultBufferCapacity,
		dynamic:         true,
	}
}

// WithCapacity returns a copy with a different initial capacity in floats.
func (d BufferDescriptor) WithCapacity(floats int) BufferDescriptor {
	if floats > 0 {
		d.capacity = floats
	}
	return d
}

// WithDynamic returns a copy with the dynamic/static usage hint set.
func (d BufferDescriptor) WithDynamic(dynamic bool) BufferDescriptor {
	d.dynamic = dynamic
	return d
}

func (d BufferDescriptor) Attributes() []VertexAttribute {
	return append([]VertexAttribute(nil), d.attrs...)
}

func (d BufferDescriptor) FloatsPerVertex() int { return d.floatsPerVertex }
func (d BufferDescriptor) StrideInBytes() int   { return d.floatsPerVertex * bytesPerFloat }
func (d BufferDescriptor) InitialCapacity() int { return d.capacity }
func (d BufferDescriptor) Dynamic() bool        { return d.dynamic }

// Fingerprint hashes the vertex layout. Capacity and the dynamic hint do not
// take part: two buffers with the same layout share pipelines.
func (d BufferDescriptor) Fingerprint() uint64 {
	h := fnv.New64a()
	var scratch [8]byte
	put := func(v int) {
		binary.LittleEndian.PutUint64(scratch[:], uint64(v))
		_, _ = h.Write(scratch[:])
	}
	put(d.floatsPerVertex)
	for _, a := range d.attrs {
		_, _ = h.Write([]byte(a.Name))
		put(a.Components)
		put(int(a.Type))
		put(a.Offset)
		if a.Normalized {
			put(1)
		} else {
			put(0)
		}
	}
	return h.Sum64()
}

// Presets.

// PositionColor2D is x,y followed by r,g,b,a.
func PositionColor2D() BufferDescriptor {
	return NewBufferDescriptor(
		Float("aPosition", 2, 0),
		Float("aColor", 4, 2*bytesPerFloat),
	)
}

// PositionOnly2D is x,y. Color comes from the uColor uniform.
func PositionOnly2D() BufferDescriptor {
	return NewBufferDescriptor(Float("aPosition", 2, 0))
}

// TextBuffer is x,y, u,v, r,g,b,a.
func TextBuffer() BufferDescriptor {
	return NewBufferDescriptor(
		Float("aPosition", 2, 0),
		Float("aTexCoord", 2, 2*bytesPerFloat),
		Float("aColor", 4, 4*bytesPerFloat),
	)
}

// GrowCapacity is the resize policy shared by every backend: one step to at
// least 1.5x the required size.
func GrowCapacity(required int) int {
	return (required*3 + 1) / 2
}
