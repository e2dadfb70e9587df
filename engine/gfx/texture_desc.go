package gfx

// TextureFormat is the texel format of a texture.
type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGB8
	FormatR8
	FormatRG8
	FormatR16F
	FormatRGBA16F
	FormatRGBA32F
)

// BytesPerPixel returns the CPU-side pixel size.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRG8, FormatR16F:
		return 2
	case FormatRGB8:
		return 3
	case FormatRGBA16F:
		return 8
	case FormatRGBA32F:
		return 16
	default:
		return 4
	}
}

// Filter is a texture sampling filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Wrap is a texture addressing mode.
type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
	WrapMirror
)

// TextureDescriptor describes a 2D texture.
type TextureDescriptor struct {
	Width, Height int
	Format        TextureFormat
	MinFilter     Filter
	MagFilter     Filter
	WrapS, WrapT  Wrap
	Mipmaps       bool
}

// BytesPerPixel is a shorthand for Format.BytesPerPixel.
func (d TextureDescriptor) BytesPerPixel() int { return d.Format.BytesPerPixel() }

// ByteSize is the size of a tightly packed upload for this descriptor.
func (d TextureDescriptor) ByteSize() int { return d.Width * d.Height * d.BytesPerPixel() }

// FontAtlasTexture is a single-channel, linearly filtered, clamped texture.
func FontAtlasTexture(w, h int) TextureDescriptor {
	return TextureDescriptor{Width: w, Height: h, Format: FormatR8}
}

// RGBATexture is an 8-bit RGBA, linearly filtered, clamped texture.
func RGBATexture(w, h int) TextureDescriptor {
	return TextureDescriptor{Width: w, Height: h, Format: FormatRGBA8}
}
