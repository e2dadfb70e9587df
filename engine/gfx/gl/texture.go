package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Texture is a GL_TEXTURE_2D. Storage is allocated by the first Upload.
type Texture struct {
	dev      *Device
	desc     gfx.TextureDescriptor
	id       uint32
	disposed bool
}

func (t *Texture) Descriptor() gfx.TextureDescriptor { return t.desc }
func (t *Texture) Width() int                        { return t.desc.Width }
func (t *Texture) Height() int                       { return t.desc.Height }
func (t *Texture) IsInitialized() bool               { return t.id != 0 && !t.disposed }

func (t *Texture) ensure() bool {
	if t.id != 0 {
		return true
	}
	if !t.dev.initialized {
		return false
	}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterGL(t.desc.MinFilter, t.desc.Mipmaps))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterGL(t.desc.MagFilter, false))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapGL(t.desc.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapGL(t.desc.WrapT))
	return true
}

// Upload replaces the whole image. len(pixels) must equal the descriptor's
// ByteSize.
func (t *Texture) Upload(pixels []byte) error {
	if t.disposed {
		return gfx.ErrDisposed
	}
	if len(pixels) != t.desc.ByteSize() {
		return fmt.Errorf("gl: texture upload of %d bytes, want %d", len(pixels), t.desc.ByteSize())
	}
	if !t.ensure() {
		return gfx.ErrNotInitialized
	}
	internal, format, xtype := textureFormatGL(t.desc.Format)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(t.desc.Width), int32(t.desc.Height), 0, format, xtype, gl.Ptr(pixels))
	if t.desc.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// Resize drops the current storage; the next Upload allocates the new size.
func (t *Texture) Resize(w, h int) error {
	if t.disposed {
		return gfx.ErrDisposed
	}
	if w == t.desc.Width && h == t.desc.Height {
		return nil
	}
	if w <= 0 || h <= 0 || (t.dev.maxTexture > 0 && max(w, h) > t.dev.maxTexture) {
		return fmt.Errorf("gl: invalid texture size %dx%d", w, h)
	}
	t.desc.Width, t.desc.Height = w, h
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
	return nil
}

func (t *Texture) Bind(unit int) error {
	if !t.IsInitialized() {
		return gfx.ErrNotInitialized
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	return nil
}

func (t *Texture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}
