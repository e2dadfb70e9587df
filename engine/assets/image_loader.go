package assets

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// TextureCreator is satisfied by resources.Manager.
type TextureCreator interface {
	CreateTexture(name string, desc gfx.TextureDescriptor) (gfx.Texture, error)
}

// DecodePNG returns width, height and tightly packed RGBA8 pixels, top row
// first.
func DecodePNG(r io.Reader) (w, h int, rgba []byte, err error) {
	img, err := png.Decode(r)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode png: %w", err)
	}
	m := imageToRGBA(img)
	w, h = m.Bounds().Dx(), m.Bounds().Dy()

	// Repack in tight rows (stride == 4*w).
	out := make([]byte, w*h*4)
	for y := range h {
		copy(out[y*w*4:(y+1)*w*4], m.Pix[y*m.Stride:y*m.Stride+w*4])
	}
	return w, h, out, nil
}

// LoadPNG reads and decodes the PNG at path.
func LoadPNG(path string) (w, h int, rgba []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()
	w, h, rgba, err = DecodePNG(f)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, h, rgba, nil
}

// LoadTexture decodes the PNG at path into an RGBA texture registered under
// name.
func LoadTexture(res TextureCreator, name, path string) (gfx.Texture, error) {
	w, h, pix, err := LoadPNG(path)
	if err != nil {
		return nil, err
	}
	tex, err := res.CreateTexture(name, gfx.RGBATexture(w, h))
	if err != nil {
		return nil, err
	}
	if err := tex.Upload(pix); err != nil {
		return tex, fmt.Errorf("upload %q: %w", name, err)
	}
	return tex, nil
}

func imageToRGBA(img image.Image) *image.RGBA {
	if m, ok := img.(*image.RGBA); ok && m.Stride == m.Rect.Dx()*4 && m.Rect.Min == (image.Point{}) {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
