package text

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Built-in families. Anything else is treated as a path to a TTF/OTF file.
const (
	FamilyMono = "mono"
	FamilySans = "sans"
	FamilyBold = "bold"
)

var builtinFonts = map[string][]byte{
	FamilyMono: gomono.TTF,
	FamilySans: goregular.TTF,
	FamilyBold: gobold.TTF,
}

var (
	fontsMu sync.Mutex
	fonts   = map[string]*opentype.Font{}
)

// LoadFont parses a family once and caches the result. The parsed font is
// safe to share between goroutines; faces are not.
func LoadFont(family string) (*opentype.Font, error) {
	key := strings.TrimSpace(family)
	if key == "" {
		key = FamilyMono
	}
	fontsMu.Lock()
	defer fontsMu.Unlock()
	if ft, ok := fonts[key]; ok {
		return ft, nil
	}

	data, ok := builtinFonts[strings.ToLower(key)]
	if !ok {
		var err error
		data, err = os.ReadFile(key)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", key, err)
	}
	fonts[key] = ft
	return ft, nil
}

func newFace(ft *opentype.Font, sizePx int) (font.Face, error) {
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size: float64(sizePx), DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}
