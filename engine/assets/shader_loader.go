// Package assets loads images and shader sources from disk and watches shader
// directories for edits.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Shader file extensions. GLSL shaders are a .vert/.frag pair, WGSL shaders a
// single module with vs_main and fs_main.
const (
	extVertex   = ".vert"
	extFragment = ".frag"
	extWGSL     = ".wgsl"
)

// UsesWGSL reports whether backends of kind read WGSL sources.
func UsesWGSL(kind gfx.Backend) bool { return kind != gfx.BackendOpenGL }

// LoadShader reads the named shader from dir in the given family.
func LoadShader(dir, name string, wgsl bool) (gfx.ShaderSource, error) {
	if wgsl {
		b, err := os.ReadFile(filepath.Join(dir, name+extWGSL))
		if err != nil {
			return gfx.ShaderSource{}, fmt.Errorf("load shader %q: %w", name, err)
		}
		return gfx.NewWGSLSource(name, string(b)), nil
	}
	vs, err := os.ReadFile(filepath.Join(dir, name+extVertex))
	if err != nil {
		return gfx.ShaderSource{}, fmt.Errorf("load shader %q: %w", name, err)
	}
	frag, err := os.ReadFile(filepath.Join(dir, name+extFragment))
	if err != nil {
		return gfx.ShaderSource{}, fmt.Errorf("load shader %q: %w", name, err)
	}
	return gfx.NewGLSLSource(name, string(vs), string(frag)), nil
}

// shaderName maps a file name to the shader it belongs to, or "" when the
// file is not a shader of the family.
func shaderName(file string, wgsl bool) string {
	ext := filepath.Ext(file)
	switch {
	case wgsl && ext == extWGSL, !wgsl && (ext == extVertex || ext == extFragment):
		return strings.TrimSuffix(filepath.Base(file), ext)
	}
	return ""
}

// LoadShaderDir reads every shader of the family in dir. A GLSL shader with
// only one of its two stages is an error. A missing dir yields an empty
// library.
func LoadShaderDir(dir string, wgsl bool) (gfx.ShaderLibrary, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return gfx.ShaderLibrary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("shader dir: %w", err)
	}
	lib := gfx.ShaderLibrary{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := shaderName(e.Name(), wgsl)
		if name == "" {
			continue
		}
		if _, done := lib[name]; done {
			continue
		}
		src, err := LoadShader(dir, name, wgsl)
		if err != nil {
			return nil, err
		}
		lib[name] = src
	}
	return lib, nil
}

// Override copies every source in overrides into lib.
func Override(lib, overrides gfx.ShaderLibrary) {
	for name, src := range overrides {
		lib[name] = src
	}
}
