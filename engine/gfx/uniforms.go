package gfx

import (
	"sort"

	"github.com/hubastard/chartgfx/engine/colors"
)

// UniformKind is the GLSL/WGSL type of a staged uniform.
type UniformKind int

const (
	UniformInt UniformKind = iota
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
)

// Floats returns the number of float slots the kind occupies.
func (k UniformKind) Floats() int {
	switch k {
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	case UniformMat4:
		return 16
	default:
		return 1
	}
}

// UniformValue is one staged value. Only the first Kind.Floats() entries of F
// are meaningful. I holds UniformInt values.
type UniformValue struct {
	Kind  UniformKind
	I     int32
	F     [16]float32
	dirty bool
}

// UniformSet stages uniform values in memory until a flush. Backends embed it
// in their shader type so the setters are promoted.
type UniformSet struct {
	values  map[string]*UniformValue
	ndirty  int
	flushes int
}

func (u *UniformSet) stage(name string, v UniformValue) {
	if u.values == nil {
		u.values = make(map[string]*UniformValue)
	}
	cur, ok := u.values[name]
	if !ok {
		v.dirty = true
		u.values[name] = &v
		u.ndirty++
		return
	}
	if cur.Kind == v.Kind && cur.I == v.I && cur.F == v.F {
		return
	}
	wasDirty := cur.dirty
	*cur = v
	cur.dirty = true
	if !wasDirty {
		u.ndirty++
	}
}

func (u *UniformSet) SetUniform1i(name string, v int32) {
	u.stage(name, UniformValue{Kind: UniformInt, I: v})
}

func (u *UniformSet) SetUniform1f(name string, x float32) {
	u.stage(name, UniformValue{Kind: UniformFloat, F: [16]float32{x}})
}

func (u *UniformSet) SetUniform2f(name string, x, y float32) {
	u.stage(name, UniformValue{Kind: UniformVec2, F: [16]float32{x, y}})
}

func (u *UniformSet) SetUniform3f(name string, x, y, z float32) {
	u.stage(name, UniformValue{Kind: UniformVec3, F: [16]float32{x, y, z}})
}

func (u *UniformSet) SetUniform4f(name string, x, y, z, w float32) {
	u.stage(name, UniformValue{Kind: UniformVec4, F: [16]float32{x, y, z, w}})
}

// SetUniformMatrix4 stages a column-major 4x4 matrix.
func (u *UniformSet) SetUniformMatrix4(name string, m [16]float32) {
	u.stage(name, UniformValue{Kind: UniformMat4, F: m})
}

// SetUniformColor stages c as a vec4.
func (u *UniformSet) SetUniformColor(name string, c colors.Color) {
	u.SetUniform4f(name, c[0], c[1], c[2], c[3])
}

// Uniform returns the staged value for name.
func (u *UniformSet) Uniform(name string) (UniformValue, bool) {
	v, ok := u.values[name]
	if !ok {
		return UniformValue{}, false
	}
	return *v, true
}

// DirtyCount reports how many staged values have not been flushed.
func (u *UniformSet) DirtyCount() int { return u.ndirty }

// FlushCount reports how many flushes have run since creation.
func (u *UniformSet) FlushCount() int { return u.flushes }

// Drain calls fn for every dirty value in name order, then clears the dirty
// flags. Backends call it from their FlushUniforms.
func (u *UniformSet) Drain(fn func(name string, v UniformValue)) {
	u.flushes++
	if u.ndirty == 0 {
		return
	}
	names := make([]string, 0, u.ndirty)
	for n, v := range u.values {
		if v.dirty {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		v := u.values[n]
		v.dirty = false
		fn(n, *v)
	}
	u.ndirty = 0
}

// Each calls fn for every staged value regardless of dirty state.
func (u *UniformSet) Each(fn func(name string, v UniformValue)) {
	for n, v := range u.values {
		fn(n, *v)
	}
}

// MarkAllDirty forces the next Drain to push every value, e.g. after the
// native program was recreated.
func (u *UniformSet) MarkAllDirty() {
	u.ndirty = 0
	for _, v := range u.values {
		v.dirty = true
		u.ndirty++
	}
}
