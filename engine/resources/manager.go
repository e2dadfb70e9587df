// Package resources owns the named GPU resources of one surface and the queue
// of work other goroutines hand to the render thread.
package resources

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/profiler"
	"github.com/hubastard/chartgfx/engine/text"
)

type disposer interface{ Dispose() }

// Manager is created per surface and, apart from RunOnRenderThread, is used
// only from the render thread.
type Manager struct {
	lib  gfx.ShaderLibrary
	dev  gfx.Device
	opts text.Options

	shaders  map[string]gfx.Shader
	buffers  map[string]gfx.Buffer
	textures map[string]gfx.Texture

	pipelines *gfx.PipelineCache
	text      *text.Renderer

	disposals []disposer

	opsMu sync.Mutex
	ops   []func() error
	spare []func() error
}

// NewManager builds a manager around the backend's shader library. The
// library must provide every name in gfx.WellKnownShaders.
func NewManager(lib gfx.ShaderLibrary) *Manager {
	return &Manager{
		lib:      lib.Clone(),
		shaders:  map[string]gfx.Shader{},
		buffers:  map[string]gfx.Buffer{},
		textures: map[string]gfx.Texture{},
	}
}

// SetTextOptions configures the text renderer created by TextRenderer.
func (m *Manager) SetTextOptions(opts text.Options) { m.opts = opts }

// Init binds the manager to dev and creates the well-known shaders. A library
// missing any of them is rejected before anything is created.
func (m *Manager) Init(dev gfx.Device) error {
	if err := m.lib.Require(gfx.WellKnownShaders...); err != nil {
		return err
	}
	m.dev = dev
	m.pipelines = gfx.NewPipelineCache(dev.CreatePipeline)
	if u, ok := dev.(gfx.PipelineCacheUser); ok {
		u.UsePipelineCache(m.pipelines)
	}
	for _, name := range gfx.WellKnownShaders {
		m.shaders[name] = dev.CreateShader(m.lib[name])
	}
	gfx.Logger().Info("resources initialized",
		slog.String("backend", dev.Backend().String()),
		slog.Int("shaders", len(m.shaders)))
	return nil
}

func (m *Manager) IsInitialized() bool { return m.dev != nil }

func (m *Manager) Device() gfx.Device { return m.dev }

// Library returns the shader sources the manager was built with.
func (m *Manager) Library() gfx.ShaderLibrary { return m.lib }

// Shader returns the named shader or nil.
func (m *Manager) Shader(name string) gfx.Shader { return m.shaders[name] }

// RegisterShader stores s under name. A shader previously registered under
// the same name is disposed on the next ProcessPending, so draws already
// recorded this frame keep a live program.
func (m *Manager) RegisterShader(name string, s gfx.Shader) {
	if old, ok := m.shaders[name]; ok && old != s {
		m.disposals = append(m.disposals, old)
	}
	m.shaders[name] = s
}

// CreateShader compiles src on the device and registers it under src.Name.
func (m *Manager) CreateShader(src gfx.ShaderSource) (gfx.Shader, error) {
	if m.dev == nil {
		return nil, gfx.ErrNotInitialized
	}
	if src.Name == "" {
		return nil, errors.New("resources: shader source has no name")
	}
	m.lib[src.Name] = src
	s := m.dev.CreateShader(src)
	m.RegisterShader(src.Name, s)
	return s, nil
}

// GetOrCreateBuffer returns the buffer registered under name, creating it from
// desc on first request.
func (m *Manager) GetOrCreateBuffer(name string, desc gfx.BufferDescriptor) (gfx.Buffer, error) {
	if b, ok := m.buffers[name]; ok {
		return b, nil
	}
	if m.dev == nil {
		return nil, gfx.ErrNotInitialized
	}
	b := m.dev.CreateBuffer(desc)
	m.buffers[name] = b
	return b, nil
}

// Buffer returns the named buffer or nil.
func (m *Manager) Buffer(name string) gfx.Buffer { return m.buffers[name] }

// DisposeBuffer unregisters name and disposes the buffer on the next
// ProcessPending.
func (m *Manager) DisposeBuffer(name string) {
	if b, ok := m.buffers[name]; ok {
		delete(m.buffers, name)
		m.disposals = append(m.disposals, b)
	}
}

// CreateTexture creates and registers a texture. An existing texture under the
// same name is disposed on the next ProcessPending.
func (m *Manager) CreateTexture(name string, desc gfx.TextureDescriptor) (gfx.Texture, error) {
	if m.dev == nil {
		return nil, gfx.ErrNotInitialized
	}
	t := m.dev.CreateTexture(desc)
	m.RegisterTexture(name, t)
	return t, nil
}

// RegisterTexture stores t under name with the same deferred disposal as
// RegisterShader.
func (m *Manager) RegisterTexture(name string, t gfx.Texture) {
	if old, ok := m.textures[name]; ok && old != t {
		m.disposals = append(m.disposals, old)
	}
	m.textures[name] = t
}

// Texture returns the named texture or nil.
func (m *Manager) Texture(name string) gfx.Texture { return m.textures[name] }

// DisposeTexture unregisters name and disposes the texture on the next
// ProcessPending.
func (m *Manager) DisposeTexture(name string) {
	if t, ok := m.textures[name]; ok {
		delete(m.textures, name)
		m.disposals = append(m.disposals, t)
	}
}

// Pipeline returns the cached pipeline for the tuple, building it on a miss.
func (m *Manager) Pipeline(shader gfx.Shader, desc gfx.BufferDescriptor, mode gfx.DrawMode, blend gfx.BlendMode) (gfx.Pipeline, error) {
	if m.pipelines == nil {
		return nil, gfx.ErrNotInitialized
	}
	return m.pipelines.Get(shader, desc, mode, blend)
}

// PipelineCache exposes the cache for stats.
func (m *Manager) PipelineCache() *gfx.PipelineCache { return m.pipelines }

// TextRenderer returns the manager's text renderer, creating it on first use.
func (m *Manager) TextRenderer() *text.Renderer {
	if m.text == nil {
		m.text = text.NewRenderer(m, m.opts)
	}
	return m.text
}

// RunOnRenderThread queues op for the next ProcessPending. Safe to call from
// any goroutine.
func (m *Manager) RunOnRenderThread(op func() error) {
	if op == nil {
		return
	}
	m.opsMu.Lock()
	m.ops = append(m.ops, op)
	m.opsMu.Unlock()
}

// PendingOps reports queued operations.
func (m *Manager) PendingOps() int {
	m.opsMu.Lock()
	defer m.opsMu.Unlock()
	return len(m.ops)
}

// PendingDisposals reports resources waiting for ProcessPending.
func (m *Manager) PendingDisposals() int { return len(m.disposals) }

// ProcessPending runs queued operations in submission order, then disposes
// replaced resources. Call once per frame on the render thread. Operation
// errors are logged and do not stop the queue; the first one is returned.
func (m *Manager) ProcessPending() error {
	defer profiler.Start("resources.ProcessPending")()

	m.opsMu.Lock()
	ops := m.ops
	m.ops = m.spare[:0]
	m.opsMu.Unlock()

	var first error
	for i, op := range ops {
		if err := op(); err != nil {
			gfx.Logger().Error("render-thread op failed", slog.Int("index", i), slog.Any("err", err))
			if first == nil {
				first = err
			}
		}
		ops[i] = nil
	}
	m.spare = ops[:0]

	for i, d := range m.disposals {
		d.Dispose()
		m.disposals[i] = nil
	}
	m.disposals = m.disposals[:0]
	return first
}

// Dispose releases pipelines first, then every registered resource, then
// anything still pending. The device itself belongs to the caller.
func (m *Manager) Dispose() {
	if m.pipelines != nil {
		if u, ok := m.dev.(gfx.PipelineCacheUser); ok {
			u.UsePipelineCache(nil)
		}
		m.pipelines.DisposeAll()
	}
	if m.text != nil {
		m.text.Dispose()
		m.text = nil
	}
	for name, s := range m.shaders {
		s.Dispose()
		delete(m.shaders, name)
	}
	for name, b := range m.buffers {
		b.Dispose()
		delete(m.buffers, name)
	}
	for name, t := range m.textures {
		t.Dispose()
		delete(m.textures, name)
	}
	for _, d := range m.disposals {
		d.Dispose()
	}
	m.disposals = nil

	m.opsMu.Lock()
	if n := len(m.ops); n > 0 {
		gfx.Logger().Warn("dropping queued render-thread ops", slog.Int("count", n))
	}
	m.ops = nil
	m.opsMu.Unlock()
	m.dev = nil
}

// Stats summarizes what the manager holds.
func (m *Manager) Stats() string {
	var pc gfx.PipelineCacheStats
	if m.pipelines != nil {
		pc = m.pipelines.Stats()
	}
	return fmt.Sprintf("shaders=%d buffers=%d textures=%d pipelines=%d (hits=%d misses=%d)",
		len(m.shaders), len(m.buffers), len(m.textures), pc.Size, pc.Hits, pc.Misses)
}
