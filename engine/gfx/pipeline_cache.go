package gfx

import (
	"errors"
	"fmt"
	"log/slog"
)

// PipelineKey identifies a pipeline configuration. Shader compares by identity.
type PipelineKey struct {
	Shader Shader
	Layout uint64
	Mode   DrawMode
	Blend  BlendMode
}

// NewPipelineKey builds the key for a draw configuration.
func NewPipelineKey(shader Shader, desc BufferDescriptor, mode DrawMode, blend BlendMode) PipelineKey {
	return PipelineKey{Shader: shader, Layout: desc.Fingerprint(), Mode: mode, Blend: blend}
}

func (k PipelineKey) String() string {
	name := "<nil>"
	if k.Shader != nil {
		name = k.Shader.Name()
	}
	return fmt.Sprintf("%s/%016x/%s/%s", name, k.Layout, k.Mode, k.Blend)
}

// PipelineBuilder creates a pipeline on a cache miss. Device.CreatePipeline
// satisfies it.
type PipelineBuilder func(shader Shader, desc BufferDescriptor, mode DrawMode, blend BlendMode) (Pipeline, error)

// PipelineCacheStats is a snapshot of cache counters.
type PipelineCacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// PipelineCache memoizes pipelines per key for the lifetime of a surface.
// Equal keys always resolve to the same instance. Entries are never evicted;
// DisposeAll releases everything at teardown. Render thread only.
type PipelineCache struct {
	build     PipelineBuilder
	pipelines map[PipelineKey]Pipeline
	hits      uint64
	misses    uint64
}

func NewPipelineCache(build PipelineBuilder) *PipelineCache {
	return &PipelineCache{build: build, pipelines: make(map[PipelineKey]Pipeline)}
}

// Get returns the cached pipeline for the configuration, building it on the
// first request. Invalid shaders are refused without calling the builder.
func (c *PipelineCache) Get(shader Shader, desc BufferDescriptor, mode DrawMode, blend BlendMode) (Pipeline, error) {
	if shader == nil {
		return nil, errors.New("gfx: pipeline requested without a shader")
	}
	key := NewPipelineKey(shader, desc, mode, blend)
	if p, ok := c.pipelines[key]; ok {
		c.hits++
		return p, nil
	}
	if shader.State() == ShaderInvalid {
		Logger().Error("pipeline refused", slog.String("key", key.String()))
		return nil, fmt.Errorf("pipeline %s: %w", key, ErrInvalidShader)
	}
	c.misses++
	p, err := c.build(shader, desc, mode, blend)
	if err != nil {
		Logger().Error("pipeline build failed", slog.String("key", key.String()), slog.Any("err", err))
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	c.pipelines[key] = p
	Logger().Debug("pipeline created", slog.String("key", key.String()), slog.Int("cached", len(c.pipelines)))
	return p, nil
}

// Len reports the number of cached pipelines.
func (c *PipelineCache) Len() int { return len(c.pipelines) }

func (c *PipelineCache) Stats() PipelineCacheStats {
	return PipelineCacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.pipelines)}
}

// DisposeAll releases every pipeline and empties the cache.
func (c *PipelineCache) DisposeAll() {
	for k, p := range c.pipelines {
		p.Dispose()
		delete(c.pipelines, k)
	}
}
