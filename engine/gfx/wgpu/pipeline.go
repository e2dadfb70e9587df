package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Pipeline wraps a native render pipeline for one key.
type Pipeline struct {
	dev    *Device
	shader *Shader
	key    gfx.PipelineKey
	native *wgpu.RenderPipeline
}

func (p *Pipeline) Key() gfx.PipelineKey { return p.key }

// Bind makes p the pipeline for the following draws and sets its shader and
// blend mode as current.
func (p *Pipeline) Bind() error {
	if p.native == nil {
		return gfx.ErrDisposed
	}
	if err := p.shader.Bind(); err != nil {
		return err
	}
	p.dev.SetBlendMode(p.key.Blend)
	p.dev.pipeline = p
	return nil
}

func (p *Pipeline) Dispose() {
	if p.native == nil {
		return
	}
	if p.dev.pipeline == p {
		p.dev.pipeline = nil
	}
	p.dev.deferRelease(p.native)
	p.native = nil
}

func (d *Device) CreatePipeline(shader gfx.Shader, desc gfx.BufferDescriptor, mode gfx.DrawMode, blend gfx.BlendMode) (gfx.Pipeline, error) {
	s, ok := shader.(*Shader)
	if !ok {
		return nil, fmt.Errorf("wgpu: foreign shader %T", shader)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	topo, err := topology(mode)
	if err != nil {
		return nil, err
	}
	layout, err := vertexLayout(desc)
	if err != nil {
		return nil, err
	}
	key := gfx.NewPipelineKey(shader, desc, mode, blend)

	native, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  key.String(),
		Layout: d.layouts[s.textured],
		Vertex: wgpu.VertexState{
			Module:     s.module,
			EntryPoint: s.src.VertexEntry,
			Buffers:    []wgpu.VertexBufferLayout{layout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     s.module,
			EntryPoint: s.src.FragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    d.format,
				Blend:     blendState(blend),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topo,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: pipeline %s: %w", key, err)
	}
	return &Pipeline{dev: d, shader: s, key: key, native: native}, nil
}
