package glbackend

import "github.com/hubastard/chartgfx/engine/gfx"

// Pipeline is a program plus blend state. GL has no pipeline object, so Bind
// applies both to the context.
type Pipeline struct {
	dev    *Device
	shader *Shader
	key    gfx.PipelineKey
}

func (p *Pipeline) Key() gfx.PipelineKey { return p.key }

func (p *Pipeline) Bind() error {
	if err := p.shader.Bind(); err != nil {
		return err
	}
	p.dev.SetBlendMode(p.key.Blend)
	return nil
}

func (p *Pipeline) Dispose() {}
