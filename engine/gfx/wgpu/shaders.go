package wgpubackend

import "github.com/hubastard/chartgfx/engine/gfx"

// All built-in modules share one uniform block at group 0. Textured modules
// add a texture and sampler at group 1.
const uniformBlockWGSL = `struct Uniforms {
    projection: mat4x4<f32>,
    color: vec4<f32>,
};

@group(0) @binding(0) var<uniform> u: Uniforms;
`

const defaultWGSL = uniformBlockWGSL + `
struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@location(0) aPosition: vec2<f32>, @location(1) aColor: vec4<f32>) -> VertexOut {
    var out: VertexOut;
    out.position = u.projection * vec4<f32>(aPosition, 0.0, 1.0);
    out.color = aColor;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    return in.color;
}
`

const simpleWGSL = uniformBlockWGSL + `
@vertex
fn vs_main(@location(0) aPosition: vec2<f32>) -> @builtin(position) vec4<f32> {
    return u.projection * vec4<f32>(aPosition, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.color;
}
`

const textWGSL = uniformBlockWGSL + `
@group(1) @binding(0) var glyphs: texture_2d<f32>;
@group(1) @binding(1) var glyphSampler: sampler;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) color: vec4<f32>,
};

@vertex
fn vs_main(
    @location(0) aPosition: vec2<f32>,
    @location(1) aColor: vec4<f32>,
    @location(2) aTexCoord: vec2<f32>,
) -> VertexOut {
    var out: VertexOut;
    out.position = u.projection * vec4<f32>(aPosition, 0.0, 1.0);
    out.uv = aTexCoord;
    out.color = aColor;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    let alpha = textureSample(glyphs, glyphSampler, in.uv).r;
    if alpha < 0.01 {
        discard;
    }
    return vec4<f32>(in.color.rgb, in.color.a * alpha);
}
`

// Shaders returns the built-in WGSL library shared by every WebGPU backend.
func Shaders() gfx.ShaderLibrary {
	return gfx.ShaderLibrary{
		gfx.ShaderDefault: gfx.NewWGSLSource(gfx.ShaderDefault, defaultWGSL),
		gfx.ShaderSimple:  gfx.NewWGSLSource(gfx.ShaderSimple, simpleWGSL),
		gfx.ShaderText:    gfx.NewWGSLSource(gfx.ShaderText, textWGSL),
	}
}
