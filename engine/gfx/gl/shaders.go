package glbackend

import "github.com/hubastard/chartgfx/engine/gfx"

const defaultVertex = `#version 150
in vec2 aPosition;
in vec4 aColor;

uniform mat4 uProjection;

out vec4 vColor;

void main() {
    gl_Position = uProjection * vec4(aPosition, 0.0, 1.0);
    vColor = aColor;
}
`

const defaultFragment = `#version 150
in vec4 vColor;

out vec4 fragColor;

void main() {
    fragColor = vColor;
}
`

const simpleVertex = `#version 150
in vec2 aPosition;

uniform mat4 uProjection;

void main() {
    gl_Position = uProjection * vec4(aPosition, 0.0, 1.0);
}
`

const simpleFragment = `#version 150
uniform vec4 uColor;

out vec4 fragColor;

void main() {
    fragColor = uColor;
}
`

const textVertex = `#version 150
in vec2 aPosition;
in vec2 aTexCoord;
in vec4 aColor;

uniform mat4 uProjection;

out vec2 vTexCoord;
out vec4 vColor;

void main() {
    gl_Position = uProjection * vec4(aPosition, 0.0, 1.0);
    vTexCoord = aTexCoord;
    vColor = aColor;
}
`

const textFragment = `#version 150
in vec2 vTexCoord;
in vec4 vColor;

uniform sampler2D uTexture;

out vec4 fragColor;

void main() {
    float alpha = texture(uTexture, vTexCoord).r;
    if (alpha < 0.01) discard;
    fragColor = vec4(vColor.rgb, vColor.a * alpha);
}
`

// Shaders returns the GLSL library with the well-known programs.
func Shaders() gfx.ShaderLibrary {
	return gfx.ShaderLibrary{
		gfx.ShaderDefault: gfx.NewGLSLSource(gfx.ShaderDefault, defaultVertex, defaultFragment),
		gfx.ShaderSimple:  gfx.NewGLSLSource(gfx.ShaderSimple, simpleVertex, simpleFragment),
		gfx.ShaderText:    gfx.NewGLSLSource(gfx.ShaderText, textVertex, textFragment),
	}
}
