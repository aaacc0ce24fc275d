//go:build gl

package gpueval

import (
	"errors"
	"strings"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Control points are read from image unit 0, samples from unit 1 and
// results are written to unit 2. One invocation computes one point.
const shaderSource = `#shader compute
#version 430
layout(local_size_x = 1, local_size_y = 1, local_size_z = 1) in;
layout(rgba32f, binding = 0) uniform image2D in_ctrl;
layout(rgba32f, binding = 1) uniform image2D in_uv;
layout(rgba32f, binding = 2) uniform image2D out_pos;

vec3 ctrl(int base, int i) {
	return imageLoad(in_ctrl, ivec2(base + i, 0)).xyz;
}

vec3 blend(vec3 a, vec3 b, float wa, float wb) {
	float d = wa + wb;
	if (d == 0.0) {
		return 0.5 * (a + b);
	}
	return (wa * a + wb * b) / d;
}

vec4 bern(float t) {
	float s = 1.0 - t;
	return vec4(s*s*s, 3.0*t*s*s, 3.0*t*t*s, t*t*t);
}

void main() {
	int gid = int(gl_GlobalInvocationID.x);
	int nuv = imageSize(in_uv).x;
	int pid = gid / nuv;
	vec2 t = imageLoad(in_uv, ivec2(gid - pid*nuv, 0)).xy;
	float u = t.x;
	float v = t.y;
	int o = pid * 20;
	vec3 g[16];
	g[0] = ctrl(o, 0);  g[1] = ctrl(o, 4);  g[2] = ctrl(o, 9);  g[3] = ctrl(o, 1);
	g[4] = ctrl(o, 8);
	g[5] = blend(ctrl(o, 12), ctrl(o, 16), u, v);
	g[6] = blend(ctrl(o, 17), ctrl(o, 13), 1.0-u, v);
	g[7] = ctrl(o, 5);
	g[8] = ctrl(o, 7);
	g[9] = blend(ctrl(o, 19), ctrl(o, 15), u, 1.0-v);
	g[10] = blend(ctrl(o, 14), ctrl(o, 18), 1.0-u, 1.0-v);
	g[11] = ctrl(o, 10);
	g[12] = ctrl(o, 3); g[13] = ctrl(o, 11); g[14] = ctrl(o, 6); g[15] = ctrl(o, 2);
	vec4 bu = bern(u);
	vec4 bv = bern(v);
	vec3 p = vec3(0.0);
	for (int i = 0; i < 4; i++) {
		for (int j = 0; j < 4; j++) {
			p += bu[i] * bv[j] * g[4*i+j];
		}
	}
	imageStore(out_pos, ivec2(gid, 0), vec4(p, 1.0));
}
`

// GPU evaluates patches with an OpenGL 4.3+ compute shader. A current GL
// context is required on the calling thread.
type GPU struct {
	prog glgl.Program
}

var _ Evaluator = (*GPU)(nil)

// NewGPU compiles the evaluation program.
func NewGPU() (*GPU, error) {
	combinedSource, err := glgl.ParseCombined(strings.NewReader(shaderSource))
	if err != nil {
		return nil, err
	}
	glprog, err := glgl.CompileProgram(combinedSource)
	if err != nil {
		return nil, errors.New(string(combinedSource.Compute) + "\n" + err.Error())
	}
	return &GPU{prog: glprog}, nil
}

// Evaluate implements Evaluator. Inputs are uploaded as one texture row
// each so sizes are bounded by the maximum texture width.
func (g *GPU) Evaluate(dst []ms3.Vec, patches []ms3.Vec, uv []ms2.Vec) error {
	if err := checkSizes(dst, patches, uv); err != nil {
		return err
	}
	g.prog.Bind()
	ctrlCfg := texConfig(len(patches))
	if _, err := glgl.NewTextureFromImage(ctrlCfg, patches); err != nil {
		return err
	}
	uvCfg := texConfig(len(uv))
	uvCfg.Format = gl.RG
	uvCfg.ImageUnit = 1
	if _, err := glgl.NewTextureFromImage(uvCfg, uv); err != nil {
		return err
	}
	outCfg := texConfig(len(dst))
	outCfg.Access = glgl.WriteOnly
	outCfg.ImageUnit = 2
	outTex, err := glgl.NewTextureFromImage(outCfg, dst)
	if err != nil {
		return err
	}
	if err := g.prog.RunCompute(len(dst), 1, 1); err != nil {
		return err
	}
	return glgl.GetImage(dst, outTex, outCfg)
}

// texConfig returns a read-only single row RGB float texture on image unit 0.
func texConfig(width int) glgl.TextureImgConfig {
	return glgl.TextureImgConfig{
		Type:           glgl.Texture2D,
		Width:          width,
		Height:         1,
		Access:         glgl.ReadOnly,
		Format:         gl.RGB,
		MinFilter:      gl.NEAREST,
		MagFilter:      gl.NEAREST,
		Xtype:          gl.FLOAT,
		InternalFormat: gl.RGBA32F,
		ImageUnit:      0,
	}
}
