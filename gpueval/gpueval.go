// Package gpueval evaluates Gregory patches in single precision, on the CPU
// or with an OpenGL compute shader (build tag gl).
//
// Patches are given as 20 consecutive control points per patch in the
// order produced by the gregory package. Every patch is evaluated at every
// parameter sample: the point of patch p at sample k is stored at
// dst[p*len(uv)+k].
package gpueval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glgl/math/ms3"
)

// PatchPoints is the number of control points of a Gregory patch.
const PatchPoints = 20

// Evaluator evaluates patches over a set of (u,v) samples.
type Evaluator interface {
	Evaluate(dst []ms3.Vec, patches []ms3.Vec, uv []ms2.Vec) error
}

var errEmpty = errors.New("no patches or samples to evaluate")

func checkSizes(dst []ms3.Vec, patches []ms3.Vec, uv []ms2.Vec) error {
	if len(patches) == 0 || len(uv) == 0 {
		return errEmpty
	}
	if len(patches)%PatchPoints != 0 {
		return fmt.Errorf("%d control points is not a multiple of %d", len(patches), PatchPoints)
	}
	if want := len(patches) / PatchPoints * len(uv); len(dst) != want {
		return fmt.Errorf("dst length %d, want %d", len(dst), want)
	}
	for i, p := range patches {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("control point %d of patch %d is not finite", i%PatchPoints, i/PatchPoints)
		}
	}
	return nil
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

// Vecs groups a flat x,y,z position list into vectors.
func Vecs(positions []float32) []ms3.Vec {
	v := make([]ms3.Vec, len(positions)/3)
	for i := range v {
		v[i] = ms3.Vec{X: positions[3*i], Y: positions[3*i+1], Z: positions[3*i+2]}
	}
	return v
}

// UVGrid returns the (n+1)² samples of a regular grid over the unit
// square, u major.
func UVGrid(n int) []ms2.Vec {
	if n < 1 {
		panic("n < 1")
	}
	uv := make([]ms2.Vec, 0, (n+1)*(n+1))
	for a := 0; a <= n; a++ {
		for b := 0; b <= n; b++ {
			uv = append(uv, ms2.Vec{X: float32(a) / float32(n), Y: float32(b) / float32(n)})
		}
	}
	return uv
}

// CPU evaluates patches on the calling goroutine.
type CPU struct{}

var _ Evaluator = CPU{}

// Evaluate implements Evaluator.
func (CPU) Evaluate(dst []ms3.Vec, patches []ms3.Vec, uv []ms2.Vec) error {
	if err := checkSizes(dst, patches, uv); err != nil {
		return err
	}
	for p := 0; p < len(patches)/PatchPoints; p++ {
		P := patches[p*PatchPoints : (p+1)*PatchPoints]
		for k, t := range uv {
			dst[p*len(uv)+k] = evalGregory(P, t.X, t.Y)
		}
	}
	return nil
}

func evalGregory(P []ms3.Vec, u, v float32) ms3.Vec {
	_ = P[19]
	g := [16]ms3.Vec{
		P[0], P[4], P[9], P[1],
		P[8], blend(P[12], P[16], u, v), blend(P[17], P[13], 1-u, v), P[5],
		P[7], blend(P[19], P[15], u, 1-v), blend(P[14], P[18], 1-u, 1-v), P[10],
		P[3], P[11], P[6], P[2],
	}
	bu, bv := bernstein(u), bernstein(v)
	var sum ms3.Vec
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum = ms3.Add(sum, ms3.Scale(bu[i]*bv[j], g[4*i+j]))
		}
	}
	return sum
}

func bernstein(t float32) [4]float32 {
	s := 1 - t
	return [4]float32{s * s * s, 3 * t * s * s, 3 * t * t * s, t * t * t}
}

func blend(a, b ms3.Vec, wa, wb float32) ms3.Vec {
	d := wa + wb
	if d == 0 {
		return ms3.Scale(0.5, ms3.Add(a, b))
	}
	return ms3.Scale(1/d, ms3.Add(ms3.Scale(wa, a), ms3.Scale(wb, b)))
}
