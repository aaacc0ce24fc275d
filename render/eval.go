package render

import (
	"github.com/soypat/gregory"
	"gonum.org/v1/gonum/spatial/r3"
)

// bernstein returns the cubic Bernstein basis at t.
func bernstein(t float64) [4]float64 {
	s := 1 - t
	return [4]float64{s * s * s, 3 * t * s * s, 3 * t * t * s, t * t * t}
}

// EvalBezier evaluates a bicubic Bézier patch with row-major control grid
// p at (u, v). Rows advance with u.
func EvalBezier(p *[16]r3.Vec, u, v float64) r3.Vec {
	bu, bv := bernstein(u), bernstein(v)
	var sum r3.Vec
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum = r3.Add(sum, r3.Scale(bu[i]*bv[j], p[4*i+j]))
		}
	}
	return sum
}

// EvalGregory evaluates a Gregory patch at (u, v). Corner P0 is at the
// origin of the parameter square, P1 at v=1, P2 at u=v=1 and P3 at u=1.
func EvalGregory(p *gregory.Patch, u, v float64) r3.Vec {
	var g [16]r3.Vec
	gregoryBezier(p, u, v, &g)
	return EvalBezier(&g, u, v)
}

// gregoryBezier writes into g the Bézier grid equivalent to p at (u, v),
// blending each pair of twist points rationally.
func gregoryBezier(p *gregory.Patch, u, v float64, g *[16]r3.Vec) {
	*g = [16]r3.Vec{
		p[0], p[4], p[9], p[1],
		p[8], twist(p[12], p[16], u, v), twist(p[17], p[13], 1-u, v), p[5],
		p[7], twist(p[19], p[15], u, 1-v), twist(p[14], p[18], 1-u, 1-v), p[10],
		p[3], p[11], p[6], p[2],
	}
}

// twist returns (a*wa + b*wb)/(wa + wb). At the parameter corner where both
// weights vanish the midpoint is returned.
func twist(a, b r3.Vec, wa, wb float64) r3.Vec {
	d := wa + wb
	if d == 0 {
		return r3.Scale(0.5, r3.Add(a, b))
	}
	return r3.Scale(1/d, r3.Add(r3.Scale(wa, a), r3.Scale(wb, b)))
}
