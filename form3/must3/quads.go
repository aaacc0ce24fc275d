// Package must3 builds quad-dominant test and demo meshes. Functions panic
// on invalid parameters; see package form3 for error returning variants.
package must3

import (
	"fmt"
	"math"

	"github.com/soypat/gregory/internal/d3"
	"github.com/soypat/gregory/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Grid returns a flat nx by ny grid of quads in the z=0 plane with its
// first vertex at the origin. Faces are ordered row by row.
func Grid(nx, ny int, dx, dy float64) *mesh.Mesh {
	if nx < 1 || ny < 1 {
		panic("nx < 1 || ny < 1")
	}
	if dx <= 0 || dy <= 0 {
		panic("dx <= 0 || dy <= 0")
	}
	pos := make([]r3.Vec, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			pos = append(pos, r3.Vec{X: float64(i) * dx, Y: float64(j) * dy})
		}
	}
	at := func(i, j int) int { return j*(nx+1) + i }
	faces := make([][]int, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			faces = append(faces, []int{at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)})
		}
	}
	return build(fmt.Sprintf("grid%dx%d", nx, ny), pos, faces)
}

// Cube returns an axis aligned cube of side size centered at the origin.
// Faces are wound counter-clockwise seen from outside, in the order
// -z, +z, -y, +y, -x, +x. Vertex i has coordinate signs given by its
// bits: bit 0 is x, bit 1 is y, bit 2 is z.
func Cube(size float64) *mesh.Mesh {
	if size <= 0 {
		panic("size <= 0")
	}
	h := size / 2
	pos := make([]r3.Vec, 8)
	for i := range pos {
		pos[i] = r3.Vec{X: sign(i&1 != 0) * h, Y: sign(i&2 != 0) * h, Z: sign(i&4 != 0) * h}
	}
	faces := [][]int{
		{0, 2, 3, 1}, {4, 5, 7, 6},
		{0, 1, 5, 4}, {2, 6, 7, 3},
		{0, 4, 6, 2}, {1, 3, 7, 5},
	}
	return build("cube", pos, faces)
}

// Pyramid returns a square pyramid with its base centered at the origin.
// The base is the first face and the only quad; the four sides are triangles.
func Pyramid(base, height float64) *mesh.Mesh {
	if base <= 0 || height <= 0 {
		panic("base <= 0 || height <= 0")
	}
	h := base / 2
	pos := []r3.Vec{
		{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h},
		{Z: height},
	}
	faces := [][]int{
		{0, 3, 2, 1},
		{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4},
	}
	return build("pyramid", pos, faces)
}

// Torus returns a closed torus around the z axis with major radius R and
// minor radius r, sampled nu times around the axis and nv times around
// the tube. Every vertex has valence 4.
func Torus(R, r float64, nu, nv int) *mesh.Mesh {
	if r <= 0 || R <= r {
		panic("r <= 0 || R <= r")
	}
	if nu < 3 || nv < 3 {
		panic("nu < 3 || nv < 3")
	}
	pos := make([]r3.Vec, 0, nu*nv)
	for i := 0; i < nu; i++ {
		su, cu := math.Sincos(2 * math.Pi * float64(i) / float64(nu))
		for j := 0; j < nv; j++ {
			sv, cv := math.Sincos(2 * math.Pi * float64(j) / float64(nv))
			rho := R + r*cv
			pos = append(pos, r3.Vec{X: rho * cu, Y: rho * su, Z: r * sv})
		}
	}
	at := func(i, j int) int { return (i%nu)*nv + j%nv }
	faces := make([][]int, 0, nu*nv)
	for i := 0; i < nu; i++ {
		for j := 0; j < nv; j++ {
			faces = append(faces, []int{at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)})
		}
	}
	return build(fmt.Sprintf("torus%dx%d", nu, nv), pos, faces)
}

// Tube returns an open cylinder around the z axis from z=0 to z=height
// made of rings vertex rings of n vertices each. Its two end rings are
// mesh boundaries.
func Tube(radius, height float64, n, rings int) *mesh.Mesh {
	if radius <= 0 || height <= 0 {
		panic("radius <= 0 || height <= 0")
	}
	if n < 3 || rings < 2 {
		panic("n < 3 || rings < 2")
	}
	pos := make([]r3.Vec, 0, n*rings)
	for k := 0; k < rings; k++ {
		z := height * float64(k) / float64(rings-1)
		for s := 0; s < n; s++ {
			sa, ca := math.Sincos(2 * math.Pi * float64(s) / float64(n))
			pos = append(pos, r3.Vec{X: radius * ca, Y: radius * sa, Z: z})
		}
	}
	at := func(k, s int) int { return k*n + s%n }
	faces := make([][]int, 0, n*(rings-1))
	for k := 0; k < rings-1; k++ {
		for s := 0; s < n; s++ {
			faces = append(faces, []int{at(k, s), at(k, s+1), at(k+1, s+1), at(k+1, s)})
		}
	}
	return build(fmt.Sprintf("tube%dx%d", n, rings), pos, faces)
}

// Transform returns a copy of m with every vertex mapped through t.
// Face order is unchanged. Faces are rewound when t mirrors space so
// they keep facing outward.
func Transform(m *mesh.Mesh, t d3.Transform) *mesh.Mesh {
	pos := make([]r3.Vec, m.NumVertices())
	for i := range pos {
		pos[i] = t.Transform(m.Position(mesh.VertexID(i)))
	}
	mirror := t.Det() < 0
	faces := make([][]int, m.NumFaces())
	for f := range faces {
		verts := m.FaceVertices(mesh.FaceID(f))
		n := len(verts)
		faces[f] = make([]int, n)
		for k, v := range verts {
			if mirror {
				// Keep the first vertex, reverse the rest.
				k = (n - k) % n
			}
			faces[f][k] = int(v)
		}
	}
	return build(m.Name(), pos, faces)
}

func build(name string, pos []r3.Vec, faces [][]int) *mesh.Mesh {
	m, err := mesh.New(name, pos, faces)
	if err != nil {
		panic(err)
	}
	return m
}

func sign(positive bool) float64 {
	if positive {
		return 1
	}
	return -1
}
