// Package form3 builds quad-dominant meshes for patch generation. Invalid
// parameters are reported as errors; see package must3 for variants that
// panic instead.
package form3

import (
	"fmt"
	"runtime/debug"

	"github.com/soypat/gregory/form3/must3"
	"github.com/soypat/gregory/internal/d3"
	"github.com/soypat/gregory/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ShapeError is returned when a shape cannot be built from its parameters.
type ShapeError struct {
	panicObj interface{}
	stack    string
}

func (s *ShapeError) Error() string {
	return fmt.Sprintf("%s", s.panicObj)
}

// Stack returns the stack trace at which the shape failed to build.
func (s *ShapeError) Stack() string { return s.stack }

func recoverShape(err *error) {
	if a := recover(); a != nil {
		*err = &ShapeError{
			panicObj: a,
			stack:    string(debug.Stack()),
		}
	}
}

// Grid returns a flat nx by ny grid of quads in the z=0 plane.
func Grid(nx, ny int, dx, dy float64) (m *mesh.Mesh, err error) {
	defer recoverShape(&err)
	return must3.Grid(nx, ny, dx, dy), err
}

// Cube returns an axis aligned cube of side size centered at the origin.
func Cube(size float64) (m *mesh.Mesh, err error) {
	defer recoverShape(&err)
	return must3.Cube(size), err
}

// Pyramid returns a square pyramid: one quad base and four triangles.
func Pyramid(base, height float64) (m *mesh.Mesh, err error) {
	defer recoverShape(&err)
	return must3.Pyramid(base, height), err
}

// Torus returns a closed quad torus around the z axis.
func Torus(R, r float64, nu, nv int) (m *mesh.Mesh, err error) {
	defer recoverShape(&err)
	return must3.Torus(R, r, nu, nv), err
}

// Tube returns an open quad cylinder with rings vertex rings of n vertices.
func Tube(radius, height float64, n, rings int) (m *mesh.Mesh, err error) {
	defer recoverShape(&err)
	return must3.Tube(radius, height, n, rings), err
}

// Translate returns a copy of m moved by v.
func Translate(m *mesh.Mesh, v r3.Vec) (*mesh.Mesh, error) {
	return transform(m, d3.Transform{}.Translate(v))
}

// Scale returns a copy of m scaled by factor about origin.
func Scale(m *mesh.Mesh, origin, factor r3.Vec) (*mesh.Mesh, error) {
	if d3.LTEZero(factor) {
		return nil, &ShapeError{panicObj: "scale factor <= 0"}
	}
	return transform(m, d3.Transform{}.Scale(origin, factor))
}

// Mirror returns a copy of m reflected through the plane through origin
// with the given normal. Faces are rewound to keep their orientation.
func Mirror(m *mesh.Mesh, origin, normal r3.Vec) (*mesh.Mesh, error) {
	if normal == (r3.Vec{}) {
		return nil, &ShapeError{panicObj: "zero mirror normal"}
	}
	n := r3.Unit(normal)
	d := 2 * r3.Dot(origin, n)
	return transform(m, d3.NewTransform([]float64{
		1 - 2*n.X*n.X, -2 * n.X * n.Y, -2 * n.X * n.Z, d * n.X,
		-2 * n.Y * n.X, 1 - 2*n.Y*n.Y, -2 * n.Y * n.Z, d * n.Y,
		-2 * n.Z * n.X, -2 * n.Z * n.Y, 1 - 2*n.Z*n.Z, d * n.Z,
		0, 0, 0, 1,
	}))
}

// Rotate returns a copy of m rotated by angle radians about axis through
// the origin.
func Rotate(m *mesh.Mesh, axis r3.Vec, angle float64) (*mesh.Mesh, error) {
	if axis == (r3.Vec{}) {
		return nil, &ShapeError{panicObj: "zero rotation axis"}
	}
	q := r3.NewRotation(angle, r3.Unit(axis))
	return transform(m, d3.ComposeTransform(r3.Vec{}, d3.Elem(1), q))
}

func transform(m *mesh.Mesh, t d3.Transform) (out *mesh.Mesh, err error) {
	defer recoverShape(&err)
	return must3.Transform(m, t), err
}
