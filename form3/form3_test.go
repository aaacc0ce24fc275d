package form3_test

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/gregory"
	"github.com/soypat/gregory/form3"
	"github.com/soypat/gregory/mesh"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestShapeErrors(t *testing.T) {
	cube, err := form3.Cube(2)
	require.NoError(t, err)
	for name, build := range map[string]func() (*mesh.Mesh, error){
		"grid":    func() (*mesh.Mesh, error) { return form3.Grid(0, 1, 1, 1) },
		"cube":    func() (*mesh.Mesh, error) { return form3.Cube(-1) },
		"pyramid": func() (*mesh.Mesh, error) { return form3.Pyramid(1, 0) },
		"torus":   func() (*mesh.Mesh, error) { return form3.Torus(1, 2, 8, 8) },
		"tube":    func() (*mesh.Mesh, error) { return form3.Tube(1, 1, 2, 2) },
		"scale":   func() (*mesh.Mesh, error) { return form3.Scale(cube, r3.Vec{}, r3.Vec{X: 1, Y: 0, Z: 1}) },
		"rotate":  func() (*mesh.Mesh, error) { return form3.Rotate(cube, r3.Vec{}, 1) },
		"mirror":  func() (*mesh.Mesh, error) { return form3.Mirror(cube, r3.Vec{}, r3.Vec{}) },
	} {
		m, err := build()
		require.Nil(t, m, name)
		var shapeErr *form3.ShapeError
		require.True(t, errors.As(err, &shapeErr), "%s: %v", name, err)
	}
	_, err = form3.Grid(1, 1, -1, 1)
	var shapeErr *form3.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	require.NotEmpty(t, shapeErr.Stack())
}

func TestTransforms(t *testing.T) {
	const tol = 1e-12
	cube, err := form3.Cube(2)
	require.NoError(t, err)
	corner := cube.Position(1)
	require.Equal(t, r3.Vec{X: 1, Y: -1, Z: -1}, corner)

	moved, err := form3.Translate(cube, r3.Vec{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	require.Equal(t, r3.Vec{X: 2, Y: 1, Z: 2}, moved.Position(1))
	require.Equal(t, cube.FaceVertices(3), moved.FaceVertices(3))

	scaled, err := form3.Scale(cube, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 2, Y: 2, Z: 2})
	require.NoError(t, err)
	requireNear(t, r3.Vec{X: 1, Y: -3, Z: -3}, scaled.Position(1), tol)

	rotated, err := form3.Rotate(cube, r3.Vec{Z: 1}, math.Pi/2)
	require.NoError(t, err)
	requireNear(t, r3.Vec{X: 1, Y: 1, Z: -1}, rotated.Position(1), tol)
	requireOutward(t, rotated)

	mirrored, err := form3.Mirror(cube, r3.Vec{X: 0.5}, r3.Vec{X: 2})
	require.NoError(t, err)
	requireNear(t, r3.Vec{X: 0, Y: -1, Z: -1}, mirrored.Position(1), tol)
	requireNear(t, r3.Vec{X: 2, Y: -1, Z: -1}, mirrored.Position(0), tol)
	require.Equal(t, []mesh.VertexID{0, 1, 3, 2}, mirrored.FaceVertices(0))
	requireOutward(t, mirrored)

	patches, st, err := gregory.Patches(mirrored, gregory.Config{})
	require.NoError(t, err)
	require.Len(t, patches, 6)
	require.Equal(t, 6, st.Patches)
}

func TestShapes(t *testing.T) {
	for _, test := range []struct {
		build    func() (*mesh.Mesh, error)
		name     string
		vertices int
		faces    int
	}{
		{build: func() (*mesh.Mesh, error) { return form3.Grid(3, 2, 1, 1) }, name: "grid3x2", vertices: 12, faces: 6},
		{build: func() (*mesh.Mesh, error) { return form3.Cube(1) }, name: "cube", vertices: 8, faces: 6},
		{build: func() (*mesh.Mesh, error) { return form3.Pyramid(1, 1) }, name: "pyramid", vertices: 5, faces: 5},
		{build: func() (*mesh.Mesh, error) { return form3.Torus(3, 1, 8, 6) }, name: "torus8x6", vertices: 48, faces: 48},
		{build: func() (*mesh.Mesh, error) { return form3.Tube(1, 2, 8, 3) }, name: "tube8x3", vertices: 24, faces: 16},
	} {
		m, err := test.build()
		require.NoError(t, err, test.name)
		require.Equal(t, test.name, m.Name())
		require.Equal(t, test.vertices, m.NumVertices(), test.name)
		require.Equal(t, test.faces, m.NumFaces(), test.name)
	}
}

// requireOutward checks every face of a closed convex mesh centered at
// its bounds center has a normal pointing away from that center.
func requireOutward(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	bb := m.Bounds()
	center := r3.Scale(0.5, r3.Add(bb.Min, bb.Max))
	for f := 0; f < m.NumFaces(); f++ {
		v := m.FaceVertices(mesh.FaceID(f))
		p0, p1, p3 := m.Position(v[0]), m.Position(v[1]), m.Position(v[len(v)-1])
		n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p3, p0))
		out := r3.Sub(m.FaceCenter(mesh.FaceID(f)), center)
		require.Greater(t, r3.Dot(n, out), 0.0, "face %d points inward", f)
	}
}

func requireNear(t *testing.T, want, got r3.Vec, tol float64) {
	t.Helper()
	d := r3.Sub(want, got)
	if math.Abs(d.X) > tol || math.Abs(d.Y) > tol || math.Abs(d.Z) > tol {
		t.Fatalf("want %v, got %v", want, got)
	}
}
