package gregory_test

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/gregory"
	"github.com/soypat/gregory/form3/must3"
	"github.com/soypat/gregory/internal/d3"
	"github.com/soypat/gregory/mesh"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-12

func requireVecNear(t *testing.T, want, got r3.Vec, msgAndArgs ...interface{}) {
	t.Helper()
	if !d3.EqualWithin(want, got, tol) {
		require.Failf(t, "vectors differ", "want %v, got %v %v", want, got, msgAndArgs)
	}
}

func TestCoefficients(t *testing.T) {
	require.InDelta(t, 0.5, gregory.Lambda(4), tol)
	require.InDelta(t, math.Sqrt2/3, gregory.Sigma(4), tol)
	require.InDelta(t, (4.5+0.5*math.Sqrt(17))/16, gregory.Lambda(3), tol)
	for n := 3; n < 12; n++ {
		l := gregory.Lambda(n)
		require.True(t, l > 0 && l < 1, "lambda(%d)=%g", n, l)
	}
}

// A regular interior face of a flat grid reproduces the Bézier net of the
// uniform bicubic B-spline.
func TestRegularGridPatch(t *testing.T) {
	m := must3.Grid(3, 3, 1, 0.5)
	patches, st, err := gregory.Patches(m, gregory.Config{})
	require.NoError(t, err)
	require.Len(t, patches, 1)
	require.Equal(t, gregory.Stats{Faces: 9, Quads: 9, Boundary: 8, Patches: 1}, st)

	const center = 4
	verts := m.FaceVertices(center)
	var v [4]r3.Vec
	for i := range v {
		v[i] = m.Position(verts[i])
	}
	third := func(i, j int) r3.Vec { return r3.Scale(1.0/3, r3.Sub(v[j], v[i])) }
	p := &patches[0]
	for i := 0; i < 4; i++ {
		next, prev := (i+1)%4, (i+3)%4
		inner := r3.Add(v[i], r3.Add(third(i, next), third(i, prev)))
		requireVecNear(t, v[i], p.Corner(i), "P%d", i)
		requireVecNear(t, r3.Add(v[i], third(i, next)), p.EdgePlus(i), "Ep%d", i)
		requireVecNear(t, r3.Add(v[i], third(i, prev)), p.EdgeMinus(i), "Em%d", i)
		requireVecNear(t, inner, p.FacePlus(i), "Fp%d", i)
		requireVecNear(t, inner, p.FaceMinus(i), "Fm%d", i)
	}
}

func TestCubePatches(t *testing.T) {
	m := must3.Cube(2)
	patches, st, err := gregory.Patches(m, gregory.Config{Workers: 3})
	require.NoError(t, err)
	require.Len(t, patches, 6)
	require.Equal(t, 6, st.Patches)
	require.Zero(t, st.Anomalies)

	for f := range patches {
		for i, v := range m.FaceVertices(mesh.FaceID(f)) {
			// Limit position of a valence 3 cube corner is halfway to the center.
			requireVecNear(t, r3.Scale(0.5, m.Position(v)), patches[f].Corner(i), "face %d corner %d", f, i)
		}
	}

	// The top face is symmetric under a quarter turn about z which maps
	// corner i to corner i+1.
	const top = 1
	rot := func(v r3.Vec) r3.Vec { return r3.Vec{X: -v.Y, Y: v.X, Z: v.Z} }
	p := patches[top]
	for g := 0; g < 5; g++ {
		for i := 0; i < 4; i++ {
			requireVecNear(t, p[4*g+(i+1)%4], rot(p[4*g+i]), "group %d index %d", g, i)
		}
	}
}

func TestSkippedFaces(t *testing.T) {
	quad, err := mesh.New("quad", []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}, [][]int{{0, 1, 2, 3}})
	require.NoError(t, err)

	cube := must3.Cube(2)
	var pos []r3.Vec
	for v := 0; v < cube.NumVertices(); v++ {
		pos = append(pos, cube.Position(mesh.VertexID(v)))
	}
	splitCube, err := mesh.New("splitcube", pos, [][]int{
		{0, 2, 3}, {0, 3, 1},
		{4, 5, 7, 6},
		{0, 1, 5, 4}, {2, 6, 7, 3},
		{0, 4, 6, 2}, {1, 3, 7, 5},
	})
	require.NoError(t, err)

	for _, test := range []struct {
		m    *mesh.Mesh
		want gregory.Stats
	}{
		{m: quad, want: gregory.Stats{Faces: 1, Quads: 1, Boundary: 1}},
		{m: must3.Pyramid(2, 1), want: gregory.Stats{Faces: 5, Quads: 1, NonQuad: 4, Patches: 1}},
		{m: splitCube, want: gregory.Stats{Faces: 7, Quads: 5, NonQuad: 2, Patches: 5}},
		{m: must3.Torus(3, 1, 8, 6), want: gregory.Stats{Faces: 48, Quads: 48, Patches: 48}},
		// Only bands whose both rings are interior qualify.
		{m: must3.Tube(1, 3, 8, 6), want: gregory.Stats{Faces: 40, Quads: 40, Boundary: 16, Patches: 24}},
	} {
		patches, st, err := gregory.Patches(test.m, gregory.Config{})
		require.NoError(t, err, test.m.Name())
		require.Equal(t, test.want, st, test.m.Name())
		require.Len(t, patches, test.want.Patches, test.m.Name())
	}
}

func TestPinchedVertex(t *testing.T) {
	// Two cubes touching at a single corner. Every edge has two faces but
	// the shared corner's star is two separate fans of three faces.
	a := must3.Cube(2)
	var pos []r3.Vec
	var faces [][]int
	hi, lo := 0, 0
	for v := 0; v < a.NumVertices(); v++ {
		p := a.Position(mesh.VertexID(v))
		pos = append(pos, p)
		if p.X+p.Y+p.Z > 2.5 {
			hi = v
		}
		if p.X+p.Y+p.Z < -2.5 {
			lo = v
		}
	}
	shift := r3.Sub(a.Position(mesh.VertexID(hi)), a.Position(mesh.VertexID(lo)))
	remap := make([]int, a.NumVertices())
	for v := range remap {
		if v == lo {
			remap[v] = hi
			continue
		}
		remap[v] = len(pos)
		pos = append(pos, r3.Add(a.Position(mesh.VertexID(v)), shift))
	}
	for f := 0; f < a.NumFaces(); f++ {
		var fa, fb []int
		for _, v := range a.FaceVertices(mesh.FaceID(f)) {
			fa = append(fa, int(v))
			fb = append(fb, remap[v])
		}
		faces = append(faces, fa, fb)
	}
	m, err := mesh.New("bowtie", pos, faces)
	require.NoError(t, err)
	require.Equal(t, 15, m.NumVertices())
	require.Equal(t, 6, m.Valence(mesh.VertexID(hi)))

	patches, st, err := gregory.Patches(m, gregory.Config{})
	require.NoError(t, err)
	require.Equal(t, gregory.Stats{Faces: 12, Quads: 12, Anomalies: 6, Patches: 6}, st)
	require.Len(t, patches, 6)

	for f := 0; f < m.NumFaces(); f++ {
		touches := false
		for _, v := range m.FaceVertices(mesh.FaceID(f)) {
			touches = touches || int(v) == hi
		}
		if !touches {
			continue
		}
		require.True(t, gregory.Eligible(m, mesh.FaceID(f)))
		_, err := gregory.MakePatch(m, mesh.FaceID(f))
		require.ErrorIs(t, err, gregory.ErrPinched, "face %d", f)
		require.False(t, errors.Is(err, gregory.ErrBoundary))
	}
}

func TestPatchOrderAndDeterminism(t *testing.T) {
	m := must3.Torus(3, 1, 7, 5)
	serial, _, err := gregory.Patches(m, gregory.Config{Workers: 1})
	require.NoError(t, err)
	parallel, _, err := gregory.Patches(m, gregory.Config{Workers: 16})
	require.NoError(t, err)
	require.Equal(t, serial, parallel)
	again, _, err := gregory.Patches(m, gregory.Config{Workers: 16})
	require.NoError(t, err)
	require.Equal(t, parallel, again)

	for f := range serial {
		for i, v := range m.FaceVertices(mesh.FaceID(f)) {
			require.Equal(t, gregory.CornerPoint(m, v), serial[f].Corner(i))
		}
	}
}

func TestMakePatchNotQuad(t *testing.T) {
	m := must3.Pyramid(2, 1)
	_, err := gregory.MakePatch(m, 1)
	require.ErrorIs(t, err, gregory.ErrNotQuad)
	require.False(t, gregory.Eligible(m, 1))
	require.True(t, gregory.Eligible(m, 0))
}

type recordWriter struct {
	name      string
	typ       gregory.PatchType
	positions []float32
	err       error
}

func (w *recordWriter) WritePatches(name string, typ gregory.PatchType, positions []float32) error {
	w.name, w.typ, w.positions = name, typ, positions
	return w.err
}

func TestConvert(t *testing.T) {
	m := must3.Cube(2)
	var w recordWriter
	st, err := gregory.Convert(m, &w, gregory.Config{})
	require.NoError(t, err)
	require.Equal(t, "cube", w.name)
	require.Equal(t, gregory.TypeGregory, w.typ)
	require.Len(t, w.positions, 60*st.Patches)
	// First patch, first corner.
	p0 := gregory.CornerPoint(m, m.FaceVertices(0)[0])
	require.Equal(t, []float32{float32(p0.X), float32(p0.Y), float32(p0.Z)}, w.positions[:3])

	w.err = errors.New("disk full")
	_, err = gregory.Convert(m, &w, gregory.Config{})
	require.ErrorIs(t, err, w.err)
}

// boundaryTopology reports every edge as a boundary during traversal while
// still passing the eligibility check.
type boundaryTopology struct{ *mesh.Mesh }

func (boundaryTopology) OtherFace(mesh.EdgeID, mesh.FaceID) (mesh.FaceID, error) {
	return mesh.NoFace, nil
}

// brokenTopology fails every face-across query.
type brokenTopology struct{ *mesh.Mesh }

func (b brokenTopology) OtherFace(e mesh.EdgeID, f mesh.FaceID) (mesh.FaceID, error) {
	return mesh.NoFace, &mesh.TopologyError{Op: "OtherFace", Vertex: mesh.NoVertex, Edge: e, Face: f, Err: mesh.ErrNotIncident}
}

func TestTraversalFailures(t *testing.T) {
	cube := must3.Cube(2)

	patches, st, err := gregory.Patches(boundaryTopology{cube}, gregory.Config{})
	require.NoError(t, err)
	require.Empty(t, patches)
	require.Equal(t, 6, st.Anomalies)

	_, _, err = gregory.Patches(brokenTopology{cube}, gregory.Config{})
	require.ErrorIs(t, err, gregory.ErrInconsistent)
	require.ErrorIs(t, err, mesh.ErrNotIncident)
}

func TestPatchType(t *testing.T) {
	for _, typ := range []gregory.PatchType{gregory.TypeGregory, gregory.TypeBezier} {
		got, err := gregory.ParsePatchType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, got)
	}
	require.Equal(t, 20, gregory.TypeGregory.Points())
	require.Equal(t, 16, gregory.TypeBezier.Points())
	_, err := gregory.ParsePatchType("nurbs")
	require.Error(t, err)
}
