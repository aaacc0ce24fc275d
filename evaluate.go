package gregory

import (
	"math"

	"github.com/soypat/gregory/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sigma returns the tangent-mask face coefficient for valence n,
// (4 + cos²(π/n))^(-1/2).
func Sigma(n int) float64 {
	c := math.Cos(math.Pi / float64(n))
	return 1 / math.Sqrt(4+c*c)
}

// Lambda returns the subdominant eigenvalue of Catmull-Clark subdivision
// at a vertex of valence n.
func Lambda(n int) float64 {
	fn := float64(n)
	c1 := math.Cos(math.Pi / fn)
	c2 := math.Cos(2 * math.Pi / fn)
	return (5 + c2 + c1*math.Sqrt(18+2*c2)) / 16
}

// CornerPoint returns the Catmull-Clark limit position of interior vertex v.
func CornerPoint(t Topology, v mesh.VertexID) r3.Vec {
	n := float64(t.Valence(v))
	var sum r3.Vec
	for _, e := range t.VertexEdges(v) {
		sum = r3.Add(sum, t.EdgeCenter(e))
	}
	for _, f := range t.VertexFaces(v) {
		sum = r3.Add(sum, t.FaceCenter(f))
	}
	return r3.Add(
		r3.Scale((n-3)/(n+5), t.Position(v)),
		r3.Scale(4/(n*(n+5)), sum),
	)
}

// TangentPoint returns the Bézier edge control point next to corner c on
// the edge of face f pointing toward vertex toward.
func TangentPoint(t Topology, f mesh.FaceID, c, toward mesh.VertexID) (r3.Vec, error) {
	F, E, I, err := neighborhood(t, f, toward, c)
	if err != nil {
		return r3.Vec{}, err
	}
	n := float64(t.Valence(c))
	cosn := math.Cos(math.Pi / n)
	sigma := Sigma(t.Valence(c))
	lambda := Lambda(t.Valence(c))

	var q r3.Vec
	for k, e := range E {
		i := float64(I[k])
		w := (1 - sigma*cosn) * math.Cos(2*math.Pi*i/n)
		q = r3.Add(q, r3.Scale(w, t.EdgeCenter(e)))
	}
	for k, face := range F {
		i := float64(I[k])
		w := 2 * sigma * math.Cos((2*math.Pi*i+math.Pi)/n)
		q = r3.Add(q, r3.Scale(w, t.FaceCenter(face)))
	}
	q = r3.Scale(2/n, q)
	return r3.Add(CornerPoint(t, c), r3.Scale(2.0/3*lambda, q)), nil
}

// twistR returns the cross-boundary correction for corner c of face f on
// the edge toward v: the difference between the far sides of the two faces
// sharing that edge.
func twistR(t Topology, f mesh.FaceID, v, c mesh.VertexID) (r3.Vec, error) {
	e, ok := t.EdgeBetween(v, c)
	if !ok {
		return r3.Vec{}, &InconsistencyError{W: Wedge{V: c, E: mesh.NoEdge, F: f}, Op: "twistR", Err: &mesh.TopologyError{
			Op: "EdgeBetween", Vertex: v, Edge: mesh.NoEdge, Face: f, Err: mesh.ErrNotIncident,
		}}
	}
	w := Wedge{V: c, E: e, F: f}
	prev, err := RotatePrev(t, w)
	if err != nil {
		return r3.Vec{}, err
	}
	next, err := RotateNext(t, w)
	if err != nil {
		return r3.Vec{}, err
	}
	dc := r3.Sub(t.FaceCenter(f), t.FaceCenter(prev.F))
	dm := r3.Sub(t.EdgeCenter(next.E), t.EdgeCenter(prev.E))
	return r3.Add(r3.Scale(1.0/3, dc), r3.Scale(2.0/3, dm)), nil
}
