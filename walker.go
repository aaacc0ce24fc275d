package gregory

import (
	"errors"
	"fmt"

	"github.com/soypat/gregory/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Topology is the read-only adjacency interface the kernel walks.
// *mesh.Mesh implements it.
type Topology interface {
	Name() string
	NumFaces() int
	Position(v mesh.VertexID) r3.Vec
	Valence(v mesh.VertexID) int
	VertexEdges(v mesh.VertexID) []mesh.EdgeID
	VertexFaces(v mesh.VertexID) []mesh.FaceID
	EdgeFaces(e mesh.EdgeID) []mesh.FaceID
	OtherVertex(e mesh.EdgeID, v mesh.VertexID) (mesh.VertexID, error)
	OtherFace(e mesh.EdgeID, f mesh.FaceID) (mesh.FaceID, error)
	EdgeBetween(a, b mesh.VertexID) (mesh.EdgeID, bool)
	FaceVertices(f mesh.FaceID) []mesh.VertexID
	FaceEdges(f mesh.FaceID) []mesh.EdgeID
	EdgeCenter(e mesh.EdgeID) r3.Vec
	FaceCenter(f mesh.FaceID) r3.Vec
}

var _ Topology = (*mesh.Mesh)(nil)

var (
	// ErrBoundary is returned when a wedge cannot rotate further because
	// there is no face on the far side of an edge.
	ErrBoundary = errors.New("gregory: wedge reached mesh boundary")
	// ErrInconsistent is matched by errors that report adjacency which
	// contradicts itself. These indicate a bug or a corrupted mesh.
	ErrInconsistent = errors.New("gregory: inconsistent mesh adjacency")
	// ErrPinched is returned when the faces around a vertex do not cover
	// all of its edges, as at a vertex shared by two separate face fans
	// or one carrying a loose edge.
	ErrPinched = errors.New("gregory: vertex star does not cover all incident edges")
)

// InconsistencyError describes a wedge rotation that found adjacency
// contradicting the wedge invariant. errors.Is(err, ErrInconsistent) holds.
type InconsistencyError struct {
	W   Wedge
	Op  string
	Err error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s at %v: %s: %s", e.Op, e.W, ErrInconsistent, e.Err)
}

func (e *InconsistencyError) Unwrap() error { return e.Err }

func (e *InconsistencyError) Is(target error) bool { return target == ErrInconsistent }

// Wedge is a cursor over the star of vertex V: V is an endpoint of E and,
// when F is not mesh.NoFace, E is an edge of F.
type Wedge struct {
	V mesh.VertexID
	E mesh.EdgeID
	F mesh.FaceID
}

func (w Wedge) String() string {
	return fmt.Sprintf("(v=%d e=%d f=%d)", w.V, w.E, w.F)
}

// RotateNext moves to the other edge of w.F at w.V and to the face across
// that edge. The returned wedge has F == mesh.NoFace when the new edge is a
// boundary. ErrBoundary is returned when w.F is already mesh.NoFace.
func RotateNext(t Topology, w Wedge) (Wedge, error) {
	if w.F == mesh.NoFace {
		return Wedge{}, ErrBoundary
	}
	en, err := otherEdgeAt(t, w, w.F)
	if err != nil {
		return Wedge{}, err
	}
	fn, err := t.OtherFace(en, w.F)
	if err != nil {
		return Wedge{}, &InconsistencyError{W: w, Op: "RotateNext", Err: err}
	}
	return Wedge{V: w.V, E: en, F: fn}, nil
}

// RotatePrev moves to the face across w.E and to the other edge of that
// face at w.V. ErrBoundary is returned when w.F is mesh.NoFace or w.E is a
// boundary edge.
func RotatePrev(t Topology, w Wedge) (Wedge, error) {
	if w.F == mesh.NoFace {
		return Wedge{}, ErrBoundary
	}
	fp, err := t.OtherFace(w.E, w.F)
	if err != nil {
		return Wedge{}, &InconsistencyError{W: w, Op: "RotatePrev", Err: err}
	}
	if fp == mesh.NoFace {
		return Wedge{}, ErrBoundary
	}
	ep, err := otherEdgeAt(t, w, fp)
	if err != nil {
		return Wedge{}, err
	}
	return Wedge{V: w.V, E: ep, F: fp}, nil
}

// HasNext reports whether RotateNext(t, w) succeeds.
func HasNext(t Topology, w Wedge) bool {
	_, err := RotateNext(t, w)
	return err == nil
}

// otherEdgeAt returns the edge of face f incident to w.V other than w.E.
func otherEdgeAt(t Topology, w Wedge, f mesh.FaceID) (mesh.EdgeID, error) {
	verts := t.FaceVertices(f)
	edges := t.FaceEdges(f)
	n := len(verts)
	for k, v := range verts {
		if v != w.V {
			continue
		}
		// Edge k leaves v, edge k-1 arrives at v.
		out, in := edges[k], edges[(k+n-1)%n]
		switch w.E {
		case out:
			return in, nil
		case in:
			return out, nil
		}
		return mesh.NoEdge, &InconsistencyError{W: w, Op: "otherEdgeAt", Err: &mesh.TopologyError{
			Op: "FaceEdges", Vertex: w.V, Edge: w.E, Face: f, Err: mesh.ErrNotIncident,
		}}
	}
	return mesh.NoEdge, &InconsistencyError{W: w, Op: "otherEdgeAt", Err: &mesh.TopologyError{
		Op: "FaceVertices", Vertex: w.V, Edge: w.E, Face: f, Err: mesh.ErrNotIncident,
	}}
}

// neighborhood walks the star of center starting at the edge toward far
// inside face f. It returns the faces and edges in rotation order along
// with the rotation index of each edge relative to the edge toward far.
// ErrBoundary is returned if the walk leaves the mesh before closing and
// ErrPinched if it closes before visiting every edge of center.
func neighborhood(t Topology, f mesh.FaceID, far, center mesh.VertexID) (F []mesh.FaceID, E []mesh.EdgeID, I []int, err error) {
	e0, ok := t.EdgeBetween(center, far)
	if !ok {
		return nil, nil, nil, &InconsistencyError{W: Wedge{V: center, E: mesh.NoEdge, F: f}, Op: "neighborhood", Err: &mesh.TopologyError{
			Op: "EdgeBetween", Vertex: far, Edge: mesh.NoEdge, Face: f, Err: mesh.ErrNotIncident,
		}}
	}
	w := Wedge{V: center, E: e0, F: f}
	maxSteps := t.Valence(center)
	vc := -1
	for i := 0; ; i++ {
		if i >= maxSteps {
			return nil, nil, nil, &InconsistencyError{W: w, Op: "neighborhood", Err: errors.New("star did not close after valence steps")}
		}
		other, err := t.OtherVertex(w.E, center)
		if err != nil {
			return nil, nil, nil, &InconsistencyError{W: w, Op: "neighborhood", Err: err}
		}
		if other == far {
			vc = i
		}
		E = append(E, w.E)
		F = append(F, w.F)
		w, err = RotateNext(t, w)
		if err != nil {
			return nil, nil, nil, err
		}
		if w.F == mesh.NoFace {
			return nil, nil, nil, fmt.Errorf("star of vertex %d: %w", center, ErrBoundary)
		}
		if w.E == e0 {
			break
		}
	}
	if len(E) != maxSteps {
		return nil, nil, nil, fmt.Errorf("star of vertex %d spans %d of %d edges: %w", center, len(E), maxSteps, ErrPinched)
	}
	I = make([]int, len(E))
	for i := range I {
		I[i] = i - vc
	}
	return F, E, I, nil
}
