// Package mesh implements a read-only polygon mesh with precomputed
// vertex/edge/face adjacency. Elements are addressed by integer ids into
// arena slices so the adjacency graph holds no pointer cycles.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/gregory/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// VertexID, EdgeID and FaceID index the element arenas of a Mesh.
type (
	VertexID int32
	EdgeID   int32
	FaceID   int32
)

// Sentinel ids for absent elements.
const (
	NoVertex VertexID = -1
	NoEdge   EdgeID   = -1
	NoFace   FaceID   = -1
)

var (
	ErrDanglingVertex = errors.New("mesh: dangling vertex reference")
	ErrDegenerateFace = errors.New("mesh: degenerate face")
	ErrBadPosition    = errors.New("mesh: non-finite vertex position")
	ErrNotIncident    = errors.New("mesh: element not incident")
)

// TopologyError reports an adjacency query that cannot be answered
// because the queried elements are not related the way the caller assumed.
type TopologyError struct {
	Op     string
	Vertex VertexID
	Edge   EdgeID
	Face   FaceID
	Err    error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%s(v=%d, e=%d, f=%d): %s", e.Op, e.Vertex, e.Edge, e.Face, e.Err)
}

func (e *TopologyError) Unwrap() error { return e.Err }

// Mesh is an immutable polygon mesh. All methods are safe for concurrent use.
type Mesh struct {
	name      string
	positions []r3.Vec
	bb        d3.Box

	// Vertices of face f are faceVerts[faceStart[f]:faceStart[f+1]].
	// faceEdges runs parallel to faceVerts: the kth edge joins vertex k and k+1.
	faceStart []int32
	faceVerts []VertexID
	faceEdges []EdgeID

	edges     [][2]VertexID
	edgeStart []int32
	edgeFaces []FaceID

	vertEdgeStart []int32
	vertEdges     []EdgeID
	vertFaceStart []int32
	vertFaces     []FaceID
}

// New builds a mesh from vertex positions and faces given as ordered lists
// of indices into positions. Malformed input is reported here and never
// during later traversal.
func New(name string, positions []r3.Vec, faces [][]int) (*Mesh, error) {
	return NewWithEdges(name, positions, faces, nil)
}

// NewWithEdges is like New but also accepts loose edges which need not
// belong to any face. Loose edges count toward vertex valence and are
// boundary edges.
func NewWithEdges(name string, positions []r3.Vec, faces [][]int, looseEdges [][2]int) (*Mesh, error) {
	nv := len(positions)
	bb := d3.Empty()
	for i, p := range positions {
		if !finite(p) {
			return nil, fmt.Errorf("vertex %d: %w", i, ErrBadPosition)
		}
		bb = bb.Include(p)
	}
	if nv == 0 {
		bb = d3.Box{}
	}
	m := &Mesh{
		name:      name,
		positions: append([]r3.Vec(nil), positions...),
		bb:        bb,
		faceStart: make([]int32, 1, len(faces)+1),
	}

	edgeIdx := make(map[[2]VertexID]EdgeID)
	var (
		edgeFaceLists [][]FaceID
		vertEdgeLists = make([][]EdgeID, nv)
		vertFaceLists = make([][]FaceID, nv)
	)
	getEdge := func(a, b VertexID) EdgeID {
		key := [2]VertexID{a, b}
		if a > b {
			key = [2]VertexID{b, a}
		}
		e, ok := edgeIdx[key]
		if !ok {
			e = EdgeID(len(m.edges))
			edgeIdx[key] = e
			m.edges = append(m.edges, [2]VertexID{a, b})
			edgeFaceLists = append(edgeFaceLists, nil)
			vertEdgeLists[a] = append(vertEdgeLists[a], e)
			vertEdgeLists[b] = append(vertEdgeLists[b], e)
		}
		return e
	}

	for fi, face := range faces {
		if len(face) < 3 {
			return nil, fmt.Errorf("face %d has %d vertices: %w", fi, len(face), ErrDegenerateFace)
		}
		for k, vi := range face {
			if vi < 0 || vi >= nv {
				return nil, fmt.Errorf("face %d references vertex %d of %d: %w", fi, vi, nv, ErrDanglingVertex)
			}
			for _, vj := range face[:k] {
				if vi == vj {
					return nil, fmt.Errorf("face %d repeats vertex %d: %w", fi, vi, ErrDegenerateFace)
				}
			}
		}
		f := FaceID(fi)
		for k, vi := range face {
			a := VertexID(vi)
			b := VertexID(face[(k+1)%len(face)])
			e := getEdge(a, b)
			m.faceVerts = append(m.faceVerts, a)
			m.faceEdges = append(m.faceEdges, e)
			edgeFaceLists[e] = append(edgeFaceLists[e], f)
			vertFaceLists[a] = append(vertFaceLists[a], f)
		}
		m.faceStart = append(m.faceStart, int32(len(m.faceVerts)))
	}

	for i, le := range looseEdges {
		a, b := le[0], le[1]
		if a < 0 || a >= nv || b < 0 || b >= nv {
			return nil, fmt.Errorf("loose edge %d references vertex outside [0,%d): %w", i, nv, ErrDanglingVertex)
		}
		if a == b {
			return nil, fmt.Errorf("loose edge %d is a loop on vertex %d: %w", i, a, ErrDegenerateFace)
		}
		getEdge(VertexID(a), VertexID(b))
	}

	m.edgeStart, m.edgeFaces = flatten(edgeFaceLists)
	m.vertEdgeStart, m.vertEdges = flatten(vertEdgeLists)
	m.vertFaceStart, m.vertFaces = flatten(vertFaceLists)
	return m, nil
}

// flatten packs a list of lists into compressed row storage.
func flatten[T any](lists [][]T) (start []int32, data []T) {
	start = make([]int32, len(lists)+1)
	n := 0
	for i, l := range lists {
		n += len(l)
		start[i+1] = int32(n)
	}
	data = make([]T, 0, n)
	for _, l := range lists {
		data = append(data, l...)
	}
	return start, data
}

func finite(v r3.Vec) bool {
	return !(math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) ||
		math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0))
}

// Name returns the object name the mesh was built with.
func (m *Mesh) Name() string { return m.name }

// NumVertices returns the vertex count. Vertex ids are 0..NumVertices()-1.
func (m *Mesh) NumVertices() int { return len(m.positions) }

// NumEdges returns the count of unique edges, loose edges included.
func (m *Mesh) NumEdges() int { return len(m.edges) }

// NumFaces returns the face count.
func (m *Mesh) NumFaces() int { return len(m.faceStart) - 1 }

// Bounds returns the axis aligned bounding box of all vertex positions.
// It is empty for a mesh without vertices.
func (m *Mesh) Bounds() r3.Box { return r3.Box(m.bb) }

// Position returns the location of vertex v.
func (m *Mesh) Position(v VertexID) r3.Vec { return m.positions[v] }

// VertexEdges returns the edges incident to v. The returned slice must not be modified.
func (m *Mesh) VertexEdges(v VertexID) []EdgeID {
	return m.vertEdges[m.vertEdgeStart[v]:m.vertEdgeStart[v+1]]
}

// VertexFaces returns the faces incident to v. The returned slice must not be modified.
func (m *Mesh) VertexFaces(v VertexID) []FaceID {
	return m.vertFaces[m.vertFaceStart[v]:m.vertFaceStart[v+1]]
}

// Valence returns the number of edges incident to v.
func (m *Mesh) Valence(v VertexID) int {
	return int(m.vertEdgeStart[v+1] - m.vertEdgeStart[v])
}

// EdgeVertices returns the endpoints of e in the order they were first seen.
func (m *Mesh) EdgeVertices(e EdgeID) [2]VertexID { return m.edges[e] }

// EdgeFaces returns the faces incident to e. Manifold interior edges have
// exactly two. The returned slice must not be modified.
func (m *Mesh) EdgeFaces(e EdgeID) []FaceID {
	return m.edgeFaces[m.edgeStart[e]:m.edgeStart[e+1]]
}

// IsBoundary reports whether e has fewer than two incident faces.
func (m *Mesh) IsBoundary(e EdgeID) bool { return m.edgeStart[e+1]-m.edgeStart[e] < 2 }

// IsManifold reports whether e has exactly two incident faces.
func (m *Mesh) IsManifold(e EdgeID) bool { return m.edgeStart[e+1]-m.edgeStart[e] == 2 }

// OtherVertex returns the endpoint of e that is not v.
func (m *Mesh) OtherVertex(e EdgeID, v VertexID) (VertexID, error) {
	ev := m.edges[e]
	switch v {
	case ev[0]:
		return ev[1], nil
	case ev[1]:
		return ev[0], nil
	}
	return NoVertex, &TopologyError{Op: "OtherVertex", Vertex: v, Edge: e, Face: NoFace, Err: ErrNotIncident}
}

// OtherFace returns the face across e from f. It returns NoFace when e is a
// boundary edge or is shared by more than two faces. An error is returned
// only when f is not incident to e.
func (m *Mesh) OtherFace(e EdgeID, f FaceID) (FaceID, error) {
	faces := m.EdgeFaces(e)
	idx := -1
	for i, g := range faces {
		if g == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return NoFace, &TopologyError{Op: "OtherFace", Vertex: NoVertex, Edge: e, Face: f, Err: ErrNotIncident}
	}
	if len(faces) != 2 {
		return NoFace, nil
	}
	return faces[1-idx], nil
}

// EdgeBetween returns the edge joining a and b.
func (m *Mesh) EdgeBetween(a, b VertexID) (EdgeID, bool) {
	for _, e := range m.VertexEdges(a) {
		ev := m.edges[e]
		if (ev[0] == a && ev[1] == b) || (ev[0] == b && ev[1] == a) {
			return e, true
		}
	}
	return NoEdge, false
}

// FaceVertices returns the ordered vertices of f. The returned slice must not be modified.
func (m *Mesh) FaceVertices(f FaceID) []VertexID {
	return m.faceVerts[m.faceStart[f]:m.faceStart[f+1]]
}

// FaceEdges returns the edges of f. Edge k joins FaceVertices(f)[k] and
// FaceVertices(f)[k+1] (cyclically). The returned slice must not be modified.
func (m *Mesh) FaceEdges(f FaceID) []EdgeID {
	return m.faceEdges[m.faceStart[f]:m.faceStart[f+1]]
}

// EdgeCenter returns the midpoint of e.
func (m *Mesh) EdgeCenter(e EdgeID) r3.Vec {
	ev := m.edges[e]
	return r3.Scale(0.5, r3.Add(m.positions[ev[0]], m.positions[ev[1]]))
}

// FaceCenter returns the average of the vertex positions of f.
func (m *Mesh) FaceCenter(f FaceID) r3.Vec {
	var sum r3.Vec
	verts := m.FaceVertices(f)
	for _, v := range verts {
		sum = r3.Add(sum, m.positions[v])
	}
	return r3.Scale(1/float64(len(verts)), sum)
}
