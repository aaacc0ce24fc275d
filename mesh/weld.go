package mesh

import (
	"errors"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Weld merges vertices that lie within tol of each other and remaps faces
// onto the merged vertices. Each cluster is represented by its lowest
// original index so the result does not depend on kd-tree layout. Faces
// that collapse to fewer than three distinct vertices are removed.
//
// Exporters that split vertices along UV or normal seams produce meshes
// whose faces share no edges; welding restores the adjacency the patch
// kernel needs.
func Weld(positions []r3.Vec, faces [][]int, tol float64) ([]r3.Vec, [][]int, error) {
	welded, remap, err := weldRemap(positions, tol)
	if err != nil || len(positions) == 0 {
		return nil, nil, err
	}
	out, err := remapFaces(faces, remap)
	if err != nil {
		return nil, nil, err
	}
	return welded, out, nil
}

// WeldMesh welds m like [Weld] and rebuilds it. Loose edges survive
// welding unless both endpoints merge into one vertex or the edge
// becomes a face edge.
func WeldMesh(m *Mesh, tol float64) (*Mesh, error) {
	positions := m.positions
	faces := make([][]int, 0, m.NumFaces())
	for fi := 0; fi < m.NumFaces(); fi++ {
		fv := m.FaceVertices(FaceID(fi))
		f := make([]int, len(fv))
		for i, v := range fv {
			f[i] = int(v)
		}
		faces = append(faces, f)
	}
	welded, remap, err := weldRemap(positions, tol)
	if err != nil {
		return nil, err
	}
	out, err := remapFaces(faces, remap)
	if err != nil {
		return nil, err
	}
	var loose [][2]int
	for ei := 0; ei < m.NumEdges(); ei++ {
		e := EdgeID(ei)
		if len(m.EdgeFaces(e)) != 0 {
			continue
		}
		ev := m.EdgeVertices(e)
		a, b := remap[ev[0]], remap[ev[1]]
		if a == b {
			continue
		}
		loose = append(loose, [2]int{a, b})
	}
	return NewWithEdges(m.name, welded, out, loose)
}

// weldRemap returns the welded positions and, for every original
// vertex, its index into them.
func weldRemap(positions []r3.Vec, tol float64) ([]r3.Vec, []int, error) {
	if tol < 0 {
		return nil, nil, errors.New("negative weld tolerance")
	}
	if len(positions) == 0 {
		return nil, nil, nil
	}
	pts := make(weldPoints, len(positions))
	for i, p := range positions {
		pts[i] = weldPoint{V: p, idx: i}
	}
	tree := kdtree.New(pts, false)

	rep := make([]int, len(positions))
	for i, p := range positions {
		rep[i] = i
		keep := kdtree.NewDistKeeper(tol * tol)
		tree.NearestSet(keep, weldPoint{V: p, idx: -1})
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue // Sentinel.
			}
			j := c.Comparable.(weldPoint).idx
			if j < i && rep[j] < rep[i] {
				rep[i] = rep[j]
			}
		}
	}

	remap := make([]int, len(positions))
	var welded []r3.Vec
	for i := range positions {
		if rep[i] == i {
			remap[i] = len(welded)
			welded = append(welded, positions[i])
		}
	}
	for i := range positions {
		remap[i] = remap[rep[i]]
	}
	return welded, remap, nil
}

// remapFaces renames face vertices through remap and drops faces that
// collapse to fewer than three distinct vertices.
func remapFaces(faces [][]int, remap []int) ([][]int, error) {
	out := make([][]int, 0, len(faces))
	for _, f := range faces {
		g := make([]int, 0, len(f))
		for _, vi := range f {
			if vi < 0 || vi >= len(remap) {
				return nil, ErrDanglingVertex
			}
			nv := remap[vi]
			if len(g) > 0 && g[len(g)-1] == nv {
				continue
			}
			g = append(g, nv)
		}
		if len(g) > 1 && g[0] == g[len(g)-1] {
			g = g[:len(g)-1]
		}
		if len(g) < 3 || hasRepeat(g) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func hasRepeat(f []int) bool {
	for i := range f {
		for j := i + 1; j < len(f); j++ {
			if f[i] == f[j] {
				return true
			}
		}
	}
	return false
}

var (
	_ kdtree.Interface  = weldPoints{}
	_ kdtree.Comparable = weldPoint{}
)

// weldPoint is a vertex position which remembers its index in the
// original slice since kdtree.New reorders its input.
type weldPoint struct {
	V   r3.Vec
	idx int
}

func (p weldPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(weldPoint)
	switch d {
	case 0:
		return p.V.X - q.V.X
	case 1:
		return p.V.Y - q.V.Y
	case 2:
		return p.V.Z - q.V.Z
	}
	panic("unreachable")
}

func (p weldPoint) Dims() int { return 3 }

// Distance returns the squared euclidean distance.
func (p weldPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.V, c.(weldPoint).V))
}

type weldPoints []weldPoint

func (w weldPoints) Index(i int) kdtree.Comparable { return w[i] }
func (w weldPoints) Len() int { return len(w) }
func (w weldPoints) Slice(start, end int) kdtree.Interface {
	return w[start:end]
}

func (w weldPoints) Pivot(d kdtree.Dim) int {
	p := weldPlane{dim: d, points: w}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

type weldPlane struct {
	dim    kdtree.Dim
	points weldPoints
}

func (p weldPlane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], p.dim) < 0
}

func (p weldPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p weldPlane) Len() int { return len(p.points) }
func (p weldPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
