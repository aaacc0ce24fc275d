package gregory

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/soypat/gregory/mesh"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNotQuad is returned by MakePatch for faces that do not have 4 vertices.
var ErrNotQuad = errors.New("gregory: face is not a quad")

// Config controls patch generation. The zero value is ready to use.
type Config struct {
	// Workers bounds the number of faces processed concurrently.
	// Zero or negative uses runtime.GOMAXPROCS(0).
	Workers int
}

// Stats summarizes one patch generation run.
type Stats struct {
	Faces     int // faces in the mesh
	Quads     int // faces with exactly 4 vertices
	NonQuad   int // faces discarded for not being quads
	Boundary  int // quads discarded for a boundary, non-manifold or low valence corner
	Anomalies int // eligible quads abandoned because traversal hit a boundary or pinched vertex
	Patches   int // patches emitted
}

// Eligible reports whether face f gets a patch: it must be a quad whose
// corners all have valence of at least 3 and whose corners' incident
// edges are all shared by exactly two faces.
func Eligible(t Topology, f mesh.FaceID) bool {
	verts := t.FaceVertices(f)
	if len(verts) != 4 {
		return false
	}
	for _, v := range verts {
		if t.Valence(v) < 3 {
			return false
		}
		for _, e := range t.VertexEdges(v) {
			if len(t.EdgeFaces(e)) != 2 {
				return false
			}
		}
	}
	return true
}

// MakePatch builds the Gregory patch of quad face f. It does not check
// eligibility; a face touching a boundary fails with ErrBoundary and one
// touching a pinched vertex with ErrPinched.
func MakePatch(t Topology, f mesh.FaceID) (Patch, error) {
	verts := t.FaceVertices(f)
	if len(verts) != 4 {
		return Patch{}, fmt.Errorf("face %d has %d vertices: %w", f, len(verts), ErrNotQuad)
	}
	var (
		p      [4]r3.Vec
		ep, em [4]r3.Vec
		fp, fm [4]r3.Vec
		err    error
	)
	for i, v := range verts {
		p[i] = CornerPoint(t, v)
	}
	for i, c := range verts {
		ep[i], err = TangentPoint(t, f, c, verts[(i+1)%4])
		if err != nil {
			return Patch{}, err
		}
		em[i], err = TangentPoint(t, f, c, verts[(i+3)%4])
		if err != nil {
			return Patch{}, err
		}
	}
	// The divisor is the number of sides minus one, always 3 for quads.
	const d = 3
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		ci, cj := verts[i], verts[j]
		c0 := math.Cos(2 * math.Pi / float64(t.Valence(ci)))
		c1 := math.Cos(2 * math.Pi / float64(t.Valence(cj)))
		r0, err := twistR(t, f, cj, ci)
		if err != nil {
			return Patch{}, err
		}
		r1, err := twistR(t, f, ci, cj)
		if err != nil {
			return Patch{}, err
		}
		fp[i] = r3.Scale(1.0/d, sum4(
			r3.Scale(c1, p[i]),
			r3.Scale(d-2*c0-c1, ep[i]),
			r3.Scale(2*c0, em[j]),
			r0,
		))
		fm[j] = r3.Scale(1.0/d, sum4(
			r3.Scale(c0, p[j]),
			r3.Scale(d-2*c1-c0, em[j]),
			r3.Scale(2*c1, ep[i]),
			r1,
		))
	}
	var patch Patch
	copy(patch[0:4], p[:])
	copy(patch[4:8], ep[:])
	copy(patch[8:12], em[:])
	copy(patch[12:16], fp[:])
	copy(patch[16:20], fm[:])
	return patch, nil
}

func sum4(a, b, c, d r3.Vec) r3.Vec {
	return r3.Add(r3.Add(a, b), r3.Add(c, d))
}

// Patches builds the patches of every eligible face of t. Faces are
// processed concurrently; the result keeps the face order of t.
// A face whose traversal unexpectedly reaches a boundary is skipped and
// logged. Inconsistent adjacency aborts the run.
func Patches(t Topology, cfg Config) ([]Patch, Stats, error) {
	st := Stats{Faces: t.NumFaces()}
	var tasks []mesh.FaceID
	for i := 0; i < st.Faces; i++ {
		f := mesh.FaceID(i)
		if len(t.FaceVertices(f)) != 4 {
			st.NonQuad++
			continue
		}
		st.Quads++
		if !Eligible(t, f) {
			st.Boundary++
			continue
		}
		tasks = append(tasks, f)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Patch, len(tasks))
	done := make([]bool, len(tasks))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range tasks {
		i, f := i, f
		g.Go(func() error {
			patch, err := MakePatch(t, f)
			switch {
			case errors.Is(err, ErrBoundary):
				Logger().Warn("face abandoned: traversal reached boundary",
					slogMesh(t), "face", f, "err", err)
				return nil
			case errors.Is(err, ErrPinched):
				Logger().Warn("face abandoned: non-manifold vertex",
					slogMesh(t), "face", f, "err", err)
				return nil
			case err != nil:
				return fmt.Errorf("mesh %q face %d: %w", t.Name(), f, err)
			}
			results[i] = patch
			done[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, st, err
	}

	patches := results[:0]
	for i := range results {
		if !done[i] {
			st.Anomalies++
			continue
		}
		patches = append(patches, results[i])
	}
	st.Patches = len(patches)
	Logger().Debug("patches generated", slogMesh(t),
		"faces", st.Faces, "quads", st.Quads, "nonquad", st.NonQuad,
		"boundary", st.Boundary, "anomalies", st.Anomalies, "patches", st.Patches)
	return patches, st, nil
}

// Convert generates the patches of t and hands them to w as one flat
// gregory position list.
func Convert(t Topology, w PatchWriter, cfg Config) (Stats, error) {
	patches, st, err := Patches(t, cfg)
	if err != nil {
		return st, err
	}
	positions := make([]float32, 0, len(patches)*3*TypeGregory.Points())
	for i := range patches {
		positions = patches[i].AppendFloat32(positions)
	}
	if err := w.WritePatches(t.Name(), TypeGregory, positions); err != nil {
		return st, fmt.Errorf("writing patches of mesh %q: %w", t.Name(), err)
	}
	return st, nil
}
