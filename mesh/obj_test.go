package mesh_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/gregory/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const twoObjects = `# exported
mtllib scene.mtl
o plane
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
usemtl default
f 1/1/1 2/1/1 3/1/1 4/1/1
o wire
v 5 5 5
v 6 5 5
l -2 -1
o tri
v 0 0 2
v 1 0 2
v 0 1 2
f -3//1 -2//1 -1//1
l 7 9
`

func TestReadOBJ(t *testing.T) {
	meshes, err := mesh.ReadOBJ(strings.NewReader(twoObjects))
	if err != nil {
		t.Fatal(err)
	}
	// "wire" has no faces and is dropped.
	if len(meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(meshes))
	}
	plane, tri := meshes[0], meshes[1]
	if plane.Name() != "plane" || tri.Name() != "tri" {
		t.Errorf("names %q %q", plane.Name(), tri.Name())
	}
	if plane.NumVertices() != 4 || plane.NumFaces() != 1 || len(plane.FaceVertices(0)) != 4 {
		t.Errorf("plane: %d vertices, %d faces", plane.NumVertices(), plane.NumFaces())
	}
	// Compacted to referenced vertices in order of first reference.
	if tri.NumVertices() != 3 || tri.Position(0) != (r3.Vec{Z: 2}) {
		t.Errorf("tri: %d vertices, first at %v", tri.NumVertices(), tri.Position(0))
	}
	if _, ok := tri.EdgeBetween(0, 2); !ok {
		t.Error("tri: missing edge")
	}
	if tri.NumEdges() != 3 {
		t.Errorf("tri: loose edge duplicating a face edge should not add an edge, got %d edges", tri.NumEdges())
	}
}

func TestReadOBJErrors(t *testing.T) {
	for _, src := range []string{
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf -4 1 2\n",
	} {
		_, err := mesh.ReadOBJ(strings.NewReader(src))
		if !errors.Is(err, mesh.ErrDanglingVertex) {
			t.Errorf("%q: want ErrDanglingVertex, got %v", src, err)
		}
	}
	if _, err := mesh.ReadOBJ(strings.NewReader("v 0 zero 0\n")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := mesh.ReadOBJ(strings.NewReader("v 0 0\n")); err == nil {
		t.Error("expected short vertex error")
	}
}
