package render

import (
	"fmt"
	"io"

	"github.com/soypat/gregory"
	"gonum.org/v1/gonum/spatial/r3"
)

// PatchRenderer dices a flat patch list into triangles. Each patch is
// sampled on a regular (divisions+1)² parameter grid and every grid cell is
// split into two triangles. Patches are read in order.
type PatchRenderer struct {
	typ       gregory.PatchType
	positions []float32
	divisions int
	next      int // index of next patch to dice
	unwritten triangle3Buffer
	grid      []r3.Vec
	scratch   []Triangle3
}

var _ Renderer = (*PatchRenderer)(nil)

// NewPatchRenderer returns a Renderer over positions, a flat x,y,z list of
// patches of type typ.
func NewPatchRenderer(typ gregory.PatchType, positions []float32, divisions int) (*PatchRenderer, error) {
	if divisions < 1 {
		return nil, fmt.Errorf("divisions must be 1 or larger, got %d", divisions)
	}
	stride := 3 * typ.Points()
	if stride == 0 {
		return nil, fmt.Errorf("unknown patch type %v", typ)
	}
	if len(positions)%stride != 0 {
		return nil, fmt.Errorf("%d floats do not hold a whole number of %v patches", len(positions), typ)
	}
	return &PatchRenderer{
		typ:       typ,
		positions: positions,
		divisions: divisions,
		grid:      make([]r3.Vec, (divisions+1)*(divisions+1)),
	}, nil
}

// NumPatches returns the number of patches in the list.
func (pr *PatchRenderer) NumPatches() int {
	return len(pr.positions) / (3 * pr.typ.Points())
}

// ReadTriangles writes diced triangles into dst.
func (pr *PatchRenderer) ReadTriangles(dst []Triangle3) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	n = pr.unwritten.Read(dst)
	for n < len(dst) && pr.next < pr.NumPatches() {
		pr.scratch = pr.dice(pr.scratch[:0], pr.next)
		pr.next++
		c := copy(dst[n:], pr.scratch)
		n += c
		// Keep what did not fit for the next call.
		pr.unwritten.Write(pr.scratch[c:])
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// dice appends the triangles of patch i to dst. Triangles are wound so
// that a patch built from a counter-clockwise face faces outward. Cells
// that collapse to a point or a line produce no triangles.
func (pr *PatchRenderer) dice(dst []Triangle3, i int) []Triangle3 {
	stride := 3 * pr.typ.Points()
	raw := pr.positions[i*stride : (i+1)*stride]
	var pts [20]r3.Vec
	for k := range pts[:pr.typ.Points()] {
		pts[k] = r3.Vec{X: float64(raw[3*k]), Y: float64(raw[3*k+1]), Z: float64(raw[3*k+2])}
	}
	d := pr.divisions
	for a := 0; a <= d; a++ {
		u := float64(a) / float64(d)
		for b := 0; b <= d; b++ {
			v := float64(b) / float64(d)
			var p r3.Vec
			switch pr.typ {
			case gregory.TypeGregory:
				p = EvalGregory((*gregory.Patch)(&pts), u, v)
			case gregory.TypeBezier:
				p = EvalBezier((*[16]r3.Vec)(pts[:16]), u, v)
			}
			pr.grid[a*(d+1)+b] = p
		}
	}
	at := func(a, b int) r3.Vec { return pr.grid[a*(d+1)+b] }
	for a := 0; a < d; a++ {
		for b := 0; b < d; b++ {
			p00, p10, p11, p01 := at(a, b), at(a+1, b), at(a+1, b+1), at(a, b+1)
			for _, t := range [2]Triangle3{
				{V: [3]r3.Vec{p00, p11, p10}},
				{V: [3]r3.Vec{p00, p01, p11}},
			} {
				if t.Normal() != (r3.Vec{}) {
					dst = append(dst, t)
				}
			}
		}
	}
	return dst
}
