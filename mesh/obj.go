package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadOBJ reads Wavefront OBJ data and returns one Mesh per object
// ("o" statement). Only vertex positions ("v"), faces ("f") and lines ("l")
// are used; other statements are ignored. Objects without faces are dropped.
func ReadOBJ(r io.Reader) ([]*Mesh, error) {
	var (
		pool    []r3.Vec
		objects []objObject
		cur     = objObject{name: "untitled"}
		lineNum int
	)
	flush := func() {
		if len(cur.faces) > 0 {
			objects = append(objects, cur)
		}
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		ident, val := fields[0], fields[1:]
		switch ident {
		case "v":
			if len(val) < 3 {
				return nil, fmt.Errorf("obj line %d: vertex needs 3 coordinates", lineNum)
			}
			var xyz [3]float64
			for i := range xyz {
				f, err := strconv.ParseFloat(val[i], 64)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNum, err)
				}
				xyz[i] = f
			}
			pool = append(pool, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "f", "l":
			idx := make([]int, len(val))
			for i, s := range val {
				vi, err := objIndex(s, len(pool))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNum, err)
				}
				idx[i] = vi
			}
			if ident == "f" {
				cur.faces = append(cur.faces, idx)
				continue
			}
			// A polyline of n points is n-1 loose edges.
			for i := 1; i < len(idx); i++ {
				cur.lines = append(cur.lines, [2]int{idx[i-1], idx[i]})
			}
		case "o":
			flush()
			name := "untitled"
			if len(val) > 0 {
				name = strings.Join(val, " ")
			}
			cur = objObject{name: name}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	meshes := make([]*Mesh, 0, len(objects))
	for _, obj := range objects {
		m, err := obj.build(pool)
		if err != nil {
			return nil, fmt.Errorf("obj object %q: %w", obj.name, err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

type objObject struct {
	name  string
	faces [][]int
	lines [][2]int
}

// build compacts the global vertex pool down to the vertices referenced by
// the object, in order of first reference.
func (o objObject) build(pool []r3.Vec) (*Mesh, error) {
	local := make(map[int]int)
	var positions []r3.Vec
	remap := func(gi int) int {
		li, ok := local[gi]
		if !ok {
			li = len(positions)
			local[gi] = li
			positions = append(positions, pool[gi])
		}
		return li
	}
	faces := make([][]int, len(o.faces))
	for i, f := range o.faces {
		faces[i] = make([]int, len(f))
		for k, gi := range f {
			faces[i][k] = remap(gi)
		}
	}
	lines := make([][2]int, len(o.lines))
	for i, l := range o.lines {
		lines[i] = [2]int{remap(l[0]), remap(l[1])}
	}
	return NewWithEdges(o.name, positions, faces, lines)
}

// objIndex parses the position part of a face vertex token ("i", "i/t",
// "i/t/n" or "i//n") and converts it to a 0-based index into a pool of
// length n. Negative indices are relative to the end of the pool.
func objIndex(tok string, n int) (int, error) {
	if i := strings.IndexByte(tok, '/'); i >= 0 {
		tok = tok[:i]
	}
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i-- // OBJ indices start at 1.
	case i < 0:
		i += n
	default:
		return 0, fmt.Errorf("vertex index 0: %w", ErrDanglingVertex)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("vertex index %s outside [1,%d]: %w", tok, n, ErrDanglingVertex)
	}
	return i, nil
}
