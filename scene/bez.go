package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrBEZ is wrapped by errors describing malformed .bez input.
var ErrBEZ = errors.New("scene: malformed bez data")

// bezTranspose maps a row-major 4x4 control grid to column-major.
var bezTranspose = [16]int{0, 4, 8, 12, 1, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11, 15}

// ReadBEZ reads bicubic Bézier patches in the text .bez format: a patch
// count, one line of 16 comma separated 1-based vertex indices per patch,
// a vertex count, and one comma separated x,y,z line per vertex.
// The result is a flat bezier position list. If flip is set each control
// grid is transposed, reversing the patch orientation.
func ReadBEZ(r io.Reader, flip bool) ([]float32, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, error) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, nil
			}
		}
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: unexpected end of input after line %d", ErrBEZ, line)
	}
	count := func(what string) (int, error) {
		s, err := next()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: line %d: bad %s count %q", ErrBEZ, line, what, s)
		}
		return n, nil
	}

	npatch, err := count("patch")
	if err != nil {
		return nil, err
	}
	// Slices grow with the lines actually read; counts come from the file.
	var ids [][16]int
	for p := 0; p < npatch; p++ {
		s, err := next()
		if err != nil {
			return nil, err
		}
		fields := strings.Split(s, ",")
		if len(fields) != 16 {
			return nil, fmt.Errorf("%w: line %d: patch has %d indices, want 16", ErrBEZ, line, len(fields))
		}
		var pid [16]int
		for k, f := range fields {
			pid[k], err = strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrBEZ, line, err)
			}
		}
		ids = append(ids, pid)
	}

	nvert, err := count("vertex")
	if err != nil {
		return nil, err
	}
	var verts [][3]float32
	for v := 0; v < nvert; v++ {
		s, err := next()
		if err != nil {
			return nil, err
		}
		fields := strings.Split(s, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: vertex has %d coordinates, want 3", ErrBEZ, line, len(fields))
		}
		var vert [3]float32
		for k, f := range fields {
			x, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrBEZ, line, err)
			}
			vert[k] = float32(x)
		}
		verts = append(verts, vert)
	}

	positions := make([]float32, 0, len(ids)*16*3)
	for p, pid := range ids {
		for k := range pid {
			src := k
			if flip {
				src = bezTranspose[k]
			}
			i := pid[src]
			if i < 1 || i > nvert {
				return nil, fmt.Errorf("%w: patch %d references vertex %d of %d", ErrBEZ, p, i, nvert)
			}
			positions = append(positions, verts[i-1][:]...)
		}
	}
	return positions, nil
}
