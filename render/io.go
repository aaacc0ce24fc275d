package render

import "io"

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like io.ReadAll.
func RenderAll(r Renderer) ([]Triangle3, error) {
	var err error
	var nt int
	result := make([]Triangle3, 0, 1<<12)
	buf := make([]Triangle3, 1024)
	for {
		nt, err = r.ReadTriangles(buf)
		result = append(result, buf[:nt]...)
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// triangle3Buffer holds triangles produced but not yet read.
type triangle3Buffer struct {
	buf []Triangle3
}

// Read moves buffered triangles into t.
func (b *triangle3Buffer) Read(t []Triangle3) int {
	n := copy(t, b.buf)
	b.buf = b.buf[n:]
	return n
}

// Write appends triangles to this buffer.
func (b *triangle3Buffer) Write(t []Triangle3) int {
	b.buf = append(b.buf, t...)
	return len(t)
}

func (b *triangle3Buffer) Len() int { return len(b.buf) }

// Join returns a Renderer that reads the triangles of each renderer in
// turn, like io.MultiReader.
func Join(rs ...Renderer) Renderer {
	return &joinRenderer{rs: append([]Renderer(nil), rs...)}
}

type joinRenderer struct {
	rs []Renderer
}

func (j *joinRenderer) ReadTriangles(t []Triangle3) (int, error) {
	for len(j.rs) > 0 {
		n, err := j.rs[0].ReadTriangles(t)
		if err == io.EOF {
			j.rs = j.rs[1:]
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
	return 0, io.EOF
}
