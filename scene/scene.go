// Package scene serializes patch meshes into a compact binary container
// consumed by the patch renderer.
//
// The container is little endian:
//
//	magic   [4]byte "GPSC"
//	version uint16
//	then, per mesh until end of stream:
//	  name length uint16, name bytes
//	  patch type  uint8
//	  float count uint32
//	  floats      [count]float32
//
// Each record is written as soon as it is received so output order equals
// call order.
package scene

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/gregory"
)

const (
	magic   = "GPSC"
	version = 1

	// maxFloats bounds the float count a decoder accepts for one mesh.
	maxFloats = 1 << 28
	// decodeChunk is the float count read per step so a record cut short
	// fails before its declared size is allocated.
	decodeChunk = 4096
)

var (
	ErrBadMagic   = errors.New("scene: not a patch scene container")
	ErrVersion    = errors.New("scene: unsupported container version")
	ErrPositions  = errors.New("scene: invalid patch positions")
	ErrNameLength = errors.New("scene: mesh name too long")
)

// Mesh is one named patch list.
type Mesh struct {
	Name      string
	Type      gregory.PatchType
	Positions []float32
}

// NumPatches returns the number of patches in m.
func (m Mesh) NumPatches() int {
	n := 3 * m.Type.Points()
	if n == 0 {
		return 0
	}
	return len(m.Positions) / n
}

// Validate checks that positions hold a whole number of patches of typ and
// are all finite.
func Validate(typ gregory.PatchType, positions []float32) error {
	n := 3 * typ.Points()
	if n == 0 {
		return fmt.Errorf("%w: unknown patch type %v", ErrPositions, typ)
	}
	if len(positions)%n != 0 {
		return fmt.Errorf("%w: %d floats is not a multiple of %d", ErrPositions, len(positions), n)
	}
	for i, f := range positions {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value %v at float %d", ErrPositions, f, i)
		}
	}
	return nil
}

// Encoder writes a scene container. It implements gregory.PatchWriter.
type Encoder struct {
	w   io.Writer
	buf []byte
}

var _ gregory.PatchWriter = (*Encoder)(nil)

// NewEncoder writes the container header to w and returns an Encoder
// ready to receive meshes.
func NewEncoder(w io.Writer) (*Encoder, error) {
	hdr := make([]byte, 0, len(magic)+2)
	hdr = append(hdr, magic...)
	hdr = binary.LittleEndian.AppendUint16(hdr, version)
	if _, err := w.Write(hdr); err != nil {
		return nil, err
	}
	return &Encoder{w: w}, nil
}

// WritePatches validates and writes one mesh record.
func (e *Encoder) WritePatches(name string, typ gregory.PatchType, positions []float32) error {
	if len(name) > math.MaxUint16 {
		return ErrNameLength
	}
	if err := Validate(typ, positions); err != nil {
		return fmt.Errorf("mesh %q: %w", name, err)
	}
	b := e.buf[:0]
	b = binary.LittleEndian.AppendUint16(b, uint16(len(name)))
	b = append(b, name...)
	b = append(b, uint8(typ))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(positions)))
	for _, f := range positions {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	e.buf = b
	_, err := e.w.Write(b)
	return err
}

// Decoder reads a scene container written by Encoder.
type Decoder struct {
	r   *bufio.Reader
	buf [4 * decodeChunk]byte
}

// NewDecoder reads and checks the container header.
func NewDecoder(r io.Reader) (*Decoder, error) {
	br := bufio.NewReader(r)
	var hdr [len(magic) + 2]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if string(hdr[:len(magic)]) != magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(hdr[len(magic):]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	return &Decoder{r: br}, nil
}

// Next returns the next mesh. It returns io.EOF when the container ends
// cleanly between records and io.ErrUnexpectedEOF when a record is cut short.
func (d *Decoder) Next() (Mesh, error) {
	var n16 [2]byte
	if _, err := io.ReadFull(d.r, n16[:]); err != nil {
		return Mesh{}, err // io.EOF at a record boundary.
	}
	nameLen := binary.LittleEndian.Uint16(n16[:])
	rec := make([]byte, int(nameLen)+1+4)
	if err := d.readFull(rec); err != nil {
		return Mesh{}, err
	}
	m := Mesh{
		Name: string(rec[:nameLen]),
		Type: gregory.PatchType(rec[nameLen]),
	}
	count := binary.LittleEndian.Uint32(rec[nameLen+1:])
	if count > maxFloats {
		return Mesh{}, fmt.Errorf("%w: mesh %q declares %d floats", ErrPositions, m.Name, count)
	}
	m.Positions = make([]float32, 0, min(int(count), decodeChunk))
	for left := int(count); left > 0; {
		n := min(left, decodeChunk)
		chunk := d.buf[:4*n]
		if err := d.readFull(chunk); err != nil {
			return Mesh{}, err
		}
		for i := 0; i < n; i++ {
			m.Positions = append(m.Positions, math.Float32frombits(binary.LittleEndian.Uint32(chunk[4*i:])))
		}
		left -= n
	}
	if err := Validate(m.Type, m.Positions); err != nil {
		return Mesh{}, fmt.Errorf("mesh %q: %w", m.Name, err)
	}
	return m, nil
}

func (d *Decoder) readFull(b []byte) error {
	_, err := io.ReadFull(d.r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// ReadAll decodes every mesh of a container.
func ReadAll(r io.Reader) ([]Mesh, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	var meshes []Mesh
	for {
		m, err := d.Next()
		if err == io.EOF {
			return meshes, nil
		}
		if err != nil {
			return meshes, err
		}
		meshes = append(meshes, m)
	}
}

// Collector is an in-memory gregory.PatchWriter.
type Collector struct {
	Meshes []Mesh
}

var _ gregory.PatchWriter = (*Collector)(nil)

// WritePatches validates and stores a copy of positions.
func (c *Collector) WritePatches(name string, typ gregory.PatchType, positions []float32) error {
	if err := Validate(typ, positions); err != nil {
		return fmt.Errorf("mesh %q: %w", name, err)
	}
	c.Meshes = append(c.Meshes, Mesh{
		Name:      name,
		Type:      typ,
		Positions: append([]float32(nil), positions...),
	})
	return nil
}
