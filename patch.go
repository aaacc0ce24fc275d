package gregory

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PatchType identifies the control point layout of a patch list.
type PatchType uint8

const (
	// TypeGregory patches have 20 control points: P0..3, Ep0..3, Em0..3, Fp0..3, Fm0..3.
	TypeGregory PatchType = iota
	// TypeBezier patches are bicubic with a 4x4 row-major control grid.
	TypeBezier
)

func (t PatchType) String() string {
	switch t {
	case TypeGregory:
		return "gregory"
	case TypeBezier:
		return "bezier"
	}
	return fmt.Sprintf("PatchType(%d)", uint8(t))
}

// Points returns the number of control points per patch, or 0 for an
// unknown type.
func (t PatchType) Points() int {
	switch t {
	case TypeGregory:
		return 20
	case TypeBezier:
		return 16
	}
	return 0
}

// ParsePatchType is the inverse of PatchType.String.
func ParsePatchType(s string) (PatchType, error) {
	switch s {
	case "gregory":
		return TypeGregory, nil
	case "bezier":
		return TypeBezier, nil
	}
	return 0, fmt.Errorf("unknown patch type %q", s)
}

// Patch is a Gregory patch control net.
type Patch [20]r3.Vec

// Corner returns limit position P_i.
func (p *Patch) Corner(i int) r3.Vec { return p[i] }

// EdgePlus returns the tangent point Ep_i toward corner i+1.
func (p *Patch) EdgePlus(i int) r3.Vec { return p[4+i] }

// EdgeMinus returns the tangent point Em_i toward corner i-1.
func (p *Patch) EdgeMinus(i int) r3.Vec { return p[8+i] }

// FacePlus returns the interior twist point Fp_i.
func (p *Patch) FacePlus(i int) r3.Vec { return p[12+i] }

// FaceMinus returns the interior twist point Fm_i.
func (p *Patch) FaceMinus(i int) r3.Vec { return p[16+i] }

// AppendFloat32 appends the control points to dst as x,y,z triples.
func (p *Patch) AppendFloat32(dst []float32) []float32 {
	for _, v := range p {
		dst = append(dst, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return dst
}

// PatchWriter receives the flattened patch list of one mesh.
// len(positions) is a multiple of 3*typ.Points().
type PatchWriter interface {
	WritePatches(name string, typ PatchType, positions []float32) error
}
