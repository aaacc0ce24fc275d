package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var inf = math.Inf(1)

// Box is a 3d bounding box.
type Box r3.Box

// Empty returns a box that Include turns into the bounds of the first
// point it is given.
func Empty() Box {
	return Box{Min: Elem(inf), Max: Elem(-inf)}
}

// Include enlarges a 3d box to include a point.
func (a Box) Include(v r3.Vec) Box {
	return Box{
		Min: MinElem(a.Min, v),
		Max: MaxElem(a.Max, v),
	}
}
