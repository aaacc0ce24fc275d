package render

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"
)

// View configures a preview render. The zero value looks at the origin
// from (3,3,3) with z up.
type View struct {
	// Eye is the camera position and LookAt the point it looks at.
	Eye, LookAt r3.Vec
	// Up is the camera up direction.
	Up r3.Vec
	// Near and Far clip distances. The model is first fit into a bi-unit cube.
	Near, Far float64
	// Fovy is the vertical field of view in degrees.
	Fovy float64
	// Width and Height of the output image in pixels.
	Width, Height int
	// Supersample renders at Supersample times the output size and
	// downsamples for antialiasing.
	Supersample int
	// Color of the model as a hex string such as "#468966".
	Color string
}

func (v View) withDefaults() View {
	if v.Eye == (r3.Vec{}) {
		v.Eye = r3.Vec{X: 3, Y: 3, Z: 3}
	}
	if v.Up == (r3.Vec{}) {
		v.Up = r3.Vec{Z: 1}
	}
	if v.Near == 0 {
		v.Near = 1
	}
	if v.Far == 0 {
		v.Far = 10
	}
	if v.Fovy == 0 {
		v.Fovy = 30
	}
	if v.Width == 0 {
		v.Width = 800
	}
	if v.Height == 0 {
		v.Height = 600
	}
	if v.Supersample == 0 {
		v.Supersample = 1
	}
	if v.Color == "" {
		v.Color = "#468966"
	}
	return v
}

// background is the preview clear color.
const background = "#FFF8E3"

// Preview rasterizes model with a Phong shader.
func Preview(model []Triangle3, view View) (image.Image, error) {
	if len(model) == 0 {
		return nil, errors.New("empty triangle slice")
	}
	view = view.withDefaults()
	tris := make([]*fauxgl.Triangle, len(model))
	for i, t := range model {
		tris[i] = fauxgl.NewTriangleForPoints(fauxV(t.V[0]), fauxV(t.V[1]), fauxV(t.V[2]))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	var (
		eye    = fauxV(view.Eye)
		center = fauxV(view.LookAt)
		up     = fauxV(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		w, h   = view.Width * view.Supersample, view.Height * view.Supersample
	)
	context := fauxgl.NewContext(w, h)
	context.ClearColorBufferWith(fauxgl.HexColor(background))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.Fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(view.Color)
	context.Shader = shader
	context.DrawMesh(mesh)
	img := context.Image()
	if view.Supersample > 1 {
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

// CreatePNG renders a preview of model into a PNG file at path.
func CreatePNG(path string, model []Triangle3, view View) error {
	img, err := Preview(model, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

func fauxV(v r3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}
