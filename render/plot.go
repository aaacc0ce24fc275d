package render

import (
	"errors"
	"io"

	"github.com/soypat/gregory/mesh"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Valences returns the valence of every vertex of m.
func Valences(m *mesh.Mesh) []int {
	v := make([]int, m.NumVertices())
	for i := range v {
		v[i] = m.Valence(mesh.VertexID(i))
	}
	return v
}

// valencePlot builds a histogram with one unit wide bin per valence value.
func valencePlot(title string, valences []int) (*plot.Plot, error) {
	if len(valences) == 0 {
		return nil, errors.New("no valences to plot")
	}
	lo, hi := valences[0], valences[0]
	for _, v := range valences {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	bins := make([]plotter.HistogramBin, hi-lo+1)
	for i := range bins {
		c := float64(lo + i)
		bins[i] = plotter.HistogramBin{Min: c - 0.5, Max: c + 0.5}
	}
	for _, v := range valences {
		bins[v-lo].Weight++
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     1,
		FillColor: plotutil.Color(2),
		LineStyle: plotter.DefaultLineStyle,
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "valence"
	p.Y.Label.Text = "vertices"
	p.Add(hist)
	return p, nil
}

// ValenceHistogram saves a histogram of vertex valences to path. The image
// format is taken from the file extension (png, svg, pdf, ...).
func ValenceHistogram(path, title string, valences []int) error {
	p, err := valencePlot(title, valences)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// WriteValenceHistogram writes a histogram of vertex valences to w in the
// given image format.
func WriteValenceHistogram(w io.Writer, format, title string, valences []int) error {
	p, err := valencePlot(title, valences)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
