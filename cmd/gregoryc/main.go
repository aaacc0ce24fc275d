// Command gregoryc converts quad meshes into Gregory patch scenes.
//
// Usage:
//
//	gregoryc [flags] file.obj|file.bez ...
//
// Every object of every OBJ input becomes one scene record of Gregory
// patches. BEZ inputs are passed through as bicubic Bézier records.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/gregory"
	"github.com/soypat/gregory/mesh"
	"github.com/soypat/gregory/render"
	"github.com/soypat/gregory/scene"
)

func main() {
	var (
		output  = flag.String("o", "out.gpsc", "output scene file")
		stlPath = flag.String("stl", "", "also write a diced binary STL to this file")
		pngPath = flag.String("png", "", "also write a PNG preview to this file")
		hist    = flag.String("hist", "", "write a vertex valence histogram of the OBJ inputs to this file")
		weld    = flag.Float64("weld", 0, "merge OBJ vertices closer than this distance")
		workers = flag.Int("workers", 0, "faces processed concurrently, 0 uses GOMAXPROCS")
		dice    = flag.Int("dice", 8, "subdivisions per patch side for STL and PNG output")
		flip    = flag.Bool("flip", false, "reverse the winding of BEZ patches")
		verbose = flag.Bool("v", false, "log debug statistics")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.obj|file.bez ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gregory.SetLogger(logger)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cfg := config{
		output:  *output,
		stl:     *stlPath,
		png:     *pngPath,
		hist:    *hist,
		weld:    *weld,
		dice:    *dice,
		flip:    *flip,
		patches: gregory.Config{Workers: *workers},
	}
	if err := run(cfg, flag.Args(), logger); err != nil {
		logger.Error("gregoryc failed", "err", err)
		os.Exit(1)
	}
}

type config struct {
	output, stl, png, hist string
	weld                   float64
	dice                   int
	flip                   bool
	patches                gregory.Config
}

// tee forwards patch lists to several writers.
type tee []gregory.PatchWriter

func (t tee) WritePatches(name string, typ gregory.PatchType, positions []float32) error {
	for _, w := range t {
		if err := w.WritePatches(name, typ, positions); err != nil {
			return err
		}
	}
	return nil
}

func run(cfg config, inputs []string, logger *slog.Logger) (err error) {
	fp, err := os.Create(cfg.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fp.Close(); err == nil {
			err = cerr
		}
	}()
	enc, err := scene.NewEncoder(fp)
	if err != nil {
		return err
	}
	var collected scene.Collector
	w := tee{enc, &collected}

	var valences []int
	for _, input := range inputs {
		switch ext := strings.ToLower(filepath.Ext(input)); ext {
		case ".obj":
			meshes, err := loadOBJ(input, cfg.weld)
			if err != nil {
				return err
			}
			for _, m := range meshes {
				valences = append(valences, render.Valences(m)...)
				st, err := gregory.Convert(m, w, cfg.patches)
				if err != nil {
					return err
				}
				logger.Info("converted", "mesh", m.Name(), "faces", st.Faces,
					"patches", st.Patches, "skipped", st.NonQuad+st.Boundary+st.Anomalies)
			}
		case ".bez":
			if err := passBEZ(input, cfg.flip, w); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: unsupported input extension %q", input, ext)
		}
	}

	if cfg.stl != "" || cfg.png != "" {
		if err := writeModel(cfg, collected.Meshes); err != nil {
			return err
		}
	}
	if cfg.hist != "" {
		if len(valences) == 0 {
			return errors.New("valence histogram needs at least one OBJ input")
		}
		if err := render.ValenceHistogram(cfg.hist, "vertex valence", valences); err != nil {
			return err
		}
	}
	return nil
}

func loadOBJ(path string, weld float64) ([]*mesh.Mesh, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	meshes, err := mesh.ReadOBJ(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if weld <= 0 {
		return meshes, nil
	}
	for i, m := range meshes {
		meshes[i], err = mesh.WeldMesh(m, weld)
		if err != nil {
			return nil, fmt.Errorf("%s: welding %q: %w", path, m.Name(), err)
		}
	}
	return meshes, nil
}

func passBEZ(path string, flip bool, w gregory.PatchWriter) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	positions, err := scene.ReadBEZ(fp, flip)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return w.WritePatches(name, gregory.TypeBezier, positions)
}

func writeModel(cfg config, meshes []scene.Mesh) error {
	if cfg.stl != "" {
		r, err := modelRenderer(meshes, cfg.dice)
		if err != nil {
			return err
		}
		if err := render.CreateSTL(cfg.stl, r); err != nil {
			return err
		}
	}
	if cfg.png == "" {
		return nil
	}
	r, err := modelRenderer(meshes, cfg.dice)
	if err != nil {
		return err
	}
	model, err := render.RenderAll(r)
	if err != nil {
		return err
	}
	return render.CreatePNG(cfg.png, model, render.View{Width: 1024, Height: 768, Supersample: 2})
}

// modelRenderer dices every non-empty record into one triangle stream.
func modelRenderer(meshes []scene.Mesh, divisions int) (render.Renderer, error) {
	var renderers []render.Renderer
	for _, m := range meshes {
		if len(m.Positions) == 0 {
			continue
		}
		pr, err := render.NewPatchRenderer(m.Type, m.Positions, divisions)
		if err != nil {
			return nil, fmt.Errorf("dicing %q: %w", m.Name, err)
		}
		renderers = append(renderers, pr)
	}
	if len(renderers) == 0 {
		return nil, errors.New("no patches to render")
	}
	return render.Join(renderers...), nil
}
