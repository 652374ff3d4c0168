package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/JosephCatrambone/morph-tool/morph"
	"github.com/pkg/errors"
)

type options struct {
	projectPath string
	frame       uint
	points      string
	amount      float64
	smooth      bool
	savePath    string
}

func main() {
	opts := options{}
	flag.StringVar(&opts.projectPath, "project", "", "Path to YAML project file")
	flag.UintVar(&opts.frame, "frame", 0, "Frame to evaluate")
	flag.StringVar(&opts.points, "points", "", "Query points to warp, e.g. \"1,2;3.5,4\". Empty prints the frame's point pairs")
	flag.Float64Var(&opts.amount, "amount", -1, "Morph amount in [0,1] for intermediate shape points. Negative disables")
	flag.BoolVar(&opts.smooth, "smooth", false, "Kalman-smooth every channel before solving")
	flag.StringVar(&opts.savePath, "save", "", "Write the (possibly smoothed) project to this path")
	flag.Parse()

	if opts.projectPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("morph: %v", err)
	}
}

func run(opts options, out io.Writer) error {
	project, err := LoadProject(opts.projectPath)
	if err != nil {
		return err
	}
	anim, err := project.ToAnimation()
	if err != nil {
		return err
	}
	frame := uint32(opts.frame)

	if opts.smooth {
		cfg := morph.DefaultSmoothingConfig()
		for i := 0; i < anim.NumChannels(); i++ {
			if err := anim.SmoothChannel(i, cfg); err != nil {
				return errors.Wrapf(err, "Can't smooth channel %d", i)
			}
		}
		morph.Logf("morph: smoothed %d channels", anim.NumChannels())
	}
	if opts.savePath != "" {
		if err := project.SetChannels(anim); err != nil {
			return err
		}
		if err := project.Save(opts.savePath); err != nil {
			return err
		}
	}

	if err := logSources(project, frame); err != nil {
		return err
	}

	if opts.amount >= 0 {
		if opts.amount > 1 {
			return errors.Wrapf(morph.ErrInvalidConfig, "amount must be in [0,1], got %v", opts.amount)
		}
		fmt.Fprintf(out, "shape %v\n", anim.MorphPoints(frame, float32(opts.amount)))
	}

	direction, err := project.direction()
	if err != nil {
		return err
	}
	shared := morph.NewSharedAnimation(anim)
	rebuilder, err := morph.NewRebuilder(shared, morph.RebuildConfig{Alpha: project.Alpha, Direction: direction})
	if err != nil {
		return err
	}
	snapshot, err := rebuilder.Rebuild(frame)
	if err != nil {
		return err
	}
	morph.Logf("morph: solved frame %d (%s) with %d control points, snapshot %s",
		frame, direction, snapshot.Warp.NumControlPoints(), snapshot.ID)

	if opts.points == "" {
		var left, right []float32
		shared.Read(func(anim *morph.Animation, _ uint64) {
			left, right = anim.GetPoints(frame)
		})
		for i := 0; i+1 < len(left); i += 2 {
			fmt.Fprintf(out, "%d: %g,%g -> %g,%g\n", i/2, left[i], left[i+1], right[i], right[i+1])
		}
		return nil
	}

	queries, err := parsePoints(opts.points)
	if err != nil {
		return err
	}
	warped, err := snapshot.Warp.Transform(morph.PointsToFlat(queries))
	if err != nil {
		return err
	}
	warpedPoints, err := morph.FlatToPoints(warped)
	if err != nil {
		return err
	}
	for i, q := range queries {
		fmt.Fprintf(out, "%.3f,%.3f -> %.3f,%.3f\n", q.X, q.Y, warpedPoints[i].X, warpedPoints[i].Y)
	}
	return nil
}

// logSources reports frame sizes of both images. Sources that are not set fall back to the placeholder
func logSources(project *Project, frame uint32) error {
	sides := []struct {
		name string
		path string
	}{
		{"left", project.LeftSource},
		{"right", project.RightSource},
	}
	for _, side := range sides {
		var provider morph.FrameProvider = morph.NewNullImageProvider(image.Point{})
		if side.path != "" {
			source, err := morph.OpenImageSource(side.path)
			if err != nil {
				return errors.Wrapf(err, "Can't open %s source", side.name)
			}
			provider = source
		}
		img, err := provider.GetFrame(frame)
		if err != nil {
			return errors.Wrapf(err, "Can't load %s frame %d", side.name, frame)
		}
		morph.Logf("morph: %s frame %d is %dx%d", side.name, frame, img.Bounds().Dx(), img.Bounds().Dy())
	}
	return nil
}

// parsePoints parses semicolon separated "x,y" pairs
func parsePoints(s string) ([]morph.Point, error) {
	parts := strings.Split(s, ";")
	out := make([]morph.Point, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		coords := strings.Split(p, ",")
		if len(coords) != 2 {
			return nil, errors.Wrapf(morph.ErrShapeMismatch, "invalid point '%s'", p)
		}
		var xy [2]float32
		for i, c := range coords {
			v, err := strconv.ParseFloat(strings.TrimSpace(c), 32)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid coordinate '%s'", c)
			}
			xy[i] = float32(v)
		}
		out = append(out, morph.NewPoint(xy[0], xy[1]))
	}
	return out, nil
}
