// cliclient drives the render scheduler without a UI. It renders locally
// or on a remote worker, replays a short pan and zoom script and prints
// the final frame as ASCII art.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/render"
	"github.com/Wartets/Julia-Set/scheduler"
	"github.com/Wartets/Julia-Set/settings"
	"github.com/Wartets/Julia-Set/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

type options struct {
	workerURL    string
	equation     string
	preset       string
	maxIter      int
	res          int
	palette      string
	settingsPath string
	width        int
	height       int
	cols         int
	steps        int
	verbose      bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.workerURL, "worker", "", "remote worker address, e.g. ws://localhost:8080/ws or tcp://localhost:8081; renders locally if empty")
	flag.StringVar(&o.equation, "equation", "", "equation in z")
	flag.StringVar(&o.preset, "preset", "", "preset name, one of: "+strings.Join(julia.PresetNames(), ", "))
	flag.IntVar(&o.maxIter, "iter", 0, "max iterations")
	flag.IntVar(&o.res, "res", 0, "resolution factor")
	flag.StringVar(&o.palette, "palette", "", "color palette")
	flag.StringVar(&o.settingsPath, "settings", "", "settings file; default is the user config dir, \"-\" disables persistence")
	flag.IntVar(&o.width, "width", 640, "canvas width")
	flag.IntVar(&o.height, "height", 480, "canvas height")
	flag.IntVar(&o.cols, "cols", 80, "preview width in characters")
	flag.IntVar(&o.steps, "steps", 12, "scripted pan and zoom steps")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()
	return o
}

func run() error {
	o := parseFlags()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	julia.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	w, closeWorker, err := openWorker(ctx, o.workerURL, o.verbose)
	if err != nil {
		return err
	}
	defer closeWorker()

	store, err := openStore(o.settingsPath)
	if err != nil {
		return err
	}

	var applied atomic.Int64
	s := scheduler.New(w, scheduler.Options{
		Width:  o.width,
		Height: o.height,
		Store:  store,
		OnFrame: func(r julia.RenderResult) {
			applied.Add(1)
			log.Printf("frame %d: %dx%d", r.ID, r.Width, r.Height)
		},
	})
	if err := configure(s, o); err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()

	script(s, o.steps)
	if err := waitIdle(ctx, s, runErr); err != nil {
		return err
	}
	cancel()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler.Run: %w", err)
	}

	img := s.Canvas()
	if img == nil {
		return errors.New("no frame rendered")
	}
	p := s.Params()
	fmt.Printf("%s  %s  maxIter=%d res=%d palette=%s frames=%d\n",
		p.Equation, s.Viewport(), p.MaxIterations, p.ResolutionFactor, p.Palette, applied.Load())
	fmt.Print(ascii(img, o.cols))
	return nil
}

func openWorker(ctx context.Context, url string, verbose bool) (julia.Worker, func(), error) {
	if url == "" {
		r := &render.Renderer{}
		if verbose {
			r.OnTileRender = func(tile image.Rectangle) { log.Printf("rendered tile: %s", tile) }
		}
		l := worker.NewLocal(r)
		return l, func() { l.Close() }, nil
	}
	log.Printf("connecting to %s", url)
	r, err := worker.Dial(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("worker.Dial: %w", err)
	}
	return r, func() { r.Close() }, nil
}

func openStore(path string) (settings.Store, error) {
	switch path {
	case "-":
		return nil, nil
	case "":
		p, err := settings.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("settings.DefaultPath: %w", err)
		}
		path = p
	}
	return &settings.FileStore{Path: path}, nil
}

func configure(s *scheduler.Scheduler, o options) error {
	if o.preset != "" {
		if err := s.ApplyPreset(o.preset); err != nil {
			return fmt.Errorf("preset: %w", err)
		}
	}
	if o.equation != "" && !s.ApplyEquation(o.equation) {
		return fmt.Errorf("invalid equation %q", o.equation)
	}
	if o.maxIter != 0 {
		if err := s.SetMaxIterations(o.maxIter); err != nil {
			return err
		}
	}
	if o.res != 0 {
		if err := s.SetResolutionFactor(o.res); err != nil {
			return err
		}
	}
	if o.palette != "" {
		s.SetPalette(o.palette)
	}
	return nil
}

// script imitates a short interactive session: a drag across the canvas
// followed by wheel zooms toward a point right of center.
func script(s *scheduler.Scheduler, steps int) {
	w, h := s.CanvasSize()
	for i := 0; i < steps; i++ {
		if i < steps/2 {
			s.Pan(float64(w)/40, 0)
		} else {
			s.ZoomAt(float64(w)*0.6, float64(h)*0.5, 0.9)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitIdle(ctx context.Context, s *scheduler.Scheduler, runErr <-chan error) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for render: %w", ctx.Err())
		case err := <-runErr:
			return fmt.Errorf("scheduler.Run: %w", err)
		case <-t.C:
			if s.State() == scheduler.Idle {
				return nil
			}
		}
	}
}

const ramp = " .:-=+*#%@"

// ascii renders img as text, cols characters wide. Character cells are
// about twice as tall as wide.
func ascii(img *image.RGBA, cols int) string {
	b := img.Bounds()
	if cols < 1 || b.Empty() {
		return ""
	}
	rows := max(1, cols*b.Dy()/b.Dx()/2)
	small := image.NewRGBA(image.Rect(0, 0, cols, rows))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, xdraw.Src, nil)

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := small.RGBAAt(x, y)
			lum := (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
			sb.WriteByte(ramp[lum*(len(ramp)-1)/255])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
