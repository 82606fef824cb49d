// Package scheduler owns the interactive view state and turns bursts of
// changes into a paced stream of render requests, applying results only
// when they are newer than what is on screen.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/equation"
	"github.com/Wartets/Julia-Set/palette"
	"github.com/Wartets/Julia-Set/settings"
)

const (
	DefaultEquation         = "z^2-0.7269+0.1889i"
	DefaultMaxIterations    = 500
	DefaultResolutionFactor = 4
	DefaultPalette          = palette.Default
	DefaultFrameInterval    = time.Second / 60
	DefaultMaxOutstanding   = 2
	DefaultStallTimeout     = 5 * time.Second

	defaultRangeY = 4
)

// ErrInvalidParam is wrapped by setters that reject their argument.
var ErrInvalidParam = errors.New("invalid parameter")

// State is the scheduler's position in the render cycle.
type State int

const (
	Idle     State = iota // nothing to do
	Pending               // a change is waiting for the next frame
	InFlight              // requests are out, nothing pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case InFlight:
		return "in-flight"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configure a Scheduler. Zero values take defaults.
type Options struct {
	Width, Height int // canvas size in pixels, 800x600 by default
	Store         settings.Store
	FrameInterval time.Duration
	// MaxOutstanding caps requests sent but not yet answered. Changes made
	// while the cap is reached stay pending until a result comes back.
	MaxOutstanding int
	// StallTimeout is how long outstanding requests may go unanswered
	// before they are counted as lost and the cap is released.
	StallTimeout time.Duration
	// OnFrame is called, outside the scheduler lock, for every applied result.
	OnFrame func(julia.RenderResult)
}

// Params are the non-viewport render parameters.
type Params struct {
	Equation         string
	FastForm         *julia.FastForm
	MaxIterations    int
	ResolutionFactor int
	Palette          string
	PanelHidden      bool
}

// Scheduler holds the authoritative view and parameter state.
// All methods are safe for concurrent use.
type Scheduler struct {
	worker         julia.Worker
	store          settings.Store
	frameInterval  time.Duration
	maxOutstanding int
	stallTimeout   time.Duration
	onFrame        func(julia.RenderResult)

	m             sync.Mutex
	width, height int
	view          view
	params        Params

	pending        bool
	nextID         uint64
	highestApplied uint64
	outstanding    int
	lastProgress   time.Time // last dispatch or result
	frame          julia.RenderResult
	hasFrame       bool

	dispatchMu sync.Mutex // keeps ids in submission order
	saveMu     sync.Mutex // keeps saves in mutation order
}

// New creates a scheduler dispatching to w. Persisted settings are read
// once here; a first render is scheduled.
func New(w julia.Worker, opts Options) *Scheduler {
	s := &Scheduler{
		worker:         w,
		store:          opts.Store,
		frameInterval:  opts.FrameInterval,
		maxOutstanding: opts.MaxOutstanding,
		stallTimeout:   opts.StallTimeout,
		onFrame:        opts.OnFrame,
		width:          opts.Width,
		height:         opts.Height,
		view:           defaultView(),
		params: Params{
			Equation:         DefaultEquation,
			FastForm:         equation.AnalyzeSource(DefaultEquation),
			MaxIterations:    DefaultMaxIterations,
			ResolutionFactor: DefaultResolutionFactor,
			Palette:          DefaultPalette,
		},
		pending: true,
	}
	if s.frameInterval <= 0 {
		s.frameInterval = DefaultFrameInterval
	}
	if s.maxOutstanding <= 0 {
		s.maxOutstanding = DefaultMaxOutstanding
	}
	if s.stallTimeout <= 0 {
		s.stallTimeout = DefaultStallTimeout
	}
	if s.width <= 0 || s.height <= 0 {
		s.width, s.height = 800, 600
	}
	s.load()
	return s
}

func (s *Scheduler) load() {
	if s.store == nil {
		return
	}
	st, err := s.store.Load()
	if err != nil {
		julia.Logger().Warn("scheduler: loading settings", "err", err)
		return
	}
	p := &s.params
	if st.MaxIterations != nil && *st.MaxIterations >= 1 {
		p.MaxIterations = *st.MaxIterations
	}
	if st.ResolutionFactor != nil && *st.ResolutionFactor >= 1 {
		p.ResolutionFactor = *st.ResolutionFactor
	}
	if st.Equation != nil {
		if err := equation.Validate(*st.Equation); err != nil {
			julia.Logger().Warn("scheduler: ignoring stored equation", "equation", *st.Equation, "err", err)
		} else {
			p.Equation = *st.Equation
			p.FastForm = equation.AnalyzeSource(*st.Equation)
		}
	}
	if st.Palette != nil {
		p.Palette = *st.Palette
	}
	if st.PanelHidden != nil {
		p.PanelHidden = *st.PanelHidden
	}
}

// RequestRender marks the state dirty. Any number of calls before the
// next frame produce a single request.
func (s *Scheduler) RequestRender() {
	s.m.Lock()
	s.pending = true
	s.m.Unlock()
}

// State reports the current render-cycle state.
func (s *Scheduler) State() State {
	s.m.Lock()
	defer s.m.Unlock()
	s.reapLocked()
	switch {
	case s.pending:
		return Pending
	case s.outstanding > 0:
		return InFlight
	}
	return Idle
}

// Flush sends one request if a change is pending and the outstanding cap
// allows it. It reports whether a request was sent.
func (s *Scheduler) Flush(ctx context.Context) (bool, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.m.Lock()
	s.reapLocked()
	if !s.pending || s.outstanding >= s.maxOutstanding {
		s.m.Unlock()
		return false, nil
	}
	s.pending = false
	s.nextID++
	req := s.requestLocked(s.nextID)
	s.outstanding++
	s.lastProgress = time.Now()
	s.m.Unlock()

	julia.Logger().Debug("scheduler: dispatch", "id", req.ID, "viewport", req.Viewport.String(), "fast", req.FastForm != nil)
	if err := s.worker.Submit(ctx, req); err != nil {
		s.m.Lock()
		s.outstanding--
		s.m.Unlock()
		julia.Logger().Warn("scheduler: submit failed", "id", req.ID, "err", err)
		return false, fmt.Errorf("submit %d: %w", req.ID, err)
	}
	return true, nil
}

// reapLocked releases the outstanding count once nothing has come back
// for the stall timeout. Results lost by the worker would otherwise hold
// the cap forever.
func (s *Scheduler) reapLocked() {
	if s.outstanding == 0 || time.Since(s.lastProgress) < s.stallTimeout {
		return
	}
	julia.Logger().Warn("scheduler: results lost", "outstanding", s.outstanding, "last", s.nextID)
	s.outstanding = 0
}

func (s *Scheduler) requestLocked(id uint64) julia.RenderRequest {
	var ff *julia.FastForm
	if s.params.FastForm != nil {
		c := *s.params.FastForm
		ff = &c
	}
	return julia.RenderRequest{
		ID:               id,
		Width:            s.width,
		Height:           s.height,
		Viewport:         s.view.bounds(s.aspectLocked()),
		MaxIterations:    s.params.MaxIterations,
		ResolutionFactor: s.params.ResolutionFactor,
		EquationSource:   s.params.Equation,
		FastForm:         ff,
		PaletteName:      s.params.Palette,
	}
}

// Apply takes a finished result. Results older than the one on screen are
// discarded; Apply reports whether res became the displayed frame.
func (s *Scheduler) Apply(res julia.RenderResult) bool {
	s.m.Lock()
	s.lastProgress = time.Now()
	switch {
	case res.ID >= s.nextID:
		// Anything older that is still out can only be stale now.
		s.outstanding = 0
	case s.outstanding > 0:
		s.outstanding--
	}
	if shown := s.highestApplied; res.ID < shown {
		s.m.Unlock()
		julia.Logger().Debug("scheduler: discarding stale result", "id", res.ID, "shown", shown)
		return false
	}
	s.highestApplied = res.ID
	s.frame, s.hasFrame = res, true
	cb := s.onFrame
	s.m.Unlock()

	julia.Logger().Debug("scheduler: applied", "id", res.ID, "w", res.Width, "h", res.Height)
	if cb != nil {
		cb(res)
	}
	return true
}

// Run paces dispatch to the frame interval and applies results until ctx
// is done or the worker's result channel closes.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	results := s.worker.Results()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Flush(ctx); err != nil && ctx.Err() == nil {
				julia.Logger().Warn("scheduler: flush", "err", err)
			}
		case res, ok := <-results:
			if !ok {
				return errors.New("worker results closed")
			}
			s.Apply(res)
		}
	}
}

// Frame returns the displayed raster at its render resolution.
func (s *Scheduler) Frame() (julia.RenderResult, bool) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.frame, s.hasFrame
}

// Canvas returns the displayed raster scaled to the canvas size with
// nearest-neighbour sampling, or nil before the first frame.
func (s *Scheduler) Canvas() *image.RGBA {
	s.m.Lock()
	frame, ok := s.frame, s.hasFrame
	w, h := s.width, s.height
	s.m.Unlock()
	if !ok {
		return nil
	}
	src := &image.RGBA{Pix: frame.Pix, Stride: 4 * frame.Width, Rect: image.Rect(0, 0, frame.Width, frame.Height)}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Params returns the current render parameters.
func (s *Scheduler) Params() Params {
	s.m.Lock()
	defer s.m.Unlock()
	p := s.params
	if p.FastForm != nil {
		ff := *p.FastForm
		p.FastForm = &ff
	}
	return p
}

// ApplyEquation commits src if it compiles and resets the view. An
// invalid source leaves everything as it was and returns false.
func (s *Scheduler) ApplyEquation(src string) bool {
	src = strings.TrimSpace(src)
	if err := equation.Validate(src); err != nil {
		julia.Logger().Warn("scheduler: rejected equation", "equation", src, "err", err)
		return false
	}
	ff := equation.AnalyzeSource(src)
	s.mutate(true, func() {
		s.params.Equation, s.params.FastForm = src, ff
		s.view = defaultView()
	})
	return true
}

// ApplyPreset switches equation, view, iterations and resolution at once.
func (s *Scheduler) ApplyPreset(name string) error {
	p, err := julia.PresetByName(name)
	if err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}
	ff := equation.AnalyzeSource(p.Equation)
	s.mutate(true, func() {
		s.params.Equation, s.params.FastForm = p.Equation, ff
		s.params.MaxIterations = p.MaxIterations
		s.params.ResolutionFactor = p.ResolutionFactor
		s.view = fit(p.Viewport, s.aspectLocked())
	})
	return nil
}

// SetMaxIterations sets the escape iteration limit. n must be positive.
func (s *Scheduler) SetMaxIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidParam, n)
	}
	s.mutate(true, func() { s.params.MaxIterations = n })
	return nil
}

// SetResolutionFactor sets the pixel subsampling factor. f must be positive.
func (s *Scheduler) SetResolutionFactor(f int) error {
	if f < 1 {
		return fmt.Errorf("%w: resolution factor %d", ErrInvalidParam, f)
	}
	s.mutate(true, func() { s.params.ResolutionFactor = f })
	return nil
}

// SetPalette selects a palette by name. Unknown names render with the
// default palette.
func (s *Scheduler) SetPalette(name string) {
	if !palette.Known(name) {
		julia.Logger().Warn("scheduler: unknown palette, rendering with default", "palette", name)
	}
	s.mutate(true, func() { s.params.Palette = name })
}

// SetPanelHidden records the UI panel visibility. It does not render.
func (s *Scheduler) SetPanelHidden(hidden bool) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.m.Lock()
	s.params.PanelHidden = hidden
	st := s.settingsLocked()
	s.m.Unlock()
	s.save(st)
}

// mutate applies fn under the lock, marks a render pending and, if
// persist is set, saves the resulting settings.
func (s *Scheduler) mutate(persist bool, fn func()) {
	_ = s.tryMutate(persist, func() error { fn(); return nil })
}

// tryMutate is mutate for changes that depend on the current state and
// may be refused. Nothing is marked or saved when fn fails.
func (s *Scheduler) tryMutate(persist bool, fn func() error) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.m.Lock()
	if err := fn(); err != nil {
		s.m.Unlock()
		return err
	}
	s.pending = true
	st := s.settingsLocked()
	s.m.Unlock()

	if persist {
		s.save(st)
	}
	return nil
}

func (s *Scheduler) settingsLocked() settings.Settings {
	p := s.params
	return settings.Settings{
		Equation:         settings.String(p.Equation),
		MaxIterations:    settings.Int(p.MaxIterations),
		ResolutionFactor: settings.Int(p.ResolutionFactor),
		Palette:          settings.String(p.Palette),
		PanelHidden:      settings.Bool(p.PanelHidden),
	}
}

func (s *Scheduler) save(st settings.Settings) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(st); err != nil {
		julia.Logger().Warn("scheduler: saving settings", "err", err)
	}
}
