// Package terminal draws a scene in a terminal with tcell.
package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/scatter/internal/core/observability/log"
	"github.com/zeusync/scatter/internal/scene"
)

const defaultFrameInterval = 50 * time.Millisecond

// Source is what the viewer reads each frame. *scene.Scene satisfies it.
type Source interface {
	Snapshot() []scene.Object
	Viewport() scene.Viewport
}

type action uint8

const (
	actionNone action = iota
	actionQuit
	actionClear
)

// Viewer renders a top-down view of a Source. The last terminal row is a
// status line.
type Viewer struct {
	screen tcell.Screen
	source Source
	logger log.Log

	onClear func()
	status  func() string
	frame   time.Duration
}

// Option customizes a Viewer.
type Option func(*Viewer)

// WithClear sets the callback bound to the 'c' key.
func WithClear(fn func()) Option {
	return func(v *Viewer) { v.onClear = fn }
}

// WithStatus sets the status line provider.
func WithStatus(fn func() string) Option {
	return func(v *Viewer) { v.status = fn }
}

// WithFrameInterval sets the redraw period.
func WithFrameInterval(d time.Duration) Option {
	return func(v *Viewer) {
		if d > 0 {
			v.frame = d
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l log.Log) Option {
	return func(v *Viewer) { v.logger = l }
}

// New binds a viewer to an uninitialized screen.
func New(screen tcell.Screen, source Source, opts ...Option) *Viewer {
	v := &Viewer{
		screen: screen,
		source: source,
		logger: log.NewNop(),
		frame:  defaultFrameInterval,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewTerminal opens the process terminal.
func NewTerminal(source Source, opts ...Option) (*Viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(screen, source, opts...), nil
}

// Run initializes the screen and draws until ctx is done or the user quits
// with q or Esc. Quitting returns nil.
func (v *Viewer) Run(ctx context.Context) error {
	if err := v.screen.Init(); err != nil {
		return err
	}
	defer v.screen.Fini()

	done := make(chan struct{})
	defer close(done)

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(v.frame)
	defer ticker.Stop()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if v.handle(ev) == actionQuit {
				v.logger.Debug("Viewer closed by user")
				return nil
			}
		case <-ticker.C:
			v.Draw()
		}
	}
}

func (v *Viewer) handle(ev tcell.Event) action {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		v.Draw()
	case *tcell.EventKey:
		act := keyAction(ev)
		if act == actionClear && v.onClear != nil {
			v.onClear()
		}
		return act
	}
	return actionNone
}

func keyAction(ev *tcell.EventKey) action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return actionQuit
		case 'c', 'C':
			return actionClear
		}
	}
	return actionNone
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	v.screen.Clear()
	w, h := v.screen.Size()
	field := h - 1
	if w <= 0 || field <= 0 {
		v.screen.Show()
		return
	}

	vp := v.source.Viewport()
	for _, o := range v.source.Snapshot() {
		x, y, ok := cellFor(vp, o, w, field)
		if !ok {
			continue
		}
		v.screen.SetContent(x, y, glyph(o.Scale), nil, styleFor(o))
	}

	if v.status != nil {
		drawText(v.screen, 0, h-1, w, v.status(), tcell.StyleDefault.Reverse(true))
	}
	v.screen.Show()
}

// cellFor maps an object to a cell with world +Y pointing up the screen.
func cellFor(vp scene.Viewport, o scene.Object, w, h int) (int, int, bool) {
	u, t := vp.Project(o.Position)
	if u < 0 || u > 1 || t < 0 || t > 1 {
		return 0, 0, false
	}
	x := min(int(u*float64(w)), w-1)
	y := min(int((1-t)*float64(h)), h-1)
	return x, y, true
}

func glyph(scale float64) rune {
	switch {
	case scale < 0.15:
		return '·'
	case scale < 0.5:
		return '•'
	default:
		return '●'
	}
}

func styleFor(o scene.Object) tcell.Style {
	if !o.Colored {
		return tcell.StyleDefault.Foreground(tcell.ColorWhite)
	}
	r, g, b := o.Color.Clamped().RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

func drawText(s tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= maxWidth {
			return
		}
		s.SetContent(x+col, y, r, nil, style)
		col++
	}
	for ; col < maxWidth; col++ {
		s.SetContent(x+col, y, ' ', nil, style)
	}
}
