// Package window exposes window-manager operations over an injected
// platform effector.
package window

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/rigs"
)

const (
	Name    = "window"
	Version = "1.2.0"
)

// Info describes one managed window.
type Info struct {
	Title   string `json:"title"`
	App     string `json:"app,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Focused bool   `json:"focused"`
}

// Effector performs the concrete window-manager calls.
type Effector interface {
	List(ctx context.Context) ([]Info, error)
	Active(ctx context.Context) (Info, error)
	Focus(ctx context.Context, title string) error
	Minimize(ctx context.Context, title string) error
	Maximize(ctx context.Context, title string) error
	Close(ctx context.Context, title string) error
	Move(ctx context.Context, title string, x, y int) error
	Resize(ctx context.Context, title string, width, height int) error
}

// Rig animates the window domain. Unsupported until an effector is wired.
type Rig struct {
	eff  Effector
	sink rigs.EventSink
	log  zerolog.Logger
	ops  *rigs.Dispatcher
}

func New(eff Effector, sink rigs.EventSink, logger zerolog.Logger) *Rig {
	r := &Rig{eff: eff, sink: sink, log: logger}
	d := rigs.NewDispatcher()
	d.Handle(rigs.OpSpec{Name: "list"}, r.list)
	d.Handle(rigs.OpSpec{Name: "active"}, r.active)
	d.Handle(titledOp("focus"), r.focus)
	d.Handle(titledOp("minimize"), r.minimize)
	d.Handle(titledOp("maximize"), r.maximize)
	d.Handle(titledOp("close"), r.close)
	d.Handle(rigs.OpSpec{Name: "move", Args: []rigs.ArgSpec{
		{Name: "title", Kind: rigs.ArgString, Required: true},
		{Name: "x", Kind: rigs.ArgInt, Required: true},
		{Name: "y", Kind: rigs.ArgInt, Required: true},
	}}, r.move)
	d.Handle(rigs.OpSpec{Name: "resize", Args: []rigs.ArgSpec{
		{Name: "title", Kind: rigs.ArgString, Required: true},
		{Name: "width", Kind: rigs.ArgInt, Required: true},
		{Name: "height", Kind: rigs.ArgInt, Required: true},
	}}, r.resize)
	r.ops = d
	return r
}

func titledOp(name string) rigs.OpSpec {
	return rigs.OpSpec{Name: name, Args: []rigs.ArgSpec{
		{Name: "title", Kind: rigs.ArgString, Required: true},
	}}
}

func (r *Rig) Name() string    { return Name }
func (r *Rig) Version() string { return Version }
func (r *Rig) Supported() bool { return r.eff != nil }

func (r *Rig) Capabilities() []string {
	return rigs.Tags(Name, r.ops.Ops())
}

func (r *Rig) Init(ctx context.Context) error {
	r.log.Debug().Str("rig", Name).Msg("rig_init")
	return nil
}

func (r *Rig) Destroy(ctx context.Context) error {
	r.log.Debug().Str("rig", Name).Msg("rig_destroy")
	return nil
}

func (r *Rig) Dispatch(ctx context.Context, op string, args map[string]any) (any, error) {
	return r.ops.Dispatch(ctx, op, args)
}

func (r *Rig) list(ctx context.Context, args rigs.Args) (any, error) {
	windows, err := r.eff.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"windows": windows, "count": len(windows)}, nil
}

func (r *Rig) active(ctx context.Context, args rigs.Args) (any, error) {
	info, err := r.eff.Active(ctx)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (r *Rig) focus(ctx context.Context, args rigs.Args) (any, error) {
	title := args.String("title")
	if err := r.eff.Focus(ctx, title); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "window.focused", map[string]any{"title": title})
	return map[string]any{"title": title}, nil
}

func (r *Rig) minimize(ctx context.Context, args rigs.Args) (any, error) {
	title := args.String("title")
	if err := r.eff.Minimize(ctx, title); err != nil {
		return nil, err
	}
	return map[string]any{"title": title}, nil
}

func (r *Rig) maximize(ctx context.Context, args rigs.Args) (any, error) {
	title := args.String("title")
	if err := r.eff.Maximize(ctx, title); err != nil {
		return nil, err
	}
	return map[string]any{"title": title}, nil
}

func (r *Rig) close(ctx context.Context, args rigs.Args) (any, error) {
	title := args.String("title")
	if err := r.eff.Close(ctx, title); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "window.closed", map[string]any{"title": title})
	return map[string]any{"title": title}, nil
}

func (r *Rig) move(ctx context.Context, args rigs.Args) (any, error) {
	title, x, y := args.String("title"), args.Int("x"), args.Int("y")
	if err := r.eff.Move(ctx, title, x, y); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "window.moved", map[string]any{"title": title, "x": x, "y": y})
	return map[string]any{"title": title, "x": x, "y": y}, nil
}

func (r *Rig) resize(ctx context.Context, args rigs.Args) (any, error) {
	title, width, height := args.String("title"), args.Int("width"), args.Int("height")
	if err := r.eff.Resize(ctx, title, width, height); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "window.resized", map[string]any{"title": title, "width": width, "height": height})
	return map[string]any{"title": title, "width": width, "height": height}, nil
}
