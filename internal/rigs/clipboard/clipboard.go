// Package clipboard exposes system clipboard access over an injected
// effector.
package clipboard

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/rigs"
)

const (
	Name    = "clipboard"
	Version = "1.0.0"
)

// Effector performs the concrete clipboard calls.
type Effector interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
	Clear(ctx context.Context) error
}

// Rig animates the clipboard domain. Unsupported until an effector is wired.
type Rig struct {
	eff  Effector
	sink rigs.EventSink
	log  zerolog.Logger
	ops  *rigs.Dispatcher
}

func New(eff Effector, sink rigs.EventSink, logger zerolog.Logger) *Rig {
	r := &Rig{eff: eff, sink: sink, log: logger}
	d := rigs.NewDispatcher()
	d.Handle(rigs.OpSpec{Name: "read"}, r.read)
	d.Handle(rigs.OpSpec{Name: "write", Args: []rigs.ArgSpec{
		{Name: "text", Kind: rigs.ArgString, Required: true},
	}}, r.write)
	d.Handle(rigs.OpSpec{Name: "clear"}, r.clear)
	r.ops = d
	return r
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

func (r *Rig) read(ctx context.Context, args rigs.Args) (any, error) {
	text, err := r.eff.Read(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"text": text, "length": len(text)}, nil
}

func (r *Rig) write(ctx context.Context, args rigs.Args) (any, error) {
	text := args.String("text")
	if err := r.eff.Write(ctx, text); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "clipboard.changed", map[string]any{"length": len(text)})
	return map[string]any{"length": len(text)}, nil
}

func (r *Rig) clear(ctx context.Context, args rigs.Args) (any, error) {
	if err := r.eff.Clear(ctx); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "clipboard.changed", map[string]any{"length": 0})
	return map[string]any{"cleared": true}, nil
}
