// Package keyboard exposes synthetic key input over an injected effector.
package keyboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/rigs"
)

const (
	Name    = "keyboard"
	Version = "1.0.1"
)

// Effector performs the concrete key injection.
type Effector interface {
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key string, modifiers []string) error
	Hold(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// Rig animates the keyboard domain. Unsupported until an effector is wired.
type Rig struct {
	eff Effector
	log zerolog.Logger
	ops *rigs.Dispatcher
}

func New(eff Effector, logger zerolog.Logger) *Rig {
	r := &Rig{eff: eff, log: logger}
	d := rigs.NewDispatcher()
	d.Handle(rigs.OpSpec{Name: "type", Args: []rigs.ArgSpec{
		{Name: "text", Kind: rigs.ArgString, Required: true},
	}}, r.typeText)
	d.Handle(rigs.OpSpec{Name: "press", Args: []rigs.ArgSpec{
		{Name: "key", Kind: rigs.ArgString, Required: true},
		{Name: "modifiers", Kind: rigs.ArgStringList},
	}}, r.press)
	d.Handle(keyedOp("hold"), r.hold)
	d.Handle(keyedOp("release"), r.release)
	r.ops = d
	return r
}

func keyedOp(name string) rigs.OpSpec {
	return rigs.OpSpec{Name: name, Args: []rigs.ArgSpec{
		{Name: "key", Kind: rigs.ArgString, Required: true},
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

func (r *Rig) typeText(ctx context.Context, args rigs.Args) (any, error) {
	text := args.String("text")
	if err := r.eff.Type(ctx, text); err != nil {
		return nil, err
	}
	return map[string]any{"typed": len(text)}, nil
}

func (r *Rig) press(ctx context.Context, args rigs.Args) (any, error) {
	key := strings.TrimSpace(args.String("key"))
	if key == "" {
		return nil, fmt.Errorf("keyboard: empty key")
	}
	modifiers := args.StringList("modifiers")
	if err := r.eff.Press(ctx, key, modifiers); err != nil {
		return nil, err
	}
	return map[string]any{"key": key, "modifiers": modifiers}, nil
}

func (r *Rig) hold(ctx context.Context, args rigs.Args) (any, error) {
	key := args.String("key")
	if err := r.eff.Hold(ctx, key); err != nil {
		return nil, err
	}
	return map[string]any{"key": key, "held": true}, nil
}

func (r *Rig) release(ctx context.Context, args rigs.Args) (any, error) {
	key := args.String("key")
	if err := r.eff.Release(ctx, key); err != nil {
		return nil, err
	}
	return map[string]any{"key": key, "held": false}, nil
}
