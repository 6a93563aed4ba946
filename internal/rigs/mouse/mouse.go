// Package mouse exposes synthetic pointer input over an injected effector.
package mouse

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/rigs"
)

const (
	Name    = "mouse"
	Version = "1.0.1"
)

// Buttons accepted by click, down, and up.
var validButtons = map[string]struct{}{
	"left":   {},
	"right":  {},
	"middle": {},
}

// Point is a screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Effector performs the concrete pointer injection.
type Effector interface {
	Move(ctx context.Context, x, y int) error
	Click(ctx context.Context, button string, double bool) error
	Down(ctx context.Context, button string) error
	Up(ctx context.Context, button string) error
	Scroll(ctx context.Context, dx, dy int) error
	Position(ctx context.Context) (Point, error)
}

// Rig animates the pointer domain. Unsupported until an effector is wired.
type Rig struct {
	eff Effector
	log zerolog.Logger
	ops *rigs.Dispatcher
}

func New(eff Effector, logger zerolog.Logger) *Rig {
	r := &Rig{eff: eff, log: logger}
	d := rigs.NewDispatcher()
	d.Handle(rigs.OpSpec{Name: "move", Args: []rigs.ArgSpec{
		{Name: "x", Kind: rigs.ArgInt, Required: true},
		{Name: "y", Kind: rigs.ArgInt, Required: true},
	}}, r.move)
	d.Handle(rigs.OpSpec{Name: "click", Args: []rigs.ArgSpec{
		{Name: "button", Kind: rigs.ArgString},
		{Name: "double", Kind: rigs.ArgBool},
	}}, r.click)
	d.Handle(buttonOp("down"), r.down)
	d.Handle(buttonOp("up"), r.up)
	d.Handle(rigs.OpSpec{Name: "scroll", Args: []rigs.ArgSpec{
		{Name: "dx", Kind: rigs.ArgInt, Required: true},
		{Name: "dy", Kind: rigs.ArgInt, Required: true},
	}}, r.scroll)
	d.Handle(rigs.OpSpec{Name: "position"}, r.position)
	r.ops = d
	return r
}

func buttonOp(name string) rigs.OpSpec {
	return rigs.OpSpec{Name: name, Args: []rigs.ArgSpec{
		{Name: "button", Kind: rigs.ArgString, Required: true},
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

func (r *Rig) move(ctx context.Context, args rigs.Args) (any, error) {
	x, y := args.Int("x"), args.Int("y")
	if err := r.eff.Move(ctx, x, y); err != nil {
		return nil, err
	}
	return Point{X: x, Y: y}, nil
}

func (r *Rig) click(ctx context.Context, args rigs.Args) (any, error) {
	button, err := resolveButton(args, false)
	if err != nil {
		return nil, err
	}
	double := args.Bool("double")
	if err := r.eff.Click(ctx, button, double); err != nil {
		return nil, err
	}
	return map[string]any{"button": button, "double": double}, nil
}

func (r *Rig) down(ctx context.Context, args rigs.Args) (any, error) {
	button, err := resolveButton(args, true)
	if err != nil {
		return nil, err
	}
	if err := r.eff.Down(ctx, button); err != nil {
		return nil, err
	}
	return map[string]any{"button": button, "pressed": true}, nil
}

func (r *Rig) up(ctx context.Context, args rigs.Args) (any, error) {
	button, err := resolveButton(args, true)
	if err != nil {
		return nil, err
	}
	if err := r.eff.Up(ctx, button); err != nil {
		return nil, err
	}
	return map[string]any{"button": button, "pressed": false}, nil
}

func (r *Rig) scroll(ctx context.Context, args rigs.Args) (any, error) {
	dx, dy := args.Int("dx"), args.Int("dy")
	if err := r.eff.Scroll(ctx, dx, dy); err != nil {
		return nil, err
	}
	return map[string]any{"dx": dx, "dy": dy}, nil
}

func (r *Rig) position(ctx context.Context, args rigs.Args) (any, error) {
	pt, err := r.eff.Position(ctx)
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// resolveButton defaults click to the left button; down and up require one.
func resolveButton(args rigs.Args, required bool) (string, error) {
	button := args.String("button")
	if button == "" {
		if required {
			return "", fmt.Errorf("mouse: button required")
		}
		return "left", nil
	}
	if _, ok := validButtons[button]; !ok {
		return "", fmt.Errorf("mouse: unknown button %q", button)
	}
	return button, nil
}
