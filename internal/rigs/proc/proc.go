// Package proc exposes host process control over an injected effector.
package proc

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/rigs"
)

const (
	Name    = "process"
	Version = "1.3.0"
)

// Info describes one host process.
type Info struct {
	PID     int    `json:"pid"`
	Name    string `json:"name"`
	Command string `json:"command,omitempty"`
}

// Effector performs the concrete process calls.
type Effector interface {
	List(ctx context.Context) ([]Info, error)
	Info(ctx context.Context, pid int) (Info, error)
	Start(ctx context.Context, command string, args []string) (Info, error)
	Stop(ctx context.Context, pid int, force bool) error
}

// Rig animates the process domain.
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
	d.Handle(rigs.OpSpec{Name: "info", Args: []rigs.ArgSpec{
		{Name: "pid", Kind: rigs.ArgInt, Required: true},
	}}, r.info)
	d.Handle(rigs.OpSpec{Name: "start", Args: []rigs.ArgSpec{
		{Name: "command", Kind: rigs.ArgString, Required: true},
		{Name: "args", Kind: rigs.ArgStringList},
	}}, r.start)
	d.Handle(rigs.OpSpec{Name: "stop", Args: []rigs.ArgSpec{
		{Name: "pid", Kind: rigs.ArgInt, Required: true},
		{Name: "force", Kind: rigs.ArgBool},
	}}, r.stop)
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

func (r *Rig) list(ctx context.Context, args rigs.Args) (any, error) {
	procs, err := r.eff.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"processes": procs, "count": len(procs)}, nil
}

func (r *Rig) info(ctx context.Context, args rigs.Args) (any, error) {
	pid := args.Int("pid")
	if pid <= 0 {
		return nil, fmt.Errorf("process: pid must be positive, got %d", pid)
	}
	return r.eff.Info(ctx, pid)
}

func (r *Rig) start(ctx context.Context, args rigs.Args) (any, error) {
	command := strings.TrimSpace(args.String("command"))
	if command == "" {
		return nil, fmt.Errorf("process: empty command")
	}
	info, err := r.eff.Start(ctx, command, args.StringList("args"))
	if err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "process.started", map[string]any{"pid": info.PID, "command": command})
	return info, nil
}

func (r *Rig) stop(ctx context.Context, args rigs.Args) (any, error) {
	pid := args.Int("pid")
	if pid <= 0 {
		return nil, fmt.Errorf("process: pid must be positive, got %d", pid)
	}
	force := args.Bool("force")
	if err := r.eff.Stop(ctx, pid, force); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "process.stopped", map[string]any{"pid": pid, "force": force})
	return map[string]any{"pid": pid, "stopped": true}, nil
}
