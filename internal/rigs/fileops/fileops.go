// Package fileops exposes root-confined file access over an injected
// effector.
package fileops

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/rigs"
)

const (
	Name    = "file"
	Version = "1.1.0"
)

// Entry describes one file under the effector root.
type Entry struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	IsDir   bool   `json:"isDir"`
	ModTime string `json:"modTime,omitempty"`
}

// Effector performs the concrete file calls, confined to its root.
type Effector interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, content []byte) error
	List(ctx context.Context, path string) ([]Entry, error)
	Delete(ctx context.Context, path string) error
	Stat(ctx context.Context, path string) (Entry, error)
}

// Rig animates the file domain.
type Rig struct {
	eff  Effector
	sink rigs.EventSink
	log  zerolog.Logger
	ops  *rigs.Dispatcher
}

func New(eff Effector, sink rigs.EventSink, logger zerolog.Logger) *Rig {
	r := &Rig{eff: eff, sink: sink, log: logger}
	d := rigs.NewDispatcher()
	d.Handle(pathOp("read"), r.read)
	d.Handle(rigs.OpSpec{Name: "write", Args: []rigs.ArgSpec{
		{Name: "path", Kind: rigs.ArgString, Required: true},
		{Name: "content", Kind: rigs.ArgString, Required: true},
	}}, r.write)
	d.Handle(rigs.OpSpec{Name: "list", Args: []rigs.ArgSpec{
		{Name: "path", Kind: rigs.ArgString},
	}}, r.list)
	d.Handle(pathOp("delete"), r.delete)
	d.Handle(pathOp("info"), r.info)
	r.ops = d
	return r
}

func pathOp(name string) rigs.OpSpec {
	return rigs.OpSpec{Name: name, Args: []rigs.ArgSpec{
		{Name: "path", Kind: rigs.ArgString, Required: true},
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

func (r *Rig) read(ctx context.Context, args rigs.Args) (any, error) {
	path := args.String("path")
	content, err := r.eff.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "content": string(content), "size": len(content)}, nil
}

func (r *Rig) write(ctx context.Context, args rigs.Args) (any, error) {
	path := args.String("path")
	content := []byte(args.String("content"))
	if err := r.eff.Write(ctx, path, content); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "file.written", map[string]any{"path": path, "size": len(content)})
	return map[string]any{"path": path, "size": len(content)}, nil
}

func (r *Rig) list(ctx context.Context, args rigs.Args) (any, error) {
	path := args.String("path")
	entries, err := r.eff.List(ctx, path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "entries": entries, "count": len(entries)}, nil
}

func (r *Rig) delete(ctx context.Context, args rigs.Args) (any, error) {
	path := args.String("path")
	if err := r.eff.Delete(ctx, path); err != nil {
		return nil, err
	}
	rigs.Emit(r.sink, "file.deleted", map[string]any{"path": path})
	return map[string]any{"path": path, "deleted": true}, nil
}

func (r *Rig) info(ctx context.Context, args rigs.Args) (any, error) {
	entry, err := r.eff.Stat(ctx, args.String("path"))
	if err != nil {
		return nil, err
	}
	return entry, nil
}
