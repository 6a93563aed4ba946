package rigs

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var ErrOpUnknown = errors.New("rigs: unknown operation")

// HandlerFunc executes one operation with already-validated arguments.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Dispatcher routes operation names to handlers, validating payloads
// against each operation's declared shape first.
type Dispatcher struct {
	specs    map[string]OpSpec
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		specs:    make(map[string]OpSpec),
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers one operation. Last registration wins on name clashes;
// rigs declare each op once.
func (d *Dispatcher) Handle(spec OpSpec, fn HandlerFunc) {
	d.specs[spec.Name] = spec
	d.handlers[spec.Name] = fn
}

// Ops returns the declared operation names sorted.
func (d *Dispatcher) Ops() []string {
	out := make([]string, 0, len(d.specs))
	for name := range d.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch validates args for op and invokes its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, op string, args map[string]any) (any, error) {
	spec, ok := d.specs[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOpUnknown, op)
	}
	if err := ValidateArgs(spec, args); err != nil {
		return nil, err
	}
	return d.handlers[op](ctx, Args(args))
}
