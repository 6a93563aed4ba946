// Package rigs defines the capability-unit contract and the registry that
// holds every unit serving dispatch.
//
// A rig advertises operations, guards them behind a platform-support
// predicate, and delegates concrete effects to an injected effector.
package rigs

import "context"

// Rig is the execution boundary for one automation domain.
type Rig interface {
	Name() string
	Version() string
	Supported() bool
	Capabilities() []string
	Init(ctx context.Context) error
	Destroy(ctx context.Context) error
	Dispatch(ctx context.Context, op string, args map[string]any) (any, error)
}

// Descriptor is the introspection shape for one registered rig.
type Descriptor struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
	Supported    bool     `json:"supported"`
}

// EventSink receives domain events emitted by rigs.
type EventSink interface {
	Publish(kind string, data any)
}

// Emit publishes through sink, dropping the event when no sink is wired.
func Emit(sink EventSink, kind string, data any) {
	if sink == nil {
		return
	}
	sink.Publish(kind, data)
}

// Tags prefixes each operation with the rig name, yielding capability tags.
func Tags(name string, ops []string) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = name + "." + op
	}
	return out
}
