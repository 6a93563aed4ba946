package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/testutil/testlog"
)

type fakeEffector struct {
	text string
	err  error
}

func (f *fakeEffector) Read(ctx context.Context) (string, error) { return f.text, f.err }

func (f *fakeEffector) Write(ctx context.Context, text string) error {
	f.text = text
	return f.err
}

func (f *fakeEffector) Clear(ctx context.Context) error {
	f.text = ""
	return f.err
}

type captureSink struct {
	kinds []string
}

func (c *captureSink) Publish(kind string, data any) { c.kinds = append(c.kinds, kind) }

func TestWriteThenReadRoundTrip(t *testing.T) {
	testlog.Start(t)
	eff := &fakeEffector{}
	sink := &captureSink{}
	r := New(eff, sink, zerolog.Nop())

	if _, err := r.Dispatch(context.Background(), "write", map[string]any{"text": "copied"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := r.Dispatch(context.Background(), "read", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.(map[string]any)["text"] != "copied" {
		t.Fatalf("round trip: %v", out)
	}
	if len(sink.kinds) != 1 || sink.kinds[0] != "clipboard.changed" {
		t.Fatalf("events: %v", sink.kinds)
	}
}

func TestClearEmitsChange(t *testing.T) {
	testlog.Start(t)
	eff := &fakeEffector{text: "stale"}
	sink := &captureSink{}
	r := New(eff, sink, zerolog.Nop())

	if _, err := r.Dispatch(context.Background(), "clear", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if eff.text != "" {
		t.Fatalf("effector not cleared: %q", eff.text)
	}
	if len(sink.kinds) != 1 {
		t.Fatalf("events: %v", sink.kinds)
	}
}

func TestEffectorFailureSkipsEvent(t *testing.T) {
	testlog.Start(t)
	sink := &captureSink{}
	r := New(&fakeEffector{err: errors.New("no clipboard owner")}, sink, zerolog.Nop())

	if _, err := r.Dispatch(context.Background(), "write", map[string]any{"text": "x"}); err == nil {
		t.Fatalf("effector failure must propagate")
	}
	if len(sink.kinds) != 0 {
		t.Fatalf("failed write must not emit: %v", sink.kinds)
	}
}
