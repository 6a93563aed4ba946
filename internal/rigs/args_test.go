package rigs

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/rigctl/internal/testutil/testlog"
)

func TestValidateArgs(t *testing.T) {
	testlog.Start(t)
	spec := OpSpec{
		Name: "move",
		Args: []ArgSpec{
			{Name: "title", Kind: ArgString, Required: true},
			{Name: "x", Kind: ArgInt, Required: true},
			{Name: "y", Kind: ArgInt, Required: true},
			{Name: "animate", Kind: ArgBool},
			{Name: "tags", Kind: ArgStringList},
		},
	}

	tests := []struct {
		name       string
		args       map[string]any
		wantFields []string
	}{
		{
			name: "valid payload",
			args: map[string]any{"title": "editor", "x": float64(10), "y": float64(20), "animate": true, "tags": []any{"a", "b"}},
		},
		{
			name:       "missing required",
			args:       map[string]any{"title": "editor"},
			wantFields: []string{"x", "y"},
		},
		{
			name:       "wrong kinds",
			args:       map[string]any{"title": 7.0, "x": "ten", "y": float64(20)},
			wantFields: []string{"title", "x"},
		},
		{
			name:       "fractional int",
			args:       map[string]any{"title": "editor", "x": 1.5, "y": float64(0)},
			wantFields: []string{"x"},
		},
		{
			name:       "undeclared field",
			args:       map[string]any{"title": "editor", "x": float64(1), "y": float64(2), "speed": 3.0},
			wantFields: []string{"speed"},
		},
		{
			name:       "string list with mixed items",
			args:       map[string]any{"title": "editor", "x": float64(1), "y": float64(2), "tags": []any{"a", 1.0}},
			wantFields: []string{"tags"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateArgs(spec, tc.args)
			if len(tc.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected valid payload, got %v", err)
				}
				return
			}
			var argErr *ArgError
			if !errors.As(err, &argErr) {
				t.Fatalf("expected *ArgError, got %v", err)
			}
			fields := make([]string, 0, len(argErr.Violations))
			for _, v := range argErr.Violations {
				fields = append(fields, v.Field)
			}
			if !reflect.DeepEqual(fields, tc.wantFields) {
				t.Fatalf("violation fields: got %v want %v", fields, tc.wantFields)
			}
		})
	}
}

func TestArgsAccessors(t *testing.T) {
	testlog.Start(t)
	args := Args{
		"title": "editor",
		"x":     42.0,
		"ratio": 1.25,
		"force": true,
		"tags":  []any{"left", "top"},
	}

	if got := args.String("title"); got != "editor" {
		t.Fatalf("String: %q", got)
	}
	if got := args.Int("x"); got != 42 {
		t.Fatalf("Int: %d", got)
	}
	if got := args.Float("ratio"); got != 1.25 {
		t.Fatalf("Float: %v", got)
	}
	if !args.Bool("force") {
		t.Fatalf("Bool: want true")
	}
	if got := args.StringList("tags"); !reflect.DeepEqual(got, []string{"left", "top"}) {
		t.Fatalf("StringList: %v", got)
	}
	if got := args.String("absent"); got != "" {
		t.Fatalf("absent key must zero-value: %q", got)
	}
}

func TestDispatcherRoutes(t *testing.T) {
	testlog.Start(t)
	d := NewDispatcher()
	var seen Args
	d.Handle(OpSpec{Name: "echo", Args: []ArgSpec{{Name: "text", Kind: ArgString, Required: true}}},
		func(ctx context.Context, args Args) (any, error) {
			seen = args
			return args.String("text"), nil
		})

	if _, err := d.Dispatch(context.Background(), "absent", nil); !errors.Is(err, ErrOpUnknown) {
		t.Fatalf("expected ErrOpUnknown, got %v", err)
	}

	var argErr *ArgError
	if _, err := d.Dispatch(context.Background(), "echo", map[string]any{}); !errors.As(err, &argErr) {
		t.Fatalf("expected *ArgError, got %v", err)
	}

	out, err := d.Dispatch(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil || out != "hi" {
		t.Fatalf("dispatch: out=%v err=%v", out, err)
	}
	if seen.String("text") != "hi" {
		t.Fatalf("handler args not threaded: %v", seen)
	}
	if got := d.Ops(); !reflect.DeepEqual(got, []string{"echo"}) {
		t.Fatalf("ops: %v", got)
	}
}
