package rigs

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ArgKind names the JSON type an argument must decode to.
type ArgKind string

const (
	ArgString     ArgKind = "string"
	ArgInt        ArgKind = "int"
	ArgNumber     ArgKind = "number"
	ArgBool       ArgKind = "bool"
	ArgStringList ArgKind = "string_list"
)

// ArgSpec declares one argument of an operation payload.
type ArgSpec struct {
	Name     string
	Kind     ArgKind
	Required bool
}

// OpSpec declares one operation and its payload shape.
type OpSpec struct {
	Name string
	Args []ArgSpec
}

// Violation reports one payload field that failed validation.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ArgError aggregates payload violations for one dispatch attempt.
type ArgError struct {
	Violations []Violation
}

func (e *ArgError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Reason)
	}
	return "rigs: invalid arguments: " + strings.Join(parts, "; ")
}

// ValidateArgs checks args against spec: required fields present, kinds
// match, no undeclared fields. Violations come back sorted by field.
func ValidateArgs(spec OpSpec, args map[string]any) error {
	declared := make(map[string]ArgSpec, len(spec.Args))
	for _, as := range spec.Args {
		declared[as.Name] = as
	}

	var violations []Violation
	for _, as := range spec.Args {
		v, ok := args[as.Name]
		if !ok || v == nil {
			if as.Required {
				violations = append(violations, Violation{Field: as.Name, Reason: "required"})
			}
			continue
		}
		if !kindMatches(as.Kind, v) {
			violations = append(violations, Violation{Field: as.Name, Reason: fmt.Sprintf("expected %s", as.Kind)})
		}
	}
	for name := range args {
		if _, ok := declared[name]; !ok {
			violations = append(violations, Violation{Field: name, Reason: "not a declared argument"})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
	return &ArgError{Violations: violations}
}

func kindMatches(kind ArgKind, v any) bool {
	switch kind {
	case ArgString:
		_, ok := v.(string)
		return ok
	case ArgInt:
		f, ok := v.(float64)
		return ok && f == math.Trunc(f)
	case ArgNumber:
		_, ok := v.(float64)
		return ok
	case ArgBool:
		_, ok := v.(bool)
		return ok
	case ArgStringList:
		list, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Args wraps a validated payload with typed accessors. JSON numbers decode
// as float64, so Int truncates from there.
type Args map[string]any

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Int(name string) int {
	f, _ := a[name].(float64)
	return int(f)
}

func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

func (a Args) StringList(name string) []string {
	raw, _ := a[name].([]any)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
