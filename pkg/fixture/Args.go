package fixture

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Args are the construction values recorded with a declaration.
// Factories receive them when the Case builds its fixtures.
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// Arg contributes to the Args of a declaration.
type Arg interface{ apply(*Args) }

type argFunc func(*Args)

func (fn argFunc) apply(a *Args) { fn(a) }

// Pos appends positional construction values.
func Pos(vs ...any) Arg {
	return argFunc(func(a *Args) {
		a.Positional = append(a.Positional, vs...)
	})
}

// Kw sets a keyword construction value.
func Kw(name string, v any) Arg {
	return argFunc(func(a *Args) {
		if a.Keyword == nil {
			a.Keyword = make(map[string]any)
		}
		a.Keyword[name] = v
	})
}

func (a Args) Len() int { return len(a.Positional) + len(a.Keyword) }

// At returns the positional value at index i.
func (a Args) At(i int) (any, bool) {
	if i < 0 || len(a.Positional) <= i {
		return nil, false
	}
	return a.Positional[i], true
}

func (a Args) Lookup(name string) (any, bool) {
	v, ok := a.Keyword[name]
	return v, ok
}

func (a Args) clone() Args {
	return Args{
		Positional: slices.Clone(a.Positional),
		Keyword:    maps.Clone(a.Keyword),
	}
}

// ArgOr binds a construction parameter which can be passed either by position or by keyword.
// The keyword takes precedence, and when neither is present the fallback is returned.
// A value of the wrong type panics, the declaration doesn't match the factory.
//
//	state := fixture.ArgOr(args, 0, "state", 42)
func ArgOr[T any](a Args, index int, name string, fallback T) T {
	v, ok := a.Lookup(name)
	if !ok {
		v, ok = a.At(index)
	}
	if !ok {
		return fallback
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("fixture: construction argument %q (#%d) is %T, expected %s",
			name, index, v, reflect.TypeFor[T]().String()))
	}
	return t
}
