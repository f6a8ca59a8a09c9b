package fixture

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Set is a test case definition: an ordered list of fixture declarations,
// plus the cooperative setup and teardown hooks of the definition.
//
// A Set may extend another Set.
// Each Set keeps only its own declarations, the lineage is walked when a Case is built,
// so base declarations are always built and activated before the derived ones.
//
// A Set is sealed when the first Case is built from it or from one of its descendants.
// Modifying a sealed Set panics with ErrSealed.
type Set struct {
	name   string
	parent *Set

	mutex         sync.Mutex
	sealed        bool
	declarations  []Declaration
	setupHooks    []func(*Case) error
	teardownHooks []func(*Case) error
}

func NewSet(name string) *Set {
	return &Set{name: name}
}

// Extend derives a new Set which inherits every declaration and hook of s.
func (s *Set) Extend(name string) *Set {
	return &Set{name: name, parent: s}
}

func (s *Set) Name() string { return s.name }

func (s *Set) Parent() *Set { return s.parent }

// Declarations returns the declarations introduced directly on this Set, in declaration order.
func (s *Set) Declarations() []Declaration {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.declarations)
}

// OnSetup registers a cooperative setup hook.
// Setup hooks run after every fixture is activated, base Set hooks first.
func (s *Set) OnSetup(fn func(*Case) error) {
	s.mutate(func() { s.setupHooks = append(s.setupHooks, fn) })
}

// OnTeardown registers a cooperative teardown hook.
// Teardown hooks run before the cleanup chain unwinds, derived Set hooks first.
func (s *Set) OnTeardown(fn func(*Case) error) {
	s.mutate(func() { s.teardownHooks = append(s.teardownHooks, fn) })
}

func (s *Set) mutate(blk func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.sealed {
		panic(ErrSealed.F("%s", s.name))
	}
	blk()
}

// lineage returns the Set and its ancestors, from the most-base to the most-derived.
func (s *Set) lineage() []*Set {
	var sets []*Set
	for cur := s; cur != nil; cur = cur.parent {
		sets = append(sets, cur)
	}
	slices.Reverse(sets)
	return sets
}

func (s *Set) seal() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sealed = true
}

func (s *Set) hooks() (setup, teardown []func(*Case) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.setupHooks), slices.Clone(s.teardownHooks)
}

// Marker is the identity which correlates a declaration with the fixture built from it.
type Marker struct{ id uint64 }

var markerSeq atomic.Uint64

func newMarker() Marker { return Marker{id: markerSeq.Add(1)} }

func (m Marker) IsZero() bool { return m.id == 0 }

func (m Marker) String() string { return fmt.Sprintf("fixture#%d", m.id) }

// Declaration records how to build one fixture.
// The factory is only invoked when a Case is constructed.
type Declaration struct {
	Marker  Marker
	Factory func(*Case, Args) Fixture
	Args    Args
}

// Declare records a fixture on the Set and returns the handle to access it.
func Declare[F Fixture](s *Set, factory func(*Case) F) Ref[F] {
	return DeclareArgs(s, func(c *Case, _ Args) F { return factory(c) })
}

// DeclareArgs records a fixture on the Set together with its construction values.
//
//	Fixture = fixture.DeclareArgs(suite, NewIndependent, fixture.Pos(24), fixture.Kw("name", "x"))
func DeclareArgs[F Fixture](s *Set, factory func(*Case, Args) F, args ...Arg) Ref[F] {
	var a Args
	for _, arg := range args {
		arg.apply(&a)
	}
	d := Declaration{
		Marker: newMarker(),
		Args:   a,
		Factory: func(c *Case, a Args) Fixture {
			return factory(c, a)
		},
	}
	s.mutate(func() { s.declarations = append(s.declarations, d) })
	return Ref[F]{marker: d.Marker}
}

// Ref is the typed handle of a declared fixture.
// Copies of a Ref resolve to the same fixture,
// so a base Set's Ref keeps working in a derived Set which declares a replacement.
type Ref[F Fixture] struct {
	marker Marker
}

func (r Ref[F]) Marker() Marker { return r.marker }

// Lookup returns the fixture which the Case built for this Ref.
func (r Ref[F]) Lookup(c *Case) (F, bool) {
	v, ok := c.lookup(r.marker)
	if !ok {
		return *new(F), false
	}
	f, ok := v.(F)
	return f, ok
}

// Get returns the fixture which the Case built for this Ref.
// It panics with ErrUnknownFixture when the Case wasn't built from a Set which declares this Ref.
func (r Ref[F]) Get(c *Case) F {
	f, ok := r.Lookup(c)
	if !ok {
		panic(ErrUnknownFixture.F("%s is not part of case %s", r.marker, c.ID()))
	}
	return f
}
