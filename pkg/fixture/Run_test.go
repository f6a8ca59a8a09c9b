package fixture_test

import (
	"errors"
	"fmt"
	"testing"

	"go.llib.dev/fixturekit/pkg/cleanup"
	"go.llib.dev/fixturekit/pkg/fixture"
	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
	"go.llib.dev/testcase/sandbox"
)

type fakeTB struct {
	errors []string
}

func (tb *fakeTB) Helper() {}

func (tb *fakeTB) Errorf(format string, args ...any) {
	tb.errors = append(tb.errors, fmt.Sprintf(format, args...))
}

func TestRun(t *testing.T) {
	rec := &Recorder{}
	set := fixture.NewSet("run")
	fixture.Declare(set, NewUsingComponent(rec))
	fixture.DeclareArgs(set, NewIndependent(rec))

	tb := &fakeTB{}
	fixture.Run(tb, set, func(c *fixture.Case) { rec.Add("body") },
		fixture.WithRegistry(cleanup.NewRegistry()),
		fixture.WithLogger(stubLogger(t)))

	assert.Empty(t, tb.errors)
	assert.Equal(t, simpleUsage, rec.Entries())
}

func TestRun_setupFailureSkipsTheBody(t *testing.T) {
	rec := &Recorder{}
	set := fixture.NewSet("run")
	fixture.DeclareArgs(set, NewIndependent(rec))
	fixture.Declare(set, func(*fixture.Case) *Failing { return &Failing{record: rec} })

	tb := &fakeTB{}
	fixture.Run(tb, set, func(c *fixture.Case) { rec.Add("body") },
		fixture.WithRegistry(cleanup.NewRegistry()),
		fixture.WithLogger(stubLogger(t)))

	assert.Equal(t, 1, len(tb.errors))
	assert.Contains(t, tb.errors[0], errSetupFailed.Error())
	assert.Equal(t, []string{
		"independent init",
		"independent setup",
		"failing setup",
		"independent teardown",
		"independent cleanup",
	}, rec.Entries())
}

func TestRun_teardownOnPanic(t *testing.T) {
	rec := &Recorder{}
	set := fixture.NewSet("run")
	fixture.DeclareArgs(set, NewIndependent(rec))

	tb := &fakeTB{}
	out := sandbox.Run(func() {
		fixture.Run(tb, set, func(c *fixture.Case) {
			rec.Add("body")
			c.Defer(func() error { return errors.New("deferred") })
			panic("boom")
		}, fixture.WithRegistry(cleanup.NewRegistry()), fixture.WithLogger(stubLogger(t)))
	})

	assert.False(t, out.OK)
	assert.Equal(t, 1, len(tb.errors))
	assert.Contains(t, tb.errors[0], "deferred")
	assert.Equal(t, []string{
		"independent init",
		"independent setup",
		"body",
		"independent teardown",
		"independent cleanup",
	}, rec.Entries())
}

func TestLet(t *testing.T) {
	s := testcase.NewSpec(t)

	var (
		rec      = &Recorder{}
		set      = fixture.NewSet("let")
		indep    = fixture.DeclareArgs(set, NewIndependent(rec), fixture.Pos("from let"))
		registry = cleanup.NewRegistry()
	)
	c := fixture.Let(s, set, fixture.WithRegistry(registry))

	s.Test("the case is set up on first access", func(t *testcase.T) {
		assert.Must(t).Equal(any("from let"), indep.Get(c.Get(t)).State)
		assert.Must(t).Contains(rec.Entries(), "independent setup")
		assert.Must(t).Equal(2, c.Get(t).CleanupLen())
	})
}
