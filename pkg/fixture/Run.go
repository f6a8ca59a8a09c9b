package fixture

import (
	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
)

// TB is the subset of testing.TB which Run needs.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
}

// Run executes body as a test case of the Set.
//
// The Case is torn down even when body panics or calls FailNow.
// A setup error is reported on tb and body is skipped.
func Run(tb TB, set *Set, body func(*Case), opts ...Option) {
	tb.Helper()
	c := New(set, opts...)
	defer func() {
		tb.Helper()
		if err := c.Teardown(); err != nil {
			tb.Errorf("fixture teardown: %s", err.Error())
		}
	}()
	if err := c.Setup(); err != nil {
		tb.Errorf("fixture setup: %s", err.Error())
		return
	}
	body(c)
}

// Let binds a Case of the Set to a testcase.Spec.
// The Case is set up on first access and torn down with the test.
//
//	var c = fixture.Let(s, suite)
//	s.Test("", func(t *testcase.T) { HTTP.Get(c.Get(t)) })
func Let(s *testcase.Spec, set *Set, opts ...Option) testcase.Var[*Case] {
	return testcase.Let(s, func(t *testcase.T) *Case {
		c := New(set, opts...)
		t.Defer(func() { assert.NoError(t, c.Teardown()) })
		assert.Must(t).NoError(c.Setup())
		return c
	})
}
