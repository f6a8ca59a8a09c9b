// Package fixture composes independent setup/teardown components into a test case.
//
// A test case definition is a Set. Fixtures are declared on it at package initialisation time,
// and every declaration yields a typed Ref that resolves to the fixture of a given Case:
//
//	var (
//		suite = fixture.NewSet("api")
//		HTTP  = httpmock.Declare(suite)
//		DB    = fixture.Declare(suite, NewDatabase)
//	)
//
//	func TestSomething(t *testing.T) {
//		fixture.Run(t, suite, func(c *fixture.Case) {
//			_ = HTTP.Get(c).AddResponse("GET", "http://example.com/")
//			...
//		})
//	}
//
// Fixtures are built eagerly when the Case is constructed,
// but they are only activated when the Case is set up.
// Each fixture's Teardown is scheduled on the Case's cleanup chain right after its Setup succeeded,
// so fixtures are torn down in the reverse order of their activation,
// and cleanups registered by the test body run before any fixture teardown.
package fixture

import (
	"go.llib.dev/frameless/pkg/errorkit"
)

const (
	// ErrUnknownFixture is raised when a Ref is resolved against a Case that didn't build its fixture.
	ErrUnknownFixture errorkit.Error = "unknown fixture"
	// ErrSealed is raised when a Set is modified after a Case was built from it.
	ErrSealed errorkit.Error = "fixture set is sealed"
	// ErrLifecycle is returned when the lifecycle hooks of a Case are called out of order.
	ErrLifecycle errorkit.Error = "fixture lifecycle violation"
)

// Fixture is a component of a test case.
// Setup is called when the test case is set up, in declaration order.
type Fixture interface {
	Setup() error
}

// Teardowner is the optional capability of a Fixture to release what it acquired during Setup.
// Fixtures without it are never added to the cleanup chain.
type Teardowner interface {
	Teardown() error
}

// Component is a convenience base for fixtures.
// Embed it and override Setup or Teardown as needed.
type Component struct {
	Case *Case
}

func (Component) Setup() error { return nil }

func (Component) Teardown() error { return nil }
