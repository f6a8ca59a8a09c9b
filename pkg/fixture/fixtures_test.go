package fixture_test

import (
	"errors"
	"fmt"
	"sync"

	"go.llib.dev/fixturekit/pkg/fixture"
)

type Recorder struct {
	mutex   sync.Mutex
	entries []string
}

func (r *Recorder) Add(format string, args ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.entries = append(r.entries, fmt.Sprintf(format, args...))
}

func (r *Recorder) Entries() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.entries...)
}

// UsingComponent embeds fixture.Component.
type UsingComponent struct {
	fixture.Component
	Record *Recorder
}

func NewUsingComponent(rec *Recorder) func(*fixture.Case) *UsingComponent {
	return func(c *fixture.Case) *UsingComponent {
		rec.Add("derived init")
		return &UsingComponent{Component: fixture.Component{Case: c}, Record: rec}
	}
}

func (f *UsingComponent) Setup() error {
	if err := f.Component.Setup(); err != nil {
		return err
	}
	f.Record.Add("derived setup")
	f.Case.Cleanup(func() { f.Record.Add("derived cleanup") })
	return nil
}

func (f *UsingComponent) Teardown() error {
	if err := f.Component.Teardown(); err != nil {
		return err
	}
	f.Record.Add("derived teardown")
	return nil
}

// Independent doesn't build on fixture.Component.
type Independent struct {
	c      *fixture.Case
	record *Recorder
	State  any
}

func NewIndependent(rec *Recorder) func(*fixture.Case, fixture.Args) *Independent {
	return func(c *fixture.Case, args fixture.Args) *Independent {
		rec.Add("independent init")
		return &Independent{
			c:      c,
			record: rec,
			State:  fixture.ArgOr[any](args, 0, "state", 42),
		}
	}
}

func (f *Independent) Setup() error {
	f.record.Add("independent setup")
	f.c.Cleanup(func() { f.record.Add("independent cleanup") })
	return nil
}

func (f *Independent) Teardown() error {
	f.record.Add("independent teardown")
	return nil
}

func (f *Independent) Complain(msg string) error {
	f.record.Add("independent complaint: %s", msg)
	return fmt.Errorf("using independent fixture: %s", msg)
}

type WithoutTeardown struct {
	c      *fixture.Case
	record *Recorder
}

func NewWithoutTeardown(rec *Recorder) func(*fixture.Case) *WithoutTeardown {
	return func(c *fixture.Case) *WithoutTeardown {
		rec.Add("teardownless init")
		return &WithoutTeardown{c: c, record: rec}
	}
}

func (f *WithoutTeardown) Setup() error {
	f.record.Add("teardownless setup")
	f.c.Cleanup(func() { f.record.Add("teardownless cleanup") })
	return nil
}

var errSetupFailed = errors.New("setup failed")

type Failing struct{ record *Recorder }

func (f *Failing) Setup() error {
	f.record.Add("failing setup")
	return errSetupFailed
}

func (f *Failing) Teardown() error {
	f.record.Add("failing teardown")
	return nil
}
