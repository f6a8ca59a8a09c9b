package fixture

import (
	"context"
	"fmt"
	"os"
	"sync"

	uuid "github.com/satori/go.uuid"
	"go.llib.dev/fixturekit/internal/config"
	"go.llib.dev/fixturekit/pkg/cleanup"
	"go.llib.dev/fixturekit/pkg/teardown"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/logging"
)

type caseState int

const (
	stateConstructed caseState = iota
	stateSettingUp
	stateReady
	stateFinished
)

func (s caseState) String() string {
	switch s {
	case stateConstructed:
		return "constructed"
	case stateSettingUp:
		return "setting up"
	case stateReady:
		return "ready"
	case stateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Case is one execution of a Set.
// It owns the fixtures built from the Set's declarations and the cleanup chain of the execution.
type Case struct {
	id       uuid.UUID
	set      *Set
	registry *cleanup.Registry
	logger   *logging.Logger
	ctx      context.Context

	byMarker map[Marker]Fixture
	asBuilt  []Fixture

	chain teardown.Teardown

	mutex sync.Mutex
	state caseState
}

type Option func(*Case)

// WithRegistry makes the Case drain the given registry instead of cleanup.Default.
func WithRegistry(r *cleanup.Registry) Option {
	return func(c *Case) { c.registry = r }
}

func WithLogger(l *logging.Logger) Option {
	return func(c *Case) { c.logger = l }
}

func WithContext(ctx context.Context) Option {
	return func(c *Case) { c.ctx = ctx }
}

// New builds a Case from the Set.
//
// The fixtures of every declaration in the Set's lineage are constructed immediately,
// base declarations first, each receiving the Case and its recorded construction values.
// The Set and its ancestors are sealed.
//
// A nil Set yields a Case without fixtures, which still drains the registry and runs its cleanup chain.
func New(set *Set, opts ...Option) *Case {
	c := &Case{
		id:       uuid.NewV4(),
		set:      set,
		byMarker: make(map[Marker]Fixture),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = cleanup.Default
	}
	if c.logger == nil {
		c.logger = defaultLogger()
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	c.ctx = logging.ContextWith(c.ctx,
		logging.Field("case_id", c.id.String()),
		logging.Field("fixture_set", c.setName()))

	if set == nil {
		return c
	}
	for _, s := range set.lineage() {
		s.seal()
		for _, decl := range s.Declarations() {
			f := decl.Factory(c, decl.Args.clone())
			if f == nil {
				panic(fmt.Sprintf("fixture: the factory of %s in set %q returned nil", decl.Marker, s.Name()))
			}
			c.byMarker[decl.Marker] = f
			c.asBuilt = append(c.asBuilt, f)
		}
	}
	c.logger.Debug(c.ctx, "fixture case constructed", logging.Field("fixtures", len(c.asBuilt)))
	return c
}

func (c *Case) setName() string {
	if c.set == nil {
		return ""
	}
	return c.set.Name()
}

func (c *Case) ID() string { return c.id.String() }

// Context carries the logging details of the Case.
func (c *Case) Context() context.Context { return c.ctx }

func (c *Case) Logger() *logging.Logger { return c.logger }

// Registry is the cleanup registry which the Case drains.
func (c *Case) Registry() *cleanup.Registry { return c.registry }

// Fixtures returns the fixtures of the Case in activation order.
func (c *Case) Fixtures() []Fixture {
	out := make([]Fixture, len(c.asBuilt))
	copy(out, c.asBuilt)
	return out
}

func (c *Case) lookup(m Marker) (Fixture, bool) {
	f, ok := c.byMarker[m]
	return f, ok
}

// Defer schedules fn on the cleanup chain of the Case.
// Deferred functions run in reverse order during Teardown,
// after the teardown hooks and the registry drain.
func (c *Case) Defer(fn func() error) { c.chain.Defer(fn) }

// Cleanup is the error-less variant of Defer.
func (c *Case) Cleanup(fn func()) {
	if fn == nil {
		return
	}
	c.chain.Defer(func() error {
		fn()
		return nil
	})
}

// CleanupLen reports how many functions are pending on the cleanup chain.
func (c *Case) CleanupLen() int { return c.chain.Len() }

// CleanupNames lists the pending cleanup chain in execution order.
// Fixture teardowns are named after the fixture type, functions passed to Defer or Cleanup are unnamed.
func (c *Case) CleanupNames() []string { return c.chain.Names() }

// Setup prepares the Case for the test body.
//
// The registry is drained first, so residue from an earlier test doesn't leak into this one.
// Then every fixture is set up in activation order,
// and a fixture's Teardown is deferred right after its Setup succeeded.
// Finally the setup hooks of the lineage run, base Set first.
//
// When Setup fails, Teardown must still be called to release what was already acquired.
func (c *Case) Setup() error {
	c.mutex.Lock()
	if c.state != stateConstructed {
		state := c.state
		c.mutex.Unlock()
		return ErrLifecycle.F("setup called on a %s case", state)
	}
	c.state = stateSettingUp
	c.mutex.Unlock()

	if err := c.registry.Drain(); err != nil {
		c.logger.Warn(c.ctx, "fixture registry drain failed before setup", logging.ErrField(err))
		return err
	}
	for i, f := range c.asBuilt {
		c.logger.Debug(c.ctx, "fixture setup", logging.Field("index", i), logging.Field("type", fmt.Sprintf("%T", f)))
		if err := f.Setup(); err != nil {
			c.logger.Warn(c.ctx, "fixture setup failed", logging.Field("index", i), logging.ErrField(err))
			return fmt.Errorf("%T setup: %w", f, err)
		}
		if td, ok := f.(Teardowner); ok {
			c.chain.DeferNamed(fmt.Sprintf("%T teardown", f), td.Teardown)
		}
	}
	for _, s := range c.lineage() {
		setupHooks, _ := s.hooks()
		for _, hook := range setupHooks {
			if err := hook(c); err != nil {
				return fmt.Errorf("%s setup hook: %w", s.Name(), err)
			}
		}
	}

	c.mutex.Lock()
	c.state = stateReady
	c.mutex.Unlock()
	return nil
}

// Teardown releases everything the Case acquired.
//
// The teardown hooks run first, most-derived Set first, but only when Setup completed.
// Then the registry is drained, and finally the cleanup chain unwinds in reverse order,
// which tears down the fixtures and runs whatever the test body deferred.
// The chain always unwinds, and every error met along the way is returned together.
//
// Teardown is idempotent, repeated calls return nil.
func (c *Case) Teardown() (rErr error) {
	c.mutex.Lock()
	if c.state == stateFinished {
		c.mutex.Unlock()
		return nil
	}
	ready := c.state == stateReady
	c.state = stateFinished
	c.mutex.Unlock()

	var errs []error
	defer func() {
		rErr = errorkit.Merge(append(errs, rErr)...)
		if rErr != nil {
			c.logger.Warn(c.ctx, "fixture teardown failed", logging.ErrField(rErr))
			return
		}
		c.logger.Debug(c.ctx, "fixture case torn down")
	}()
	defer func() { errs = append(errs, c.chain.Finish()) }()

	if ready {
		sets := c.lineage()
		for i := len(sets) - 1; 0 <= i; i-- {
			_, teardownHooks := sets[i].hooks()
			for _, hook := range teardownHooks {
				if err := hook(c); err != nil {
					errs = append(errs, fmt.Errorf("%s teardown hook: %w", sets[i].Name(), err))
				}
			}
		}
	}
	errs = append(errs, c.registry.Drain())
	return nil
}

func (c *Case) lineage() []*Set {
	if c.set == nil {
		return nil
	}
	return c.set.lineage()
}

func defaultLogger() *logging.Logger {
	cfg, _ := config.Current()
	return &logging.Logger{Out: os.Stderr, Level: cfg.Level()}
}
