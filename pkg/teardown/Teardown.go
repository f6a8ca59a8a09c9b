// Package teardown implements the per-test cleanup chain.
//
// Callbacks are unwound in last-in-first-out order.
// Unlike the cleanup registry's drain, a failing callback doesn't stop the unwinding:
// every callback runs, and their errors are merged into a single error value.
package teardown

import (
	"fmt"
	"slices"
	"sync"

	"go.llib.dev/frameless/pkg/errorkit"
)

// Teardown is an ordered chain of deferred callbacks.
// The zero value is ready to use.
type Teardown struct {
	mutex sync.Mutex
	chain []link
}

type link struct {
	name string
	fn   func() error
}

func (l link) call() error {
	err := l.fn()
	if err == nil || l.name == "" {
		return err
	}
	return fmt.Errorf("%s: %w", l.name, err)
}

// Defer pushes a callback onto the chain.
// Callbacks deferred while the chain is unwinding are executed by the same Finish call.
func (td *Teardown) Defer(fn func() error) { td.DeferNamed("", fn) }

// DeferNamed pushes a labelled callback onto the chain.
// The label prefixes the callback's error and shows up in Names.
func (td *Teardown) DeferNamed(name string, fn func() error) {
	if fn == nil {
		return
	}
	td.mutex.Lock()
	defer td.mutex.Unlock()
	td.chain = append(td.chain, link{name: name, fn: fn})
}

// Len reports how many callbacks wait on the chain.
func (td *Teardown) Len() int {
	td.mutex.Lock()
	defer td.mutex.Unlock()
	return len(td.chain)
}

// Names lists the labels of the waiting callbacks in the order they will run.
// Unlabelled callbacks are listed with an empty name.
func (td *Teardown) Names() []string {
	td.mutex.Lock()
	defer td.mutex.Unlock()
	names := make([]string, 0, len(td.chain))
	for _, l := range slices.Backward(td.chain) {
		names = append(names, l.name)
	}
	return names
}

// Finish unwinds the chain in reverse registration order.
//
// A callback that panics or calls runtime.Goexit doesn't prevent the remaining callbacks from running,
// the panic is re-raised after them.
// Finish is idempotent, an already unwound chain yields nil.
func (td *Teardown) Finish() error {
	var errs []error
	for {
		links := td.detach()
		if len(links) == 0 {
			break
		}
		errs = append(errs, unwind(links)...)
	}
	return errorkit.Merge(errs...)
}

// detach takes the current chain, so callbacks deferred during the unwinding form the next round.
func (td *Teardown) detach() []link {
	td.mutex.Lock()
	defer td.mutex.Unlock()
	links := td.chain
	td.chain = nil
	return links
}

// unwind relies on the defer stack for the reverse order and to survive panics and Goexit.
func unwind(links []link) (errs []error) {
	for _, l := range links {
		defer func() {
			if err := l.call(); err != nil {
				errs = append(errs, err)
			}
		}()
	}
	return errs
}
