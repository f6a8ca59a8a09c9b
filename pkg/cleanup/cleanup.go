// Package cleanup is a registry for libraries that need their global state reset between tests,
// without having every test register the reset on its own.
//
// Registered callbacks are drained in registration order at the beginning and at the end of every composed test case.
//
// Drain is fail-fast: the first callback that fails aborts the batch,
// and the callbacks that weren't reached stay registered for the next drain.
package cleanup

import (
	"fmt"
	"reflect"
	"sync"
)

// Default is the process-wide registry.
// The package level functions operate on it.
var Default = NewRegistry()

// Register appends a one-shot callback to the Default registry.
func Register(fn any, args ...any) { Default.Register(fn, args...) }

// RegisterPersistent appends a callback to the Default registry which survives drains.
func RegisterPersistent(fn any, args ...any) { Default.RegisterPersistent(fn, args...) }

// Drain drains the Default registry.
func Drain() error { return Default.Drain() }

func NewRegistry() *Registry { return &Registry{} }

// Registry is an ordered list of deferred callbacks.
//
// It is not meant to be drained from concurrent tests,
// the mutex only protects registrations made from helper goroutines.
type Registry struct {
	mutex   sync.Mutex
	entries []Entry
}

// Entry is a registered callback with its positional arguments.
type Entry struct {
	Func any
	Args []any
	// Persistent entries are kept in the registry after they ran.
	Persistent bool

	fn reflect.Value
	in []reflect.Value
}

// Register appends a callback that runs once, on the next drain.
//
// fn must be a function, and args must be assignable to its parameters.
// If fn's last result is an error, a non-nil error is treated as a cleanup failure.
// An invalid registration panics, as it is a programming mistake at the call site.
func (r *Registry) Register(fn any, args ...any) {
	r.append(newEntry(fn, args, false))
}

// RegisterPersistent appends a callback that runs on every drain.
func (r *Registry) RegisterPersistent(fn any, args ...any) {
	r.append(newEntry(fn, args, true))
}

func (r *Registry) append(e Entry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a snapshot of the registered callbacks in registration order.
func (r *Registry) Entries() []Entry {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.entries)
}

// Drain invokes the registered callbacks in registration order.
//
// One-shot entries are removed before they run.
// The first failing callback aborts the drain and its error is returned;
// a panic is reported as an error too.
func (r *Registry) Drain() error {
	r.mutex.Lock()
	pending := r.entries
	r.entries = nil
	r.mutex.Unlock()

	var kept []Entry
	for i, e := range pending {
		if e.Persistent {
			kept = append(kept, e)
		}
		if err := e.call(); err != nil {
			r.restore(kept, pending[i+1:])
			return err
		}
	}
	r.restore(kept, nil)
	return nil
}

// restore puts back the entries that must outlive the drain,
// in front of anything registered while the drain was running.
func (r *Registry) restore(kept, unreached []Entry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var entries []Entry
	entries = append(entries, kept...)
	entries = append(entries, unreached...)
	entries = append(entries, r.entries...)
	r.entries = entries
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func newEntry(fn any, args []any, persistent bool) Entry {
	rfn := reflect.ValueOf(fn)
	if rfn.Kind() != reflect.Func || rfn.IsNil() {
		panic(fmt.Sprintf("cleanup: callback must be a non-nil function, got %T", fn))
	}
	in, err := toArgs(rfn.Type(), args)
	if err != nil {
		panic(fmt.Sprintf("cleanup: %s", err.Error()))
	}
	return Entry{
		Func:       fn,
		Args:       args,
		Persistent: persistent,
		fn:         rfn,
		in:         in,
	}
}

func toArgs(fnType reflect.Type, args []any) ([]reflect.Value, error) {
	var (
		numIn      = fnType.NumIn()
		isVariadic = fnType.IsVariadic()
	)
	switch {
	case !isVariadic && len(args) != numIn:
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", fnType, numIn, len(args))
	case isVariadic && len(args) < numIn-1:
		return nil, fmt.Errorf("%s expects at least %d argument(s), got %d", fnType, numIn-1, len(args))
	}
	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if isVariadic && numIn-1 <= i {
			paramType = fnType.In(numIn - 1).Elem()
		} else {
			paramType = fnType.In(i)
		}
		v, err := toArg(paramType, arg, i)
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	return in, nil
}

func toArg(paramType reflect.Type, arg any, i int) (reflect.Value, error) {
	if arg == nil {
		switch paramType.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(paramType), nil
		default:
			return reflect.Value{}, fmt.Errorf("argument #%d is nil, but %s is not nilable", i, paramType)
		}
	}
	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(paramType) {
		return reflect.Value{}, fmt.Errorf("argument #%d of type %s is not assignable to %s", i, v.Type(), paramType)
	}
	return v, nil
}

func (e Entry) call() (rErr error) {
	defer func() {
		if r := recover(); r != nil {
			rErr = fmt.Errorf("cleanup panicked: %v", r)
		}
	}()
	out := e.fn.Call(e.in)
	if n := len(out); 0 < n && e.fn.Type().Out(n-1) == errorType {
		if err, ok := out[n-1].Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}
