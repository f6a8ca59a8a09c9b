package teardown_test

import (
	"errors"
	"runtime"
	"sync"
	"testing"

	"go.llib.dev/fixturekit/pkg/teardown"
	"go.llib.dev/testcase/assert"
	"go.llib.dev/testcase/sandbox"
)

func TestTeardown_Defer_order(t *testing.T) {
	td := &teardown.Teardown{}
	var res []int
	td.Defer(func() error { res = append(res, 3); return nil })
	td.Defer(func() error { res = append(res, 2); return nil })
	td.Defer(func() error { res = append(res, 1); return nil })
	td.Defer(func() error { res = append(res, 0); return nil })
	assert.NoError(t, td.Finish())
	assert.Equal(t, []int{0, 1, 2, 3}, res)
}

func TestTeardown_Defer_nilIsIgnored(t *testing.T) {
	td := &teardown.Teardown{}
	td.Defer(nil)
	assert.Equal(t, 0, td.Len())
	assert.NoError(t, td.Finish())
}

func TestTeardown_Len(t *testing.T) {
	td := &teardown.Teardown{}
	assert.Equal(t, 0, td.Len())
	td.Defer(func() error { return nil })
	td.Defer(func() error { return nil })
	assert.Equal(t, 2, td.Len())
	assert.NoError(t, td.Finish())
	assert.Equal(t, 0, td.Len())
}

func TestTeardown_DeferNamed(t *testing.T) {
	var (
		td      = &teardown.Teardown{}
		errDB   = errors.New("connection refused")
		errHTTP = errors.New("pending responses")
	)
	td.DeferNamed("database", func() error { return errDB })
	td.Defer(func() error { return nil })
	td.DeferNamed("http", func() error { return errHTTP })
	td.DeferNamed("cache", func() error { return nil })
	assert.Equal(t, []string{"cache", "http", "", "database"}, td.Names())

	err := td.Finish()
	assert.ErrorIs(t, errDB, err)
	assert.ErrorIs(t, errHTTP, err)
	assert.Contains(t, err.Error(), "database: connection refused")
	assert.Contains(t, err.Error(), "http: pending responses")
	assert.Empty(t, td.Names())
}

func TestTeardown_Finish_continuesOnError(t *testing.T) {
	var (
		td   = &teardown.Teardown{}
		errA = errors.New("boom A")
		errB = errors.New("boom B")
		ran  []string
	)
	td.Defer(func() error { ran = append(ran, "first"); return errA })
	td.Defer(func() error { ran = append(ran, "second"); return nil })
	td.Defer(func() error { ran = append(ran, "third"); return errB })

	err := td.Finish()
	assert.Error(t, err)
	assert.ErrorIs(t, errA, err)
	assert.ErrorIs(t, errB, err)
	assert.Equal(t, []string{"third", "second", "first"}, ran)
}

func TestTeardown_Defer_smoke(t *testing.T) {
	var a, b, c bool
	out := sandbox.Run(func() {
		td := &teardown.Teardown{}
		defer td.Finish()
		td.Defer(func() error {
			a = true
			return nil
		})
		td.Defer(func() error {
			b = true
			return nil
		})
		td.Defer(func() error {
			c = true
			return nil
		})
	})
	assert.True(t, out.OK)
	assert.True(t, a)
	assert.True(t, b)
	assert.True(t, c)
}

func TestTeardown_Defer_panic(t *testing.T) {
	var a, b, c bool
	const expectedPanicMessage = `boom`

	td := &teardown.Teardown{}
	td.Defer(func() error { a = true; return nil })
	td.Defer(func() error { b = true; panic(expectedPanicMessage) })
	td.Defer(func() error { c = true; return nil })

	actualPanicValue := func() (r any) {
		defer func() { r = recover() }()
		_ = td.Finish()
		return nil
	}()

	assert.True(t, a)
	assert.True(t, b)
	assert.True(t, c)
	assert.Equal[any](t, expectedPanicMessage, actualPanicValue)
}

func TestTeardown_Defer_withinCleanup(t *testing.T) {
	var order []string
	td := &teardown.Teardown{}
	td.Defer(func() error {
		order = append(order, "a")
		td.Defer(func() error {
			order = append(order, "b")
			td.Defer(func() error {
				order = append(order, "c")
				return nil
			})
			return nil
		})
		return nil
	})
	assert.NoError(t, td.Finish())
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTeardown_Defer_runtimeGoexit(t *testing.T) {
	sandbox.Run(func() {
		var ran bool
		defer func() { assert.True(t, ran) }()
		td := &teardown.Teardown{}
		td.Defer(func() error { ran = true; return nil })
		td.Defer(func() error { runtime.Goexit(); return nil })
		assert.NoError(t, td.Finish())
	})
}

func TestTeardown_Defer_isThreadSafe(t *testing.T) {
	var (
		td       = &teardown.Teardown{}
		out      = &sync.Map{}
		sampling = runtime.NumCPU() * 42

		start sync.WaitGroup
		wg    sync.WaitGroup
	)

	start.Add(1)
	for i := 0; i < sampling; i++ {
		n := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			start.Wait()
			td.Defer(func() error {
				out.Store(n, struct{}{})
				return nil
			})
		}()
	}
	start.Done()
	wg.Wait()
	assert.NoError(t, td.Finish())

	for i := 0; i < sampling; i++ {
		_, ok := out.Load(i)
		assert.True(t, ok)
	}
}

func TestTeardown_Finish_idempotent(t *testing.T) {
	var count int
	td := &teardown.Teardown{}
	td.Defer(func() error { count++; return nil })
	assert.NoError(t, td.Finish())
	assert.NoError(t, td.Finish())
	assert.Equal(t, 1, count)
}
