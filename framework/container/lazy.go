package container

import (
	"sync"
	"sync/atomic"
)

// Deferred is the placeholder returned when resolving a lazy binding.
//
// Construction is deferred until the first Value() call; after that the
// materialized instance is returned on every access. There is no proxy
// magic — callers hold the thunk explicitly and unwrap it when ready:
//
//	c.Lazy("reports", func(c *container.Container) any { return buildReports(c) }, true)
//	d, _ := c.Resolve("reports")
//	reports := d.(*container.Deferred).Value() // factory runs here, once
type Deferred struct {
	once    sync.Once
	done    atomic.Bool
	factory func() any
	value   any
}

func newDeferred(factory func() any) *Deferred {
	return &Deferred{factory: factory}
}

// Value materializes the deferred instance on first call and returns it.
// Concurrent first calls serialize; the factory runs at most once.
func (d *Deferred) Value() any {
	d.once.Do(func() {
		d.value = d.factory()
		d.factory = nil
		d.done.Store(true)
	})
	return d.value
}

// Materialized reports whether the factory has already run.
func (d *Deferred) Materialized() bool {
	return d.done.Load()
}

// lazyRecord is the registry entry behind a Lazy() registration.
// proxy is populated on first resolution; for singletons it is also copied
// into the instance cache so later lookups take the O(1) path.
type lazyRecord struct {
	factory   Factory
	singleton bool
	proxy     *Deferred
}
