package container

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/security"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// binding holds a registered concrete and whether it is a singleton.
// concrete is one of: Factory, a described-type id (string), or a literal
// value returned verbatim.
type binding struct {
	concrete  any
	singleton bool
}

// metadata is the per-id record backing Tag/Tagged and the singleton flag.
type metadata struct {
	singleton bool
	tags      []string
}

// Extender wraps an already-resolved instance with decorator logic.
type Extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container — mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Lazy / Alias
//   - Resolve (with optional context) / Make / generic Resolve[T]
//   - Tags (group multiple abstractions under one tag)
//   - Contextual binding (when A needs B, give it C)
//   - Table-driven auto-wiring via type descriptors (Describe)
//   - Extend (decorate / wrap resolved instances)
//   - Rebound and after-resolving callbacks
//
// Every id, tag, and context string is validated against the security
// predicate before it is accepted; resolution failures come back as the
// typed errors in errors.go.
type Container struct {
	mu sync.RWMutex

	// unique instance id, for diagnostics
	id string

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved singleton instance
	instances map[string]any

	// abstract → singleton flag + tags
	meta map[string]*metadata

	// abstract → lazy registration
	lazies map[string]*lazyRecord

	// alias → abstract (canonical key)
	aliases map[string]string

	// abstract → extender funcs
	extenders map[string][]Extender

	// tag → []abstract, in Tag() call order
	tags map[string][]string

	// contextual: when[context][abstract] = concrete
	contextual map[string]map[string]any

	// type id → descriptor (auto-wiring table / metadata cache)
	types map[string]*TypeDef

	// immutable after construction
	config *config.Repository

	// rebound callbacks: abstract → []func(any)
	reboundCallbacks map[string][]func(any)

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)
}

// ContainerID is the id the container self-registers under; AppAlias is the
// conventional short alias for it. Resolve(ContainerID) never fails.
const (
	ContainerID = "container"
	AppAlias    = "app"
)

// New creates an empty container and self-registers it.
func New(opts ...Option) *Container {
	c := &Container{
		id:               uuid.NewString(),
		bindings:         make(map[string]*binding),
		instances:        make(map[string]any),
		meta:             make(map[string]*metadata),
		lazies:           make(map[string]*lazyRecord),
		aliases:          make(map[string]string),
		extenders:        make(map[string][]Extender),
		tags:             make(map[string][]string),
		contextual:       make(map[string]map[string]any),
		types:            make(map[string]*TypeDef),
		reboundCallbacks: make(map[string][]func(any)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.selfRegister()
	return c
}

// selfRegister binds the container to itself — like Laravel's $app->instance().
func (c *Container) selfRegister() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[ContainerID] = c
	c.meta[ContainerID] = &metadata{singleton: true}
	c.aliases[AppAlias] = ContainerID
}

// ID returns the container's unique instance id.
func (c *Container) ID() string { return c.id }

// String returns a short debug representation.
func (c *Container) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("Container(%s, %d bindings, %d instances)", c.id, len(c.bindings), len(c.instances))
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient binding: a new instance per resolution.
// concrete may be a Factory, a described-type id, or a literal value; nil
// means "same as id" (resolved by auto-wiring the id itself).
//
//	// Laravel: $app->bind(UserRepository::class, fn($app) => new EloquentUserRepository($app))
//	c.Bind("UserRepository", func(c *container.Container) any {
//	    return NewEloquentUserRepository(container.MustResolve[*Database](c, "db"))
//	})
func (c *Container) Bind(id string, concrete any) error {
	return c.bind(id, concrete, false)
}

// Singleton registers a binding whose result is cached after first resolution.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.Singleton("cache", func(c *container.Container) any {
//	    return NewRedisCache(container.MustResolve[*config.Repository](c, "config"))
//	})
func (c *Container) Singleton(id string, concrete any) error {
	return c.bind(id, concrete, true)
}

func (c *Container) bind(id string, concrete any, singleton bool) error {
	if err := c.validateID(id); err != nil {
		return err
	}
	if concrete == nil {
		concrete = id // no-op binding: the id names itself
	}

	c.mu.Lock()
	key := c.canonical(id)

	// Drop any existing singleton instance so it's rebuilt with the new concrete
	_, wasResolved := c.instances[key]
	delete(c.instances, key)
	delete(c.lazies, key)

	c.bindings[key] = &binding{concrete: concrete, singleton: singleton}
	if m, ok := c.meta[key]; ok {
		m.singleton = singleton // tags survive a rebind
	} else {
		c.meta[key] = &metadata{singleton: singleton}
	}
	c.mu.Unlock()

	if wasResolved {
		if instance, err := c.Resolve(id); err == nil {
			c.fireRebound(key, instance)
		}
	}
	return nil
}

// Instance registers a pre-built value as a singleton.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
func (c *Container) Instance(id string, instance any) error {
	if err := c.validateID(id); err != nil {
		return err
	}

	c.mu.Lock()
	key := c.canonical(id)
	delete(c.bindings, key)
	delete(c.lazies, key)
	c.instances[key] = instance
	if m, ok := c.meta[key]; ok {
		m.singleton = true
	} else {
		c.meta[key] = &metadata{singleton: true}
	}
	c.mu.Unlock()

	c.fireRebound(key, instance)
	return nil
}

// Lazy registers a deferred binding: resolving id yields a *Deferred whose
// factory runs on first Value() call. Singleton lazies cache the placeholder
// so every resolution returns the same thunk (and thus the same instance).
//
//	c.Lazy("heavy", func(c *container.Container) any { return NewHeavy() }, true)
func (c *Container) Lazy(id string, factory Factory, singleton bool) error {
	if err := c.validateID(id); err != nil {
		return err
	}
	if factory == nil {
		return &InvalidServiceError{ID: id, Reason: "nil lazy factory"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	delete(c.bindings, key)
	delete(c.instances, key)
	c.lazies[key] = &lazyRecord{factory: factory, singleton: singleton}
	if m, ok := c.meta[key]; ok {
		m.singleton = singleton
	} else {
		c.meta[key] = &metadata{singleton: singleton}
	}
	return nil
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(id, alias string) error {
	if err := c.validateID(id); err != nil {
		return err
	}
	if err := c.validateID(alias); err != nil {
		return err
	}
	if id == alias {
		return &InvalidServiceError{ID: id, Reason: "aliased to itself"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = c.canonical(id)
	return nil
}

// Tag associates each of the given ids with a named group. Every id must
// already be registered.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(ids []string, tag string) error {
	if err := c.validateID(tag); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Validate the whole slice first so a bad id never leaves earlier
	// ids tagged — Tag is all-or-nothing.
	keys := make([]string, len(ids))
	for i, id := range ids {
		if !security.IsSecureIdentifier(id) {
			return &InvalidServiceError{ID: id, Reason: "fails the identifier safety check"}
		}
		key := c.canonical(id)
		if _, ok := c.meta[key]; !ok {
			return &NotFoundError{ID: id}
		}
		keys[i] = key
	}

	for _, key := range keys {
		m := c.meta[key]
		if !contains(m.tags, tag) {
			m.tags = append(m.tags, tag)
		}
		if !contains(c.tags[tag], key) {
			c.tags[tag] = append(c.tags[tag], key)
		}
	}
	return nil
}

// Extend decorates the resolved instance of an abstract. If the abstract has
// already been resolved as a singleton, the extender is applied immediately.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return &TimestampLogger{Inner: instance.(*Logger)}
//	})
func (c *Container) Extend(id string, fn Extender) error {
	if err := c.validateID(id); err != nil {
		return err
	}

	c.mu.Lock()
	key := c.canonical(id)
	c.extenders[key] = append(c.extenders[key], fn)

	inst, resolved := c.instances[key]
	if resolved {
		extended := fn(inst, c)
		c.instances[key] = extended
		inst = extended
	}
	c.mu.Unlock()

	if resolved {
		c.fireRebound(key, inst)
	}
	return nil
}

// Forget removes every trace of an id: binding, instance, metadata, lazy
// record, tags, extenders, aliases, and contextual entries. Forgetting an
// unknown id is a no-op.
//
//	// Laravel: $app->forgetInstance(Cache::class)
func (c *Container) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)

	delete(c.bindings, key)
	delete(c.instances, key)
	delete(c.meta, key)
	delete(c.lazies, key)
	delete(c.extenders, key)
	delete(c.contextual, key)
	for ctx := range c.contextual {
		delete(c.contextual[ctx], key)
	}
	for tag, ids := range c.tags {
		c.tags[tag] = remove(ids, key)
		if len(c.tags[tag]) == 0 {
			delete(c.tags, tag)
		}
	}
	for alias, target := range c.aliases {
		if alias == key || target == key {
			delete(c.aliases, alias)
		}
	}
}

// Flush resets the entire container, then re-establishes self-registration.
func (c *Container) Flush() {
	c.mu.Lock()
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.meta = make(map[string]*metadata)
	c.lazies = make(map[string]*lazyRecord)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]Extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]any)
	c.types = make(map[string]*TypeDef)
	c.reboundCallbacks = make(map[string][]func(any))
	c.afterResolving = nil
	c.mu.Unlock()

	c.selfRegister()
}

// GC drops lazy placeholders that materialized but no longer have a
// corresponding cached instance (e.g. transient lazies). Purely a memory
// optimization; behavior is unchanged.
func (c *Container) GC() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, rec := range c.lazies {
		if rec.proxy != nil && rec.proxy.Materialized() {
			if _, cached := c.instances[key]; !cached {
				rec.proxy = nil
			}
		}
	}
}

// ── Introspection ─────────────────────────────────────────────────────────────

// IsRegistered reports whether an id has an explicit registration
// (binding, instance, or lazy record).
func (c *Container) IsRegistered(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRegisteredLocked(c.canonical(id))
}

func (c *Container) isRegisteredLocked(key string) bool {
	if _, ok := c.bindings[key]; ok {
		return true
	}
	if _, ok := c.instances[key]; ok {
		return true
	}
	_, ok := c.lazies[key]
	return ok
}

// Bound is the Laravel name for IsRegistered.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Bound(id string) bool { return c.IsRegistered(id) }

// Has reports whether an id is resolvable: registered, or auto-wirable via
// a type descriptor.
func (c *Container) Has(id string) bool {
	return c.IsRegistered(id) || c.Described(id)
}

// Resolved returns true if the id has a cached instance.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(id)]
	return ok
}

// Bindings returns all registered abstract keys (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registeredKeysLocked()
}

// registeredKeysLocked lists every explicitly registered key. Callers hold mu.
func (c *Container) registeredKeysLocked() []string {
	out := make([]string, 0, len(c.bindings)+len(c.instances)+len(c.lazies))
	seen := make(map[string]struct{})
	add := func(k string) {
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for k := range c.bindings {
		add(k)
	}
	for k := range c.instances {
		add(k)
	}
	for k := range c.lazies {
		add(k)
	}
	return out
}

// GetConfig reads the container's configuration repository by dotted-path
// key. A missing key, nil repository, or key containing ".." yields the
// provided default (or nil).
func (c *Container) GetConfig(key string, defaultVal ...any) any {
	var fallback any
	if len(defaultVal) > 0 {
		fallback = defaultVal[0]
	}
	if c.config == nil {
		return fallback
	}
	return c.config.Get(key, fallback)
}

// Config exposes the underlying repository (nil if none was attached).
func (c *Container) Config() *config.Repository { return c.config }

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback fired whenever id is re-bound over an
// existing instance.
//
//	// Laravel: $app->rebinding(UserRepository::class, fn($app, $repo) => ...)
func (c *Container) Rebinding(id string, cb func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	c.reboundCallbacks[key] = append(c.reboundCallbacks[key], cb)
}

// AfterResolving registers a callback fired after any abstract is resolved.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(id string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireRebound(key string, instance any) {
	c.mu.RLock()
	cbs := c.reboundCallbacks[key]
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(key string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(key, instance)
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// canonical resolves an alias to its canonical key. Callers may hold mu.
func (c *Container) canonical(id string) string {
	if target, ok := c.aliases[id]; ok {
		return target
	}
	return id
}

// validateID runs the identifier safety predicate.
func (c *Container) validateID(id string) error {
	if !security.IsSecureIdentifier(id) {
		return &InvalidServiceError{ID: id, Reason: "fails the identifier safety check"}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
//	c.Singleton(key, factory)
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve is a generic helper that resolves and type-asserts in one step.
//
//	cache, err := container.Resolve[*RedisCache](c, "cache")
func Resolve[T any](c *Container, id string, context ...string) (T, error) {
	var zero T
	instance, err := c.Resolve(id, context...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &InvalidServiceError{
			ID:     id,
			Reason: fmt.Sprintf("resolved to %T, want %T", instance, zero),
		}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure — for bootstrap code
// where a missing binding is a programming error.
func MustResolve[T any](c *Container, id string, context ...string) T {
	typed, err := Resolve[T](c, id, context...)
	if err != nil {
		panic(err)
	}
	return typed
}
