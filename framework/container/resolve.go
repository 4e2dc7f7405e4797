package container

import (
	"errors"

	"github.com/km-arc/go-container/framework/security"
)

// maxReportedChain caps the dependency chain carried by
// CircularDependencyError so pathological graphs stay readable.
const maxReportedChain = 16

// buildState is the in-flight resolution ledger for one top-level Resolve
// call. It is created per call and threaded through the recursion, never
// shared between unrelated resolutions, so concurrent resolves cannot
// trip each other's cycle detection.
type buildState struct {
	chain []string
	set   map[string]struct{}
}

func newBuildState() *buildState {
	return &buildState{set: make(map[string]struct{}, 8)}
}

// enter marks key as under construction, failing if it already is.
func (s *buildState) enter(key string) error {
	if _, in := s.set[key]; in {
		chain := append(append([]string{}, s.chain...), key)
		if len(chain) > maxReportedChain {
			chain = chain[len(chain)-maxReportedChain:]
		}
		return &CircularDependencyError{Chain: chain}
	}
	s.set[key] = struct{}{}
	s.chain = append(s.chain, key)
	return nil
}

// exit removes key from the ledger. Always called, success or failure.
func (s *buildState) exit(key string) {
	delete(s.set, key)
	if n := len(s.chain); n > 0 && s.chain[n-1] == key {
		s.chain = s.chain[:n-1]
	}
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve resolves an id, optionally within a calling context.
//
// Priority order, each step short-circuiting:
//  1. cached singleton instance
//  2. contextual override for (context, id) — never memoized
//  3. lazy record (returns the *Deferred placeholder)
//  4. unbound id: auto-wire if a type descriptor exists, else NotFoundError
//     with "did you mean" suggestions
//  5. standard resolution of the binding, with cycle detection
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Resolve("UserRepository")
//	fs, err := c.Resolve("Filesystem", "PhotoController") // contextual
func (c *Container) Resolve(id string, context ...string) (any, error) {
	if err := c.validateID(id); err != nil {
		return nil, err
	}
	var ctx string
	if len(context) > 0 && context[0] != "" {
		ctx = context[0]
		if err := c.validateID(ctx); err != nil {
			return nil, err
		}
	}
	return c.resolve(newBuildState(), id, ctx)
}

// Get is the context-free alias for Resolve (PSR-11 style).
func (c *Container) Get(id string) (any, error) {
	return c.Resolve(id)
}

// Make resolves an id, panicking on failure — the bootstrap-time
// convenience mirroring Laravel's $app->make().
func (c *Container) Make(id string) any {
	instance, err := c.Resolve(id)
	if err != nil {
		panic(err)
	}
	return instance
}

// resolve is the internal resolver; st carries the cycle-detection ledger.
func (c *Container) resolve(st *buildState, id, ctx string) (any, error) {
	c.mu.RLock()
	key := c.canonical(id)

	// 1. instance cache
	if inst, ok := c.instances[key]; ok {
		c.mu.RUnlock()
		return inst, nil
	}

	// 2. contextual override
	var contextual any
	var hasContextual bool
	if ctx != "" {
		if m, ok := c.contextual[c.canonical(ctx)]; ok {
			if v, ok := m[key]; ok {
				contextual, hasContextual = v, true
			}
		}
	}

	rec := c.lazies[key]
	b := c.bindings[key]
	c.mu.RUnlock()

	if hasContextual {
		out, err := c.build(st, key, contextual)
		if err != nil {
			return nil, err
		}
		out = c.applyExtenders(key, out)
		c.fireAfterResolving(key, out)
		return out, nil
	}

	// 3. lazy record
	if rec != nil {
		return c.resolveLazy(key, rec)
	}

	// 4. unbound: auto-wire a described type, else not found
	if b == nil {
		if def := c.typeDef(key); def != nil {
			return c.autoWire(st, key, def, false)
		}
		return nil, &NotFoundError{ID: id, Suggestions: c.suggestions(key)}
	}

	// 5. standard resolution with cycle detection
	if err := st.enter(key); err != nil {
		return nil, err
	}
	defer st.exit(key)

	out, err := c.build(st, key, b.concrete)
	if err != nil {
		return nil, err
	}
	out = c.applyExtenders(key, out)

	if b.singleton {
		c.mu.Lock()
		if existing, ok := c.instances[key]; ok {
			// a concurrent resolution won the race; keep its instance
			c.mu.Unlock()
			return existing, nil
		}
		c.instances[key] = out
		c.mu.Unlock()
	}

	c.fireAfterResolving(key, out)
	return out, nil
}

// build turns a concrete value into an instance: invoke factories, auto-wire
// described-type ids, evaluate contextual records, and return everything
// else verbatim (pre-built objects and literal bindings).
func (c *Container) build(st *buildState, enclosing string, concrete any) (any, error) {
	switch v := concrete.(type) {
	case Factory:
		return v(c), nil
	case func(*Container) any:
		return v(c), nil
	case *conditionalBinding:
		if !v.predicate(c) {
			return nil, &CannotResolveError{Context: enclosing, Reason: "contextual predicate rejected the binding"}
		}
		return c.build(st, enclosing, v.impl)
	case *taggedBinding:
		instances, err := c.taggedWith(st, v.tag)
		if err != nil {
			return nil, err
		}
		if len(instances) == 0 {
			return nil, &TagNotFoundError{Tag: v.tag}
		}
		return instances[0], nil
	case string:
		c.mu.RLock()
		key := c.canonical(v)
		c.mu.RUnlock()
		if def := c.typeDef(key); def != nil {
			// key == enclosing is a no-op binding: the standard path has
			// already entered it on the ledger.
			return c.autoWire(st, key, def, key == enclosing)
		}
		return v, nil // literal string binding
	default:
		return v, nil
	}
}

// ── Auto-wiring ───────────────────────────────────────────────────────────────

// autoWire constructs an instance from a type descriptor: safety-check the
// type, resolve each constructor parameter in declaration order, and invoke
// the build function. The result is not registered.
//
// entered is true only when the caller already put key on the ledger (a
// no-op binding whose concrete names itself); every other entry must run
// the cycle check here, or a self-dependent descriptor recurses unbounded.
func (c *Container) autoWire(st *buildState, key string, def *TypeDef, entered bool) (any, error) {
	if !security.IsSafeType(def.Methods) {
		return nil, &SecurityViolationError{ID: key, Reason: "type exposes a blacklisted method"}
	}
	if def.New == nil {
		return nil, &CannotResolveError{Context: key, Reason: "type is not instantiable"}
	}

	if !entered {
		if err := st.enter(key); err != nil {
			return nil, err
		}
		defer st.exit(key)
	}

	var args []any
	if len(def.Params) > 0 {
		args = make([]any, len(def.Params))
		for i, p := range def.Params {
			v, err := c.bindParam(st, def.ID, p)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
	}

	out := def.New(args)
	c.fireAfterResolving(key, out)
	return out, nil
}

// bindParam resolves one constructor parameter. Precedence: Inject directive,
// Config directive, declared type (contextual override for the enclosing type
// first), declared default. Anything else is unsatisfiable.
func (c *Container) bindParam(st *buildState, enclosing string, p Param) (any, error) {
	if p.Inject != nil {
		switch {
		case p.Inject.ID != "":
			v, err := c.resolve(st, p.Inject.ID, "")
			if err != nil {
				var nf *NotFoundError
				if p.Inject.Optional && errors.As(err, &nf) {
					return nil, nil
				}
				return nil, err
			}
			return v, nil
		case p.Inject.Tag != "":
			instances, err := c.taggedWith(st, p.Inject.Tag)
			if err != nil {
				return nil, err
			}
			if len(instances) == 0 {
				if p.Inject.Optional {
					return nil, nil
				}
				return nil, &TagNotFoundError{Tag: p.Inject.Tag}
			}
			return instances[0], nil
		case p.Inject.Optional:
			return nil, nil
		default:
			return nil, &CannotResolveError{Param: p.Name, Context: enclosing, Reason: "empty inject directive"}
		}
	}

	if p.Config != nil {
		return c.GetConfig(p.Config.Key, p.Config.Default), nil
	}

	if p.Type != "" {
		c.mu.RLock()
		typeKey := c.canonical(p.Type)
		var contextual any
		var hasContextual bool
		if m, ok := c.contextual[c.canonical(enclosing)]; ok {
			if v, ok := m[typeKey]; ok {
				contextual, hasContextual = v, true
			}
		}
		registered := c.isRegisteredLocked(typeKey)
		c.mu.RUnlock()

		if hasContextual {
			return c.build(st, typeKey, contextual)
		}
		if registered || c.typeDef(typeKey) != nil {
			return c.resolve(st, p.Type, "")
		}
	}

	if p.HasDefault {
		return p.Default, nil
	}

	return nil, &CannotResolveError{
		Param:   p.Name,
		Context: enclosing,
		Reason:  "no directive, declared type not resolvable, no default",
	}
}

// ── Lazy resolution ───────────────────────────────────────────────────────────

// resolveLazy returns the deferred placeholder for a lazy id, creating it on
// first resolution. Singleton placeholders are copied into the instance
// cache so subsequent lookups take the O(1) path.
func (c *Container) resolveLazy(key string, rec *lazyRecord) (any, error) {
	c.mu.Lock()
	if rec.proxy != nil {
		proxy := rec.proxy
		c.mu.Unlock()
		return proxy, nil
	}
	factory := rec.factory
	proxy := newDeferred(func() any { return factory(c) })
	rec.proxy = proxy
	if rec.singleton {
		c.instances[key] = proxy
	}
	c.mu.Unlock()

	c.fireAfterResolving(key, proxy)
	return proxy, nil
}

// ── Tagged discovery ──────────────────────────────────────────────────────────

// Tagged resolves all services registered under a tag, in Tag() call order.
// The aggregate is never cached: each call re-resolves, so rebinds are
// reflected immediately.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	if err := c.validateID(tag); err != nil {
		return nil, err
	}
	return c.taggedWith(newBuildState(), tag)
}

func (c *Container) taggedWith(st *buildState, tag string) ([]any, error) {
	c.mu.RLock()
	ids := append([]string{}, c.tags[tag]...)
	c.mu.RUnlock()

	instances := make([]any, 0, len(ids))
	for _, id := range ids {
		instance, err := c.resolve(st, id, "")
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// applyExtenders runs registered extenders over a freshly built instance.
func (c *Container) applyExtenders(key string, instance any) any {
	c.mu.RLock()
	exts := c.extenders[key]
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}
