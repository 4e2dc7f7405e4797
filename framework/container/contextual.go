package container

// conditionalBinding is stored by GiveWhen: the predicate is evaluated at
// resolution time, and a false result fails the resolution.
type conditionalBinding struct {
	predicate func(c *Container) bool
	impl      any
}

// taggedBinding is stored by GiveTagged: resolved to the first service of
// the tag, failing if the tag has no members.
type taggedBinding struct {
	tag string
}

// ContextualBuilder implements the fluent contextual binding API.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(...)
//	c.When("PhotoController").Needs("Filesystem").Give(func(c *container.Container) any {
//	    return NewS3Filesystem()
//	})
type ContextualBuilder struct {
	container *Container
	context   string
	needs     string
	err       error
}

// When starts a contextual binding chain for the given context id.
func (c *Container) When(context string) *ContextualBuilder {
	b := &ContextualBuilder{container: c, context: context}
	b.err = c.validateID(context)
	return b
}

// Needs specifies which abstract the context depends on.
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = abstract
	if b.err == nil {
		b.err = b.container.validateID(abstract)
	}
	return b
}

// Give provides the concrete value used when the context resolves the
// abstract: a Factory, a described-type id, or a literal.
func (b *ContextualBuilder) Give(concrete any) error {
	return b.store(concrete)
}

// GiveValue is a shorthand for a pre-built instance or scalar.
//
//	// Laravel: ->give('/tmp/photos')
//	c.When("PhotoController").Needs("storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) error {
	return b.store(func(_ *Container) any { return value })
}

// GiveFactory provides an explicit factory.
func (b *ContextualBuilder) GiveFactory(fn Factory) error {
	if fn == nil {
		return &InvalidServiceError{ID: b.needs, Reason: "nil contextual factory"}
	}
	return b.store(fn)
}

// GiveTagged resolves the abstract to the first service registered under
// tag; resolution fails with TagNotFoundError if the tag has no members.
//
//	// Laravel: ->giveTagged('reports')
func (b *ContextualBuilder) GiveTagged(tag string) error {
	if b.err == nil {
		b.err = b.container.validateID(tag)
	}
	return b.store(&taggedBinding{tag: tag})
}

// GiveWhen gates the implementation behind a predicate evaluated at
// resolution time. A false predicate fails with CannotResolveError.
func (b *ContextualBuilder) GiveWhen(predicate func(c *Container) bool, impl any) error {
	if predicate == nil {
		return &InvalidServiceError{ID: b.needs, Reason: "nil contextual predicate"}
	}
	return b.store(&conditionalBinding{predicate: predicate, impl: impl})
}

func (b *ContextualBuilder) store(concrete any) error {
	if b.err != nil {
		return b.err
	}
	if b.needs == "" {
		return &InvalidServiceError{ID: b.context, Reason: "contextual binding without Needs()"}
	}

	c := b.container
	c.mu.Lock()
	defer c.mu.Unlock()

	ctxKey := c.canonical(b.context)
	if _, ok := c.contextual[ctxKey]; !ok {
		c.contextual[ctxKey] = make(map[string]any)
	}
	c.contextual[ctxKey][c.canonical(b.needs)] = concrete
	return nil
}
