// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container and Service Provider system for Go.
//
// # Overview
//
// The container manages the instantiation and lifecycle of your application's
// dependencies. It supports transient bindings, singletons, pre-built
// instances, lazy (deferred) services, aliases, tags, contextual bindings,
// extension (decoration), and table-driven auto-wiring.
//
// It mirrors the public API of Laravel's Illuminate\Container\Container as
// closely as Go's type system allows. Because Go has no runtime constructor
// reflection, auto-wiring is driven by explicit type descriptors (Describe)
// instead of reflective constructor introspection.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithConfig(config.Load()))
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        — safe to resolve everything after this
//  4. Resolve services
//
// # Bindings
//
//	// Transient — new instance every Resolve()
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("Foo", func(c *container.Container) any { return &Foo{} })
//
//	// Singleton — created once, reused
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.Singleton("cache", func(c *container.Container) any {
//	    cfg := container.MustResolve[*config.Repository](c, "config")
//	    return NewRedisCache(cfg)
//	})
//
//	// Pre-built value
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
//
//	// Deferred construction — factory runs on first Value() call
//	c.Lazy("reports", func(c *container.Container) any { return buildReports(c) }, true)
//
//	// Alias
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
//
// # Resolving
//
//	// Untyped, with error
//	svc, err := c.Resolve("cache")
//
//	// Panicking (bootstrap code)
//	// Laravel: $app->make(Cache::class)
//	raw := c.Make("cache")
//
//	// Generic (preferred — no type assertion required)
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//
// Unregistered ids that have a type descriptor are auto-wired on the fly;
// anything else fails with NotFoundError carrying "did you mean" suggestions
// ranked by string similarity against the registered ids.
//
// # Auto-wiring
//
// A type descriptor names the constructor parameters and how each one is
// satisfied — by explicit injection, a config value, the declared type, or
// a default:
//
//	c.Describe(&container.TypeDef{
//	    ID: "PhotoService",
//	    Params: []container.Param{
//	        {Name: "fs", Type: "Filesystem"},
//	        {Name: "mailer", Inject: &container.Inject{ID: "mailer", Optional: true}},
//	        {Name: "maxSize", Config: &container.ConfigValue{Key: "photos.max_size", Default: 1024}},
//	    },
//	    New: func(args []any) any {
//	        return NewPhotoService(args[0].(Filesystem), args[1], args[2].(int))
//	    },
//	})
//
// Dependency cycles between described types are detected during resolution
// and reported with the full build chain.
//
// # Contextual Binding
//
//	// Laravel: $app->when(PhotoController::class)
//	//              ->needs(Filesystem::class)
//	//              ->give(fn() => new S3Filesystem)
//	c.When("PhotoController").
//	    Needs("Filesystem").
//	    Give(func(c *container.Container) any { return &S3Filesystem{} })
//
//	fs, err := c.Resolve("Filesystem", "PhotoController")
//
// # Tags
//
//	// Laravel: $app->tag([CpuReport::class, MemReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemReport"}, "reports")
//	reports, err := c.Tagged("reports")  // []any, registration order
//
// # Extend / Decorate
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return &TimestampLogger{Inner: instance.(*Logger)}
//	})
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton("mailer", func(c *container.Container) any {
//	        cfg := container.MustResolve[*config.Repository](c, "config")
//	        return NewSMTPMailer(cfg)
//	    })
//	}
//
//	registry := container.NewProviderRegistry(c)
//	if err := registry.Register(&AppServiceProvider{}); err != nil { ... }
//	if err := registry.Boot(); err != nil { ... }
//
// # Safety
//
// Every id, tag, and context string must pass the identifier predicate in
// package security before the container accepts it, and described types are
// checked against a method-name blacklist before auto-wiring. Violations
// surface as InvalidServiceError and SecurityViolationError respectively.
package container
