package container

import "fmt"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Providers are pure producers: Register only calls the container's
// registration APIs (Bind, Singleton, Lazy, Tag, Alias, Describe) and reads
// IsRegistered / config — it never resolves. Boot() runs after ALL providers
// have registered, making it the first safe place to resolve other bindings.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton("logger", func(c *container.Container) any {
//	        return NewLogger(container.MustResolve[*config.Repository](c, "config"))
//	    })
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) error {
//	    logger := container.MustResolve[*Logger](app, "logger")
//	    logger.Info("application booted")
//	    return nil
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here — use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	// Safe to resolve and use any binding here.
	Boot(app *Container) error

	// Provides returns the list of abstract keys this provider registers.
	// Used for deferred (lazy) provider loading.
	// Return nil / empty slice if the provider is always eager.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily —
	// only when one of its Provides() abstracts is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
// Embed it in your provider and only override what you need.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers. Registration failures come back as
// ConfigurationError — never as a core resolution error.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // abstract → provider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		return r.interceptDeferred(provider)
	}

	if err := provider.Register(r.app); err != nil {
		return &ConfigurationError{Provider: providerName(provider), Cause: err}
	}
	r.eager = append(r.eager, provider)

	// If already booted, boot this provider immediately
	if r.booted {
		if err := provider.Boot(r.app); err != nil {
			return &ConfigurationError{Provider: providerName(provider), Cause: err}
		}
	}
	return nil
}

// interceptDeferred registers a lazy binding for each deferred abstract.
// The first resolution triggers real registration (+ boot if already booted).
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	for _, abstract := range provider.Provides() {
		abs := abstract // capture
		r.deferred[abs] = provider
		err := r.app.Bind(abs, func(c *Container) any {
			if _, pending := r.deferred[abs]; !pending {
				// Register ran but never re-bound this abstract; resolving
				// again would loop through this interceptor forever.
				panic(&ConfigurationError{
					Provider: providerName(provider),
					Cause:    fmt.Errorf("deferred provider did not bind %q", abs),
				})
			}
			if err := provider.Register(c); err != nil {
				panic(&ConfigurationError{Provider: providerName(provider), Cause: err})
			}
			for _, a := range provider.Provides() {
				delete(r.deferred, a)
			}
			if r.booted {
				if err := provider.Boot(c); err != nil {
					panic(&ConfigurationError{Provider: providerName(provider), Cause: err})
				}
			}
			return c.Make(abs)
		})
		if err != nil {
			return &ConfigurationError{Provider: providerName(provider), Cause: err}
		}
	}
	return nil
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return &ConfigurationError{Provider: providerName(provider), Cause: err}
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

func providerName(p ServiceProvider) string {
	return fmt.Sprintf("%T", p)
}
