package container_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
)

// ── auto-wired test types ─────────────────────────────────────────────────────

type database struct {
	dsn string
}

type repository struct {
	db *database
}

type service struct {
	repo    *repository
	mailer  any
	appName string
}

// describeGraph registers the database → repository → service descriptor
// chain used by the auto-wiring tests.
func describeGraph(t *testing.T, c *container.Container) {
	t.Helper()
	defs := []*container.TypeDef{
		{
			ID:  "database",
			New: func(args []any) any { return &database{dsn: "sqlite::memory:"} },
		},
		{
			ID:     "repository",
			Params: []container.Param{{Name: "db", Type: "database"}},
			New:    func(args []any) any { return &repository{db: args[0].(*database)} },
		},
		{
			ID: "service",
			Params: []container.Param{
				{Name: "repo", Type: "repository"},
				{Name: "mailer", Inject: &container.Inject{ID: "mailer", Optional: true}},
				{Name: "appName", Config: &container.ConfigValue{Key: "app.name", Default: "unnamed"}},
			},
			New: func(args []any) any {
				s := &service{repo: args[0].(*repository), appName: args[2].(string)}
				s.mailer = args[1]
				return s
			},
		},
	}
	for _, def := range defs {
		if err := c.Describe(def); err != nil {
			t.Fatalf("Describe(%s): %v", def.ID, err)
		}
	}
}

// ── resolution priority ───────────────────────────────────────────────────────

func TestResolve_InstanceCacheWinsOverBinding(t *testing.T) {
	c := container.New()
	obj := &dummyService{name: "cached"}
	c.Instance("svc", obj)

	if got := c.Make("svc"); got != obj {
		t.Error("cached instance should win over any other source")
	}
}

func TestResolve_LazyWinsOverMissingBinding(t *testing.T) {
	c := container.New()
	c.Lazy("svc", func(c *container.Container) any { return &dummyService{} }, true)

	got, err := c.Resolve("svc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := got.(*container.Deferred); !ok {
		t.Errorf("resolving a lazy id should return a *Deferred, got %T", got)
	}
}

func TestResolve_NotFound(t *testing.T) {
	c := container.New()

	_, err := c.Resolve("missing")
	var notFound *container.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if notFound.ID != "missing" {
		t.Errorf("NotFoundError.ID: got %q", notFound.ID)
	}
}

func TestResolve_NotFoundSuggestions(t *testing.T) {
	c := container.New()
	c.Bind("mailer", func(c *container.Container) any { return nil })
	c.Bind("database.connection", func(c *container.Container) any { return nil })

	_, err := c.Resolve("maler")
	var notFound *container.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if len(notFound.Suggestions) == 0 || notFound.Suggestions[0] != "mailer" {
		t.Errorf("want 'mailer' as best suggestion, got %v", notFound.Suggestions)
	}
	if !strings.Contains(err.Error(), "Did you mean") {
		t.Errorf("error text should render suggestions, got %q", err.Error())
	}
}

func TestResolve_SecurityGateBeforeLookup(t *testing.T) {
	c := container.New()

	_, err := c.Resolve("../etc/passwd")
	var invalid *container.InvalidServiceError
	if !errors.As(err, &invalid) {
		t.Fatalf("want InvalidServiceError, got %v", err)
	}
}

func TestResolve_InvalidContextRejected(t *testing.T) {
	c := container.New()
	c.Instance("svc", &dummyService{})

	_, err := c.Resolve("svc", "../ctx")
	var invalid *container.InvalidServiceError
	if !errors.As(err, &invalid) {
		t.Errorf("want InvalidServiceError for malformed context, got %v", err)
	}
}

func TestGet_IsContextFreeAlias(t *testing.T) {
	c := container.New()
	obj := &dummyService{}
	c.Instance("svc", obj)

	got, err := c.Get("svc")
	if err != nil || got != obj {
		t.Errorf("Get: got (%v, %v), want the registered instance", got, err)
	}
}

func TestMake_PanicsOnFailure(t *testing.T) {
	c := container.New()
	defer func() {
		if recover() == nil {
			t.Error("Make should panic for an unresolvable id")
		}
	}()
	c.Make("missing")
}

// ── auto-wiring ───────────────────────────────────────────────────────────────

func TestAutoWire_UnregisteredDescribedType(t *testing.T) {
	c := container.New()
	describeGraph(t, c)

	got := container.MustResolve[*repository](c, "repository")
	if got.db == nil || got.db.dsn != "sqlite::memory:" {
		t.Errorf("auto-wiring should resolve nested dependencies, got %+v", got)
	}
	if c.IsRegistered("repository") {
		t.Error("auto-wiring must not register the type")
	}
}

func TestAutoWire_FullParamPrecedence(t *testing.T) {
	repo := config.New()
	repo.Set("app.name", "Wired")
	c := container.New(container.WithConfig(repo))
	describeGraph(t, c)

	got := container.MustResolve[*service](c, "service")
	if got.repo == nil {
		t.Error("type-inferred parameter should resolve")
	}
	if got.mailer != nil {
		t.Error("optional inject with no binding should yield nil")
	}
	if got.appName != "Wired" {
		t.Errorf("config directive should read the repository, got %q", got.appName)
	}
}

func TestAutoWire_NotInstantiable(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{ID: "Abstract"}) // no New func

	_, err := c.Resolve("Abstract")
	var cannot *container.CannotResolveError
	if !errors.As(err, &cannot) {
		t.Errorf("want CannotResolveError for a non-instantiable type, got %v", err)
	}
}

func TestAutoWire_UnsafeTypeRejected(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:      "Shady",
		Methods: []string{"Process", "Exec"},
		New:     func(args []any) any { return &dummyService{} },
	})

	_, err := c.Resolve("Shady")
	var violation *container.SecurityViolationError
	if !errors.As(err, &violation) {
		t.Errorf("want SecurityViolationError, got %v", err)
	}
}

// ── cycle detection ───────────────────────────────────────────────────────────

func TestResolve_CircularDependency(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "A",
		Params: []container.Param{{Name: "b", Type: "B"}},
		New:    func(args []any) any { return args[0] },
	})
	c.Describe(&container.TypeDef{
		ID:     "B",
		Params: []container.Param{{Name: "a", Type: "A"}},
		New:    func(args []any) any { return args[0] },
	})

	_, err := c.Resolve("A")
	var circular *container.CircularDependencyError
	if !errors.As(err, &circular) {
		t.Fatalf("want CircularDependencyError, got %v", err)
	}
	chain := strings.Join(circular.Chain, " ")
	if !strings.Contains(chain, "A") || !strings.Contains(chain, "B") {
		t.Errorf("chain should contain both ids, got %v", circular.Chain)
	}
	if circular.Chain[len(circular.Chain)-1] != "A" {
		t.Errorf("offending id should be appended last, got %v", circular.Chain)
	}
}

func TestResolve_SelfDependentDescriptor(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Selfish",
		Params: []container.Param{{Name: "self", Type: "Selfish"}},
		New:    func(args []any) any { return args[0] },
	})

	_, err := c.Resolve("Selfish")
	var circular *container.CircularDependencyError
	if !errors.As(err, &circular) {
		t.Fatalf("a type depending on itself must fail, got %v", err)
	}
	if len(circular.Chain) < 2 || circular.Chain[0] != "Selfish" || circular.Chain[len(circular.Chain)-1] != "Selfish" {
		t.Errorf("chain should open and close with the self-dependent id, got %v", circular.Chain)
	}
}

func TestResolve_SelfDependentNoOpBinding(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Selfish",
		Params: []container.Param{{Name: "self", Type: "Selfish"}},
		New:    func(args []any) any { return args[0] },
	})
	c.Bind("Selfish", nil)

	_, err := c.Resolve("Selfish")
	var circular *container.CircularDependencyError
	if !errors.As(err, &circular) {
		t.Errorf("self-dependency through a no-op binding must fail, got %v", err)
	}
}

func TestResolve_CycleThroughBindingAndDescriptor(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Writer",
		Params: []container.Param{{Name: "log", Type: "logger"}},
		New:    func(args []any) any { return args[0] },
	})
	// "logger" is bound to the described "Writer", which needs "logger" again.
	c.Bind("logger", "Writer")

	_, err := c.Resolve("Writer")
	var circular *container.CircularDependencyError
	if !errors.As(err, &circular) {
		t.Errorf("want CircularDependencyError across binding and descriptor, got %v", err)
	}
}

func TestResolve_CycleLedgerClearedOnFailure(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Flaky",
		Params: []container.Param{{Name: "dep", Inject: &container.Inject{ID: "dep"}}},
		New:    func(args []any) any { return args[0] },
	})

	// First attempt fails: "dep" is unregistered.
	if _, err := c.Resolve("Flaky"); err == nil {
		t.Fatal("first resolution should fail")
	}

	// Register the dependency and retry: a stale cycle marker would block this.
	c.Instance("dep", &dummyService{name: "dep"})
	got, err := c.Resolve("Flaky")
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got.(*dummyService).name != "dep" {
		t.Errorf("retry should succeed cleanly, got %+v", got)
	}
}

// ── parameter binder precedence ───────────────────────────────────────────────

func TestBindParam_InjectByID(t *testing.T) {
	c := container.New()
	c.Instance("mailer", &dummyService{name: "smtp"})
	c.Describe(&container.TypeDef{
		ID:     "Notifier",
		Params: []container.Param{{Name: "mailer", Inject: &container.Inject{ID: "mailer"}}},
		New:    func(args []any) any { return args[0] },
	})

	got := container.MustResolve[*dummyService](c, "Notifier")
	if got.name != "smtp" {
		t.Errorf("inject-by-id should resolve the named service, got %+v", got)
	}
}

func TestBindParam_InjectByIDRequiredMissing(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Notifier",
		Params: []container.Param{{Name: "mailer", Inject: &container.Inject{ID: "mailer"}}},
		New:    func(args []any) any { return args[0] },
	})

	_, err := c.Resolve("Notifier")
	var notFound *container.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("required inject with missing id: want NotFoundError, got %v", err)
	}
}

func TestBindParam_InjectByTag(t *testing.T) {
	c := container.New()
	c.Bind("first", func(c *container.Container) any { return &dummyService{name: "first"} })
	c.Bind("second", func(c *container.Container) any { return &dummyService{name: "second"} })
	c.Tag([]string{"first", "second"}, "handlers")

	c.Describe(&container.TypeDef{
		ID:     "Dispatcher",
		Params: []container.Param{{Name: "handler", Inject: &container.Inject{Tag: "handlers"}}},
		New:    func(args []any) any { return args[0] },
	})

	got := container.MustResolve[*dummyService](c, "Dispatcher")
	if got.name != "first" {
		t.Errorf("inject-by-tag should take the first tagged service, got %+v", got)
	}
}

func TestBindParam_InjectByTagEmpty(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Dispatcher",
		Params: []container.Param{{Name: "handler", Inject: &container.Inject{Tag: "handlers"}}},
		New:    func(args []any) any { return args[0] },
	})

	_, err := c.Resolve("Dispatcher")
	var tagErr *container.TagNotFoundError
	if !errors.As(err, &tagErr) {
		t.Errorf("required tag with no members: want TagNotFoundError, got %v", err)
	}
}

func TestBindParam_InjectByTagEmptyOptional(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Dispatcher",
		Params: []container.Param{{Name: "handler", Inject: &container.Inject{Tag: "handlers", Optional: true}}},
		New:    func(args []any) any { return args[0] },
	})

	got, err := c.Resolve("Dispatcher")
	if err != nil {
		t.Fatalf("optional tag: %v", err)
	}
	if got != nil {
		t.Errorf("optional tag with no members should yield nil, got %v", got)
	}
}

func TestBindParam_InjectWinsOverConfig(t *testing.T) {
	repo := config.New()
	repo.Set("svc.name", "from-config")
	c := container.New(container.WithConfig(repo))
	c.Instance("svc", &dummyService{name: "from-inject"})

	c.Describe(&container.TypeDef{
		ID: "Consumer",
		Params: []container.Param{{
			Name:   "svc",
			Inject: &container.Inject{ID: "svc"},
			Config: &container.ConfigValue{Key: "svc.name"},
		}},
		New: func(args []any) any { return args[0] },
	})

	got := container.MustResolve[*dummyService](c, "Consumer")
	if got.name != "from-inject" {
		t.Errorf("Inject should take precedence over Config, got %+v", got)
	}
}

func TestBindParam_ConfigTraversalYieldsDefault(t *testing.T) {
	repo := config.New()
	repo.Set("a.b", "real")
	c := container.New(container.WithConfig(repo))

	c.Describe(&container.TypeDef{
		ID: "Consumer",
		Params: []container.Param{{
			Name:   "v",
			Config: &container.ConfigValue{Key: "a..b", Default: "safe"},
		}},
		New: func(args []any) any { return args[0] },
	})

	if got := c.Make("Consumer"); got != "safe" {
		t.Errorf("traversal key should yield the default, got %v", got)
	}
}

func TestBindParam_DefaultValue(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Sized",
		Params: []container.Param{{Name: "size", Default: 10, HasDefault: true}},
		New:    func(args []any) any { return args[0] },
	})

	if got := c.Make("Sized"); got != 10 {
		t.Errorf("declared default should be used, got %v", got)
	}
}

func TestBindParam_Unsatisfiable(t *testing.T) {
	c := container.New()
	c.Describe(&container.TypeDef{
		ID:     "Hollow",
		Params: []container.Param{{Name: "dep", Type: "nothing.registered"}},
		New:    func(args []any) any { return args[0] },
	})

	_, err := c.Resolve("Hollow")
	var cannot *container.CannotResolveError
	if !errors.As(err, &cannot) {
		t.Fatalf("want CannotResolveError, got %v", err)
	}
	if cannot.Param != "dep" || cannot.Context != "Hollow" {
		t.Errorf("error should name the parameter and enclosing type, got %+v", cannot)
	}
}

func TestBindParam_EnclosingContextualOverride(t *testing.T) {
	c := container.New()
	c.Bind("Filesystem", func(c *container.Container) any { return &dummyService{name: "local"} })
	c.Describe(&container.TypeDef{
		ID:     "PhotoController",
		Params: []container.Param{{Name: "fs", Type: "Filesystem"}},
		New:    func(args []any) any { return args[0] },
	})

	err := c.When("PhotoController").Needs("Filesystem").GiveValue(&dummyService{name: "s3"})
	if err != nil {
		t.Fatalf("GiveValue: %v", err)
	}

	got := container.MustResolve[*dummyService](c, "PhotoController")
	if got.name != "s3" {
		t.Errorf("enclosing-type contextual override should win, got %+v", got)
	}

	// Direct resolution is unaffected.
	direct := container.MustResolve[*dummyService](c, "Filesystem")
	if direct.name != "local" {
		t.Errorf("default binding should be intact, got %+v", direct)
	}
}

// ── literal bindings ──────────────────────────────────────────────────────────

func TestBuild_LiteralBindings(t *testing.T) {
	c := container.New()
	c.Bind("timeout", 30)
	c.Bind("greeting", "hello")

	if got := c.Make("timeout"); got != 30 {
		t.Errorf("literal int binding: got %v", got)
	}
	if got := c.Make("greeting"); got != "hello" {
		t.Errorf("literal string binding resolves verbatim: got %v", got)
	}
}
