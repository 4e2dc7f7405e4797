package container

// Auto-wiring in this container is table-driven, not reflective: a type
// becomes constructible by registering a TypeDef that names its constructor
// parameters and supplies a build function. The descriptor table doubles as
// the memoized type-metadata cache — descriptors are pure data, computed (or
// generated) once and shared safely afterwards.

// Inject is an explicit injection directive attached to a constructor
// parameter. Exactly one of ID or Tag should be set; ID wins if both are.
//
//	// Laravel: public function __construct(#[Inject('mailer')] $mailer) {}
//	{Name: "mailer", Inject: &container.Inject{ID: "mailer"}}
type Inject struct {
	ID       string
	Tag      string
	Optional bool
}

// ConfigValue is a configuration directive attached to a constructor
// parameter: the value is read from the container's config repository by
// dotted-path key, falling back to Default.
//
//	// Laravel: #[Config('app.name', 'fallback')]
//	{Name: "appName", Config: &container.ConfigValue{Key: "app.name", Default: "fallback"}}
type ConfigValue struct {
	Key     string
	Default any
}

// Param describes one constructor parameter of a described type.
//
// Resolution precedence (first match wins):
//  1. Inject directive (by id, or first service of a tag)
//  2. Config directive (dotted-path config lookup)
//  3. Type — the declared parameter type, resolved through the container
//     (contextual overrides keyed by the enclosing type apply here)
//  4. Default (only when HasDefault is true)
//
// A parameter matching none of the above fails resolution.
type Param struct {
	Name       string
	Type       string // service id of the declared type, "" for primitives
	Inject     *Inject
	Config     *ConfigValue
	Default    any
	HasDefault bool
}

// TypeDef describes a constructible type: its constructor parameters, its
// exported method names (checked against the security blacklist before
// auto-wiring), and the build function invoked with the resolved arguments
// in declaration order.
//
// A TypeDef with a nil New func describes a non-instantiable type
// (an interface or abstract base); resolving it directly fails.
type TypeDef struct {
	ID      string
	Params  []Param
	Methods []string
	New     func(args []any) any
}

// Describe registers a type descriptor, making its id auto-wirable.
// Re-describing an id replaces the previous entry.
//
//	c.Describe(&container.TypeDef{
//	    ID: "PhotoService",
//	    Params: []container.Param{
//	        {Name: "fs", Type: "Filesystem"},
//	        {Name: "maxSize", Config: &container.ConfigValue{Key: "photos.max_size", Default: 1024}},
//	    },
//	    New: func(args []any) any {
//	        return &PhotoService{fs: args[0].(Filesystem), maxSize: args[1].(int)}
//	    },
//	})
func (c *Container) Describe(def *TypeDef) error {
	if def == nil {
		return &InvalidServiceError{Reason: "nil type descriptor"}
	}
	if err := c.validateID(def.ID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[def.ID] = def
	return nil
}

// Described reports whether a type descriptor exists for id.
func (c *Container) Described(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.types[c.canonical(id)]
	return ok
}

// typeDef returns the descriptor for a canonical key, or nil.
func (c *Container) typeDef(key string) *TypeDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.types[key]
}
