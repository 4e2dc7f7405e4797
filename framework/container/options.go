package container

import "github.com/km-arc/go-container/framework/config"

// Option configures a Container at construction time.
type Option func(*Container)

// WithConfig attaches a configuration repository. The container treats it as
// immutable: GetConfig and Config parameter directives read from it, nothing
// in the container writes to it.
//
//	c := container.New(container.WithConfig(config.Load()))
func WithConfig(repo *config.Repository) Option {
	return func(c *Container) {
		c.config = repo
	}
}

// WithTypes pre-registers type descriptors — the usual home for generated
// descriptor tables.
func WithTypes(defs ...*TypeDef) Option {
	return func(c *Container) {
		for _, def := range defs {
			if def != nil && def.ID != "" {
				c.types[def.ID] = def
			}
		}
	}
}
