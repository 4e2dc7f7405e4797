package providers

import (
	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration repository into
// the container as "config". If no Repository is supplied, one is loaded
// from .env at registration time.
//
// Bound abstracts:
//   - "config"        → *config.Repository
//   - "configuration" → alias for "config"
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	Repository *config.Repository
	EnvFiles   []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	repo := p.Repository
	envFiles := p.EnvFiles
	err := app.Singleton("config", func(c *container.Container) any {
		if repo != nil {
			return repo
		}
		return config.Load(envFiles...)
	})
	if err != nil {
		return err
	}
	return app.Alias("config", "configuration")
}
