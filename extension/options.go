package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/plugin"
	"github.com/xraph/pcetoken/store"
)

// Option configures the pcetoken Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine. It takes precedence over Driver.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB sets the database the postgres, sqlite and mongo drivers use.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.db = db
	}
}

// WithEngineOption passes a pcetoken.Option through to the underlying engine.
func WithEngineOption(opt pcetoken.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a pcetoken plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, pcetoken.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDriver selects the store backend by name.
func WithDriver(driver string) Option {
	return func(e *Extension) { e.config.Driver = driver }
}

// WithRegistryAddress sets the hex registry address.
func WithRegistryAddress(addr string) Option {
	return func(e *Extension) { e.config.RegistryAddress = addr }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithBaseToken initializes the bridging token at registration.
func WithBaseToken(cfg BaseTokenConfig) Option {
	return func(e *Extension) { e.config.BaseToken = cfg }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
