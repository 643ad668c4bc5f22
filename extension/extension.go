// Package extension provides the Forge extension adapter for pcetoken.
//
// It implements the forge.Extension interface to integrate the token engine
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.pcetoken" or "pcetoken" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/basetoken"
	"github.com/xraph/pcetoken/store"
	"github.com/xraph/pcetoken/store/memory"
	"github.com/xraph/pcetoken/store/mongo"
	"github.com/xraph/pcetoken/store/postgres"
	"github.com/xraph/pcetoken/store/sqlite"
	"github.com/xraph/pcetoken/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "pcetoken"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Community currency token ledgers"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the pcetoken engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *pcetoken.Engine
	store      store.Store
	db         *grove.DB
	engineOpts []pcetoken.Option
}

// New creates a new pcetoken Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *pcetoken.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := buildStore(e.config.Driver, e.db)
		if err != nil {
			return err
		}
		e.store = s
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = pcetoken.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*pcetoken.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("pcetoken: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(ctx); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return pcetoken.ErrStoreNotReady
	}
	return e.store.Ping(ctx)
}

// buildStore constructs the store backend named by driver.
func buildStore(driver string, db *grove.DB) (store.Store, error) {
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}
	if db == nil {
		return nil, fmt.Errorf("pcetoken: driver %q requires a grove database (use WithGroveDB)", driver)
	}
	switch driver {
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("pcetoken: unknown store driver %q", driver)
	}
}

// buildEngineOpts constructs pcetoken.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]pcetoken.Option, error) {
	opts := make([]pcetoken.Option, 0, len(e.engineOpts)+4)

	if e.config.DisableMigrate {
		opts = append(opts, pcetoken.WithAutoMigrate(false))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, pcetoken.WithPluginTimeout(e.config.PluginTimeout))
	}
	if e.config.RegistryAddress != "" {
		addr, err := types.ParseAddress(e.config.RegistryAddress)
		if err != nil {
			return nil, fmt.Errorf("pcetoken: registry_address: %w", err)
		}
		opts = append(opts, pcetoken.WithRegistryAddress(addr))
	}
	if e.config.BaseToken.Enabled() {
		bt, err := newBaseToken(e.config.BaseToken)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pcetoken.WithBaseToken(bt))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

func newBaseToken(cfg BaseTokenConfig) (*basetoken.Token, error) {
	owner, err := types.ParseAddress(cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("pcetoken: base_token.owner: %w", err)
	}
	supply, err := types.ParseUnits(cfg.Supply)
	if err != nil {
		return nil, fmt.Errorf("pcetoken: base_token.supply: %w", err)
	}
	bt := basetoken.New()
	if err := bt.Initialize(cfg.Name, cfg.Symbol, owner, supply); err != nil {
		return nil, err
	}
	return bt, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("pcetoken: configuration is required but not found in config files; " +
				"ensure 'extensions.pcetoken' or 'pcetoken' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("pcetoken: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("driver", e.config.Driver),
		forge.F("registry_address", e.config.RegistryAddress),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("base_token", e.config.BaseToken.Enabled()),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.pcetoken" first (namespaced pattern).
	if cm.IsSet("extensions.pcetoken") {
		if err := cm.Bind("extensions.pcetoken", &cfg); err == nil {
			e.Logger().Debug("pcetoken: loaded config from file",
				forge.F("key", "extensions.pcetoken"),
			)
			return cfg, true
		}
		e.Logger().Warn("pcetoken: failed to bind extensions.pcetoken config",
			forge.F("error", "bind failed"),
		)
	}

	// Try short "pcetoken" key.
	if cm.IsSet("pcetoken") {
		if err := cm.Bind("pcetoken", &cfg); err == nil {
			e.Logger().Debug("pcetoken: loaded config from file",
				forge.F("key", "pcetoken"),
			)
			return cfg, true
		}
		e.Logger().Warn("pcetoken: failed to bind pcetoken config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.BaseToken.Name == "" {
		cfg.BaseToken.Name = defaults.BaseToken.Name
	}
	if cfg.BaseToken.Symbol == "" {
		cfg.BaseToken.Symbol = defaults.BaseToken.Symbol
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Driver == "" && programmaticConfig.Driver != "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.RegistryAddress == "" && programmaticConfig.RegistryAddress != "" {
		yamlConfig.RegistryAddress = programmaticConfig.RegistryAddress
	}
	if !yamlConfig.BaseToken.Enabled() && programmaticConfig.BaseToken.Enabled() {
		yamlConfig.BaseToken = programmaticConfig.BaseToken
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
