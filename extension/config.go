package extension

import "time"

// Store drivers accepted by Config.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the pcetoken extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.pcetoken" or "pcetoken" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the store backend when no store was set with WithStore:
	// "memory" (default), "postgres", "sqlite" or "mongo". Every driver but
	// memory needs a grove.DB passed with WithGroveDB.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// RegistryAddress is the hex address that seeds token address
	// derivation and holds the reserve. Empty uses the engine default.
	RegistryAddress string `json:"registry_address" mapstructure:"registry_address" yaml:"registry_address"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// BaseToken initializes the bridging token at registration when Supply
	// is set.
	BaseToken BaseTokenConfig `json:"base_token" mapstructure:"base_token" yaml:"base_token"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// BaseTokenConfig describes the fixed-supply bridging token.
type BaseTokenConfig struct {
	Name   string `json:"name" mapstructure:"name" yaml:"name"`
	Symbol string `json:"symbol" mapstructure:"symbol" yaml:"symbol"`
	Owner  string `json:"owner" mapstructure:"owner" yaml:"owner"`
	// Supply in whole tokens, e.g. "10000000".
	Supply string `json:"supply" mapstructure:"supply" yaml:"supply"`
}

// Enabled reports whether a base token should be created.
func (c BaseTokenConfig) Enabled() bool { return c.Supply != "" }

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:        DriverMemory,
		PluginTimeout: 5 * time.Second,
		BaseToken: BaseTokenConfig{
			Name:   "PCE Token",
			Symbol: "PCE",
		},
	}
}
