package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/store/memory"
	"github.com/xraph/pcetoken/types"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{})
	assert.Equal(t, DriverMemory, cfg.Driver)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout)
	assert.Equal(t, "PCE", cfg.BaseToken.Symbol)
	assert.False(t, cfg.BaseToken.Enabled())
}

func TestMergeConfigurations(t *testing.T) {
	yamlCfg := Config{Driver: DriverPostgres}
	programmatic := Config{
		Driver:          DriverSQLite,
		DisableMigrate:  true,
		RegistryAddress: "0x00000000000000000000000000000000000f0000",
		PluginTimeout:   time.Second,
	}

	got := mergeConfigurations(yamlCfg, programmatic)
	assert.Equal(t, DriverPostgres, got.Driver, "YAML driver should win")
	assert.True(t, got.DisableMigrate, "programmatic DisableMigrate should apply")
	assert.Equal(t, programmatic.RegistryAddress, got.RegistryAddress)
	assert.Equal(t, time.Second, got.PluginTimeout)
}

func TestBuildStore(t *testing.T) {
	s, err := buildStore("", nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	for _, driver := range []string{DriverPostgres, DriverSQLite, DriverMongo} {
		_, err := buildStore(driver, nil)
		assert.Error(t, err, "%s without a database should fail", driver)
	}
	_, err = buildStore("cassandra", nil)
	assert.Error(t, err, "unknown driver should fail")
}

func TestNewBaseToken(t *testing.T) {
	bt, err := newBaseToken(BaseTokenConfig{
		Name:   "PCE Token",
		Symbol: "PCE",
		Owner:  "0x0000000000000000000000000000000000000001",
		Supply: "10000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "10000000", types.FormatUnits(bt.TotalSupply()))

	_, err = newBaseToken(BaseTokenConfig{Name: "PCE", Symbol: "PCE", Owner: "nope", Supply: "1"})
	assert.Error(t, err, "invalid owner should fail")
	_, err = newBaseToken(BaseTokenConfig{Name: "PCE", Symbol: "PCE", Owner: "0x0000000000000000000000000000000000000001", Supply: "x"})
	assert.Error(t, err, "invalid supply should fail")
}
