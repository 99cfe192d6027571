// Package config defines the data structures related to configuration and
// includes functions for loading, decoding and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g.
// FINANCE_PROJECTION_LEDGER_BACKEND=redis.
const EnvPrefix = "FINANCE_PROJECTION"

// Configuration holds all configuration for finance-projection.
type Configuration struct {
	Engine    EngineConfig  `yaml:"engine,omitempty"`
	Ledger    LedgerConfig  `yaml:"ledger,omitempty"`
	Scenarios []Scenario    `yaml:"scenarios"`
	Forecasts []Forecast    `yaml:"forecasts"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// EngineConfig holds the tunables shared by the forecast and insight engines.
// Unset values fall back to the package defaults.
type EngineConfig struct {
	DefaultConfidence      decimal.NullDecimal `yaml:"defaultConfidence,omitempty"`
	LowMarginThreshold     decimal.NullDecimal `yaml:"lowMarginThreshold,omitempty"`
	HealthyMarginThreshold decimal.NullDecimal `yaml:"healthyMarginThreshold,omitempty"`
}

// LedgerConfig selects where cash positions live and how writers are
// serialized.
type LedgerConfig struct {
	Backend       string        `yaml:"backend,omitempty"` // memory, redis
	RedisAddress  string        `yaml:"redisAddress,omitempty"`
	RedisPassword string        `yaml:"redisPassword,omitempty"`
	RedisDB       int           `yaml:"redisDB,omitempty"`
	KeyPrefix     string        `yaml:"keyPrefix,omitempty"`
	LockTTL       time.Duration `yaml:"lockTTL,omitempty"`
	PostingKeyTTL time.Duration `yaml:"postingKeyTTL,omitempty"` // replay window for posting keys
}

// Scenario describes one yearly projection. Either CashFlows lists the
// periods explicitly, or BaseRevenue, BaseCost and Years generate them by
// compounding with GrowthRate.
type Scenario struct {
	Name              string
	Active            bool
	Type              string
	DiscountRate      decimal.Decimal
	GrowthRate        decimal.Decimal
	BaselineCapital   decimal.NullDecimal
	InitialInvestment decimal.NullDecimal
	BaseRevenue       decimal.NullDecimal
	BaseCost          decimal.NullDecimal
	Years             int
	CashFlows         []CashFlow
}

// CashFlow is one configured period. NetProfit defaults to Revenue - Cost.
type CashFlow struct {
	Period    int
	Revenue   decimal.Decimal
	Cost      decimal.Decimal
	NetProfit decimal.NullDecimal
}

// Forecast describes one monthly forecast to generate.
type Forecast struct {
	Name       string
	Method     string
	Horizon    int
	Historical Historical
}

// Historical is the configured baseline month of a forecast.
type Historical struct {
	Year            int
	Month           int
	Income          []Component
	Expenses        []Component
	SeasonalFactor  decimal.NullDecimal
	SeasonalProfile []decimal.Decimal
	TrendRate       decimal.Decimal
}

// Component is a named income or expense line.
type Component struct {
	Name   string
	Amount decimal.Decimal
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("ledger.backend", constants.LedgerBackendMemory)
	v.SetDefault("ledger.redisAddress", constants.DefaultRedisAddress)
	v.SetDefault("ledger.keyPrefix", constants.DefaultLedgerKeyPrefix)
	v.SetDefault("ledger.lockTTL", "30s")
	v.SetDefault("ledger.postingKeyTTL", "24h")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ActiveScenarios returns the scenarios marked active, in order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, s := range c.Scenarios {
		if s.Active {
			active = append(active, s)
		}
	}
	return active
}
