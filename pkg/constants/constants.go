// Package constants provides shared constants for the finance-projection application.
package constants

import "time"

// DateTimeLayout is the year-month format used for forecast periods in output.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// CurrencyPlaces is the number of decimal places money values are rounded to
	// for display.
	CurrencyPlaces = 2

	// PercentPlaces is the number of decimal places percentages are rounded to.
	PercentPlaces = 2

	// ComputePrecision is the number of decimal places kept for intermediate
	// discounting arithmetic.
	ComputePrecision = 18

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100
)

// IRR solver constants
const (
	// IRRInitialGuess is the starting rate for Newton-Raphson.
	IRRInitialGuess = "0.10"

	// IRRMaxIterations bounds the Newton-Raphson loop.
	IRRMaxIterations = 100

	// IRRTolerance is the |NPV| below which the solver reports convergence.
	IRRTolerance = "0.0001"
)

// Discount rate bounds. Rates are fractions, so 0.10 is 10%.
const (
	MinDiscountRate = "0"
	MaxDiscountRate = "1"
)

// Forecast constants
const (
	// MinHorizonMonths is the shortest forecast horizon accepted.
	MinHorizonMonths = 1

	// MaxHorizonMonths is the longest forecast horizon accepted.
	MaxHorizonMonths = 60

	// DefaultConfidenceLevel is attached to forecast rows when the method
	// provides no confidence of its own.
	DefaultConfidenceLevel = 85

	// DefaultSeasonalFactor is applied when a historical period has none.
	DefaultSeasonalFactor = "1.0"
)

// Insight constants
const (
	// DefaultLowMarginThreshold is the margin percentage under which a
	// profitable month is flagged as a warning.
	DefaultLowMarginThreshold = "5"

	// HealthyMarginThreshold is the margin percentage at or above which the
	// best month is reported as positive.
	HealthyMarginThreshold = "20"
)

// Comparison bounds
const (
	// MinComparedSeries is the fewest forecast series Compare accepts.
	MinComparedSeries = 2

	// MaxComparedSeries is the most forecast series Compare accepts.
	MaxComparedSeries = 4
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum JSON request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultShutdownTimeout bounds how long in-flight requests may drain on shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultReadHeaderTimeout bounds how long a client may take to send request headers
	DefaultReadHeaderTimeout = 5 * time.Second
)

// Ledger backends
const (
	// LedgerBackendMemory keeps cash positions in process.
	LedgerBackendMemory = "memory"

	// LedgerBackendRedis keeps cash positions in Redis guarded by a distributed lock.
	LedgerBackendRedis = "redis"

	// DefaultRedisAddress is used when the redis backend has no address configured.
	DefaultRedisAddress = "localhost:6379"

	// DefaultLedgerKeyPrefix namespaces ledger keys in Redis.
	DefaultLedgerKeyPrefix = "projection:ledger:"
)
