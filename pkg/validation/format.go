// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateMethod checks that a forecast method name is known. An empty name
// selects auto and is accepted.
func ValidateMethod(method string) error {
	_, err := forecast.ParseMethod(method)
	return err
}

// ValidateHorizon checks that a forecast horizon is within the supported range.
func ValidateHorizon(months int) error {
	if months < constants.MinHorizonMonths || months > constants.MaxHorizonMonths {
		return fmt.Errorf("expected horizon between %d and %d months, got %d",
			constants.MinHorizonMonths, constants.MaxHorizonMonths, months)
	}
	return nil
}

// ValidateLedgerBackend checks that a ledger backend name is supported.
func ValidateLedgerBackend(backend string) error {
	if backend != constants.LedgerBackendMemory && backend != constants.LedgerBackendRedis {
		return fmt.Errorf("expected ledger backend of %s or %s, got %s",
			constants.LedgerBackendMemory, constants.LedgerBackendRedis, backend)
	}
	return nil
}
