package ledger

import "errors"

var (
	// ErrUnknownScenario is returned for a scenario that was never registered.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrAlreadyRegistered is returned when registering a scenario twice.
	ErrAlreadyRegistered = errors.New("scenario already registered")

	// ErrMissingScenarioID is returned when a scenario id is empty.
	ErrMissingScenarioID = errors.New("scenario id is required")

	// ErrMissingPostingKey is returned for a posting without an idempotency key.
	ErrMissingPostingKey = errors.New("posting key is required")
)
