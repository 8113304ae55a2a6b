package purge

import (
	"errors"
	"fmt"
)

// ErrNoRetrieval is the configuration error for a purger that supplied
// neither a bulk query nor an enumeration.
var ErrNoRetrieval = errors.New("purger supplies no retrieval mechanism")

// ConfigError is a purge configuration problem attached to one model: a
// policy of the wrong type, a purger for an unknown model, a policy that
// cannot build a retrieval. It skips the affected unit only.
type ConfigError struct {
	// Model is the affected model name.
	Model string

	// Reason describes the misconfiguration.
	Reason string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("purge configuration error for %s: %s: %v", e.Model, e.Reason, e.Cause)
	}
	return fmt.Sprintf("purge configuration error for %s: %s", e.Model, e.Reason)
}

// Unwrap returns the underlying cause error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(model, reason string, cause error) *ConfigError {
	return &ConfigError{
		Model:  model,
		Reason: reason,
		Cause:  cause,
	}
}

// Unit processing phases reported in UnitError.
const (
	PhaseCount     = "count"
	PhaseEnumerate = "enumerate"
	PhaseDelete    = "delete"
	PhasePanic     = "panic"
)

// UnitError is a failure while evaluating or applying one purge unit.
type UnitError struct {
	Model string // Model name
	Phase string // Phase that failed (count, enumerate, delete, panic)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *UnitError) Error() string {
	return fmt.Sprintf("purge of %s failed [phase=%s]: %v", e.Model, e.Phase, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *UnitError) Unwrap() error {
	return e.Cause
}

// RegistryError represents an error during purger registration.
type RegistryError struct {
	// Model is the model the purger claims, if any.
	Model string

	// Operation is the operation that failed (e.g., "register").
	Operation string

	// Message describes the registry error.
	Message string
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("purger registry error for model %q during %s: %s", e.Model, e.Operation, e.Message)
	}
	return fmt.Sprintf("purger registry error during %s: %s", e.Operation, e.Message)
}
