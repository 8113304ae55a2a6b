package catalog

import "fmt"

// RegistryError represents a failed catalog registration.
type RegistryError struct {
	// Model is the name of the model involved, if known.
	Model string

	// Operation is the operation that failed (e.g., "register").
	Operation string

	// Message describes the error.
	Message string
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("catalog error for model %q during %s: %s", e.Model, e.Operation, e.Message)
	}
	return fmt.Sprintf("catalog error during %s: %s", e.Operation, e.Message)
}
