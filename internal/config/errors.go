package config

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or invalid setting. It is fatal at
// startup.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Message)
}

// IsConfigurationError checks if err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
