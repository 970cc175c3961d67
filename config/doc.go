// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Dwell and transition durations default to the built-in dispatching values
// when the file leaves them unset.
package config
