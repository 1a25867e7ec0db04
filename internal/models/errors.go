package models

import "fmt"

// ConfigurationError reports an invalid configuration value such as an
// unknown colormap name. It is never recovered with a default.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s %q: %s", e.Field, e.Value, e.Reason)
}

// ResourceError reports that a required resource, typically the rendering
// surface, is unavailable. It is not retried.
type ResourceError struct {
	Resource string
	Reason   string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource error: %s: %s", e.Resource, e.Reason)
}

// InvalidArgumentError reports a caller programming error, e.g. requesting
// detection without a threshold.
type InvalidArgumentError struct {
	Arg    string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}
