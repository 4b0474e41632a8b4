// Package errs defines the error taxonomy shared across the runner:
// configuration, tool-server, network and model failures. Wrappers up the
// stack never translate these; they propagate to the CLI or UI boundary.
package errs

import "fmt"

// ConfigurationError reports missing or invalid credentials/settings,
// raised before any network call is attempted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Reason }

// ToolConnectionError reports an unreachable or misbehaving external
// tool-collection server.
type ToolConnectionError struct {
	Server string
	Err    error
}

func (e *ToolConnectionError) Error() string {
	return fmt.Sprintf("tool server %s: %v", e.Server, e.Err)
}
func (e *ToolConnectionError) Unwrap() error { return e.Err }

// NetworkError reports a page fetch failure after retries are exhausted.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ModelError reports a remote completion call failure.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string { return fmt.Sprintf("model %s: %v", e.Model, e.Err) }
func (e *ModelError) Unwrap() error { return e.Err }
