package errors

import (
	"fmt"
	"strings"
)

// --- Weft Core Error Types ---

// ConfigError represents an error encountered during the loading, parsing,
// or validation of the tracing configuration file or coordinator options.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError indicates that some input (e.g., configuration structure,
// schema version, processor parameters) failed validation checks.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

// ProcessorNotFoundError indicates that a processor specified in the
// configuration's 'type' field could not be found in the processor registry.
type ProcessorNotFoundError struct {
	ProcessorName string
}

func NewProcessorNotFoundError(processorName string) *ProcessorNotFoundError {
	return &ProcessorNotFoundError{ProcessorName: processorName}
}
func (e *ProcessorNotFoundError) Error() string {
	return fmt.Sprintf("span processor not found: %s", e.ProcessorName)
}

// ProcessorStartupError represents a failure reported (or recovered from) while
// bringing up a configured span processor. Startup failures are contained by
// the coordinator: the processor is dropped and this error is only logged,
// never returned to the caller that triggered startup.
type ProcessorStartupError struct {
	ProcessorName string
	Cause         error
}

func NewProcessorStartupError(processorName string, cause error) *ProcessorStartupError {
	return &ProcessorStartupError{ProcessorName: processorName, Cause: cause}
}
func (e *ProcessorStartupError) Error() string {
	return fmt.Sprintf("span processor '%s' failed to start: %v", e.ProcessorName, e.Cause)
}
func (e *ProcessorStartupError) Unwrap() error { return e.Cause }

// ProcessorFailure attributes a single flush failure to the processor that
// produced it.
type ProcessorFailure struct {
	ProcessorName string
	Cause         error
}

func (f ProcessorFailure) Error() string {
	return fmt.Sprintf("processor '%s': %v", f.ProcessorName, f.Cause)
}
func (f ProcessorFailure) Unwrap() error { return f.Cause }

// FlushError aggregates the per-processor failures of a force-flush request.
// Every configured processor is flushed regardless of earlier outcomes, so
// Failures carries the complete set of causes. Failures are prepended as they
// are encountered: the slice is in reverse encounter order relative to the
// processor list.
type FlushError struct {
	Failures []ProcessorFailure
}

func NewFlushError(failures []ProcessorFailure) *FlushError {
	return &FlushError{Failures: failures}
}
func (e *FlushError) Error() string {
	if len(e.Failures) == 0 {
		return "force flush failed"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("force flush failed for %d processor(s): %s", len(e.Failures), strings.Join(parts, "; "))
}
