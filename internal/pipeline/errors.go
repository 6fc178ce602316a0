// Package pipeline: this file defines the error taxonomy of spec.md §7. Each
// kind carries an ExitCode so commands can translate a failure into the
// correct process exit code without re-deriving it at the CLI layer.
package pipeline

import "fmt"

// Error is the common shape of every pipeline error kind: a stage name, a
// human-readable message, an exit code, and an optional wrapped cause.
type Error struct {
	Kind    string
	Stage   string
	Message string
	Code    ExitCode
	Err     error
}

func (e *Error) Error() string {
	prefix := e.Kind
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s[%s]", e.Kind, e.Stage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind, stage, msg string, code ExitCode, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, Message: msg, Code: code, Err: cause}
}

// NewConfigurationError reports a bad profile, unknown option, or invalid
// regex supplied by the user.
func NewConfigurationError(stage, msg string, cause error) *Error {
	return newErr("ConfigurationError", stage, msg, ExitUserError, cause)
}

// NewPathError reports a base path that is not a directory, or an unreadable
// file encountered outside of normal per-file skip handling.
func NewPathError(stage, msg string, cause error) *Error {
	return newErr("PathError", stage, msg, ExitUserError, cause)
}

// NewIgnorePatternError reports a malformed ignore pattern.
func NewIgnorePatternError(stage, msg string, cause error) *Error {
	return newErr("IgnorePatternError", stage, msg, ExitUserError, cause)
}

// NewRuleError reports a bad rule field, operator, or value shape.
func NewRuleError(stage, msg string, cause error) *Error {
	return newErr("RuleError", stage, msg, ExitUserError, cause)
}

// NewFieldReadError reports that a content-bearing rule field could not be
// read because the underlying file is unreadable. Per spec.md §4.1 this must
// be surfaced, never silently treated as false.
func NewFieldReadError(stage, path string, cause error) *Error {
	return newErr("FieldReadError", stage, "reading content field for "+path, ExitError, cause)
}

// NewTransformNotFoundError reports that no transformer could be resolved
// for a file and no default transformer is registered.
func NewTransformNotFoundError(stage, path string) *Error {
	return newErr("TransformNotFound", stage, "no transformer found for "+path, ExitError, nil)
}

// NewTransformError reports a transformer invocation failure.
func NewTransformError(stage, path string, cause error) *Error {
	return newErr("TransformError", stage, "transforming "+path, ExitError, cause)
}

// NewTransformTimeoutError reports that a transformer invocation exceeded its
// per-transform timeout.
func NewTransformTimeoutError(stage, path string) *Error {
	return newErr("TransformTimeout", stage, "timed out transforming "+path, ExitError, nil)
}

// NewCircularDependencyError reports a dependency cycle among registered
// transformers, citing the cycle.
func NewCircularDependencyError(stage string, cycle []string) *Error {
	return newErr("CircularDependency", stage, fmt.Sprintf("cycle: %v", cycle), ExitUserError, nil)
}

// NewMissingDependencyError reports a transformer dependency that is not
// registered.
func NewMissingDependencyError(stage, name, dep string) *Error {
	return newErr("MissingDependency", stage, fmt.Sprintf("%s depends on unregistered %s", name, dep), ExitUserError, nil)
}

// NewPlanValidationError reports a transformer plan that fails validation
// (declared conflicts, type mismatches, ordering violations).
func NewPlanValidationError(stage, msg string) *Error {
	return newErr("PlanValidationError", stage, msg, ExitUserError, nil)
}

// NewCacheIOError reports a cache read or write failure. Callers should log
// and bypass the cache rather than fail the run.
func NewCacheIOError(stage, msg string, cause error) *Error {
	return newErr("CacheIOError", stage, msg, ExitError, cause)
}

// NewLLMFilterError reports that the LLM filter's response could not be
// parsed.
func NewLLMFilterError(stage, msg string, cause error) *Error {
	return newErr("LLMFilterError", stage, msg, ExitError, cause)
}

// NewLLMProviderError reports a provider-level failure (network, auth, rate
// limit) from an LLM call.
func NewLLMProviderError(stage, msg string, cause error) *Error {
	return newErr("LLMProviderError", stage, msg, ExitError, cause)
}

// NewSecretsDetectedError reports that the secret scanner found a
// high-severity finding and no override flag was passed.
func NewSecretsDetectedError(stage, msg string) *Error {
	return newErr("SecretsDetected", stage, msg, ExitValidation, nil)
}

// NewGitError reports a git adapter failure. Fatal only when git filtering
// was explicitly requested; callers downgrade to a warning otherwise.
func NewGitError(stage, msg string, cause error) *Error {
	return newErr("GitError", stage, msg, ExitError, cause)
}

// NewValidationError reports a failure raised by a stage's validate hook.
func NewValidationError(stage, msg string) *Error {
	return newErr("ValidationError", stage, msg, ExitValidation, nil)
}

// NewDeliveryError reports that the final artifact could not be delivered to
// its destination (clipboard, file, or file-reference). Clipboard
// unavailability is not reported here — it triggers the temp-file fallback
// instead, per spec.md §4.17.
func NewDeliveryError(stage, msg string, cause error) *Error {
	return newErr("DeliveryError", stage, msg, ExitError, cause)
}

// NewCancellationError reports a user-initiated cancellation.
func NewCancellationError(stage string) *Error {
	return newErr("CancellationError", stage, "run cancelled", ExitCancelled, nil)
}

// CodeOf returns the exit code carried by err if it is (or wraps) a
// *pipeline.Error, otherwise ExitError for any non-nil error and ExitSuccess
// for nil.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var pe *Error
	if asError(err, &pe) {
		return pe.Code
	}
	return ExitError
}

// asError is a tiny indirection over errors.As kept local to avoid importing
// "errors" in two places; defined here so CodeOf reads top to bottom.
func asError(err error, target **Error) bool {
	for err != nil {
		if pe, ok := err.(*Error); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
