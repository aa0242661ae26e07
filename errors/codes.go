// Package errors provides the error handling system for manifestsync.
// It extends Go's standard error handling with structured error codes, retry classification
// and context preservation so that callers can decide between retrying, skipping and
// permanently disabling the unit of work that failed.
package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates a resource state conflict that prevents the operation.
	CodeConflict ErrorCode = "CONFLICT"

	// Permission errors.

	// CodeUnauthorized indicates the request lacks valid authentication credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeForbidden indicates the authenticated principal is not allowed to proceed,
	// for example because the account was disabled upstream.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeSecondFactorRequired indicates the login needs a second factor that
	// this process cannot supply.
	CodeSecondFactorRequired ErrorCode = "SECOND_FACTOR_REQUIRED"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeSchemaFailed indicates the data failed schema validation.
	CodeSchemaFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"

	// CodeCUELoadFailed indicates a CUE document could not be loaded or compiled.
	CodeCUELoadFailed ErrorCode = "CUE_LOAD_FAILED"

	// CodeCUEDecodeFailed indicates a CUE value could not be decoded into Go types.
	CodeCUEDecodeFailed ErrorCode = "CUE_DECODE_FAILED"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates the rate limit has been exceeded.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeStorage indicates the durable state files could not be read or written.
	CodeStorage ErrorCode = "STORAGE_ERROR"

	// Execution errors.

	// CodeExecutionFailed indicates a general execution failure.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeStoreMutation indicates a commit, tag or namespace change in the
	// artifact store failed.
	CodeStoreMutation ErrorCode = "STORE_MUTATION_FAILED"

	// CodePushFailed indicates a push to the remote artifact store failed.
	CodePushFailed ErrorCode = "PUSH_FAILED"

	// System errors.

	// CodeInternal indicates an internal system error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnavailable indicates the service is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// CodeCanceled indicates the operation was interrupted by its caller.
	CodeCanceled ErrorCode = "CANCELED"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Classification groups error codes by the way callers are expected to react.
type Classification int

const (
	// ClassUnknown is used for codes with no defined reaction.
	ClassUnknown Classification = iota
	// ClassTransient errors are retried with bounded backoff at the call site.
	ClassTransient
	// ClassRateLimited errors are retried with increasing backoff, then the unit is skipped.
	ClassRateLimited
	// ClassPermanentAuth errors disable the account for good.
	ClassPermanentAuth
	// ClassUnavailable errors mean the requested artifact cannot be retrieved.
	ClassUnavailable
	// ClassStore errors come from mutating the artifact store or state files.
	ClassStore
)

// String returns the name of the classification.
func (c Classification) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassRateLimited:
		return "rate_limited"
	case ClassPermanentAuth:
		return "permanent_auth"
	case ClassUnavailable:
		return "unavailable"
	case ClassStore:
		return "store"
	default:
		return "unknown"
	}
}

// Classify maps an error code to its classification.
func (c ErrorCode) Classify() Classification {
	switch c {
	case CodeNetwork, CodeTimeout, CodeUnavailable:
		return ClassTransient
	case CodeRateLimit:
		return ClassRateLimited
	case CodeUnauthorized, CodeForbidden, CodeSecondFactorRequired:
		return ClassPermanentAuth
	case CodeNotFound:
		return ClassUnavailable
	case CodeStoreMutation, CodePushFailed, CodeStorage:
		return ClassStore
	default:
		return ClassUnknown
	}
}

// Retryable reports whether errors with this code are worth retrying.
func (c ErrorCode) Retryable() bool {
	switch c.Classify() {
	case ClassTransient, ClassRateLimited:
		return true
	default:
		return false
	}
}
