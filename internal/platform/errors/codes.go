// Package errors provides structured, code-carrying domain errors.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Lookup errors
	CodeNotFound Code = "NOT_FOUND"

	// Mission errors
	CodeMissionNotActive       Code = "MISSION_NOT_ACTIVE"
	CodeMissionInvalidProgress Code = "INVALID_PROGRESS"

	// Ledger and progression errors
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeInvalidAmount     Code = "INVALID_AMOUNT"

	// Relationship errors
	CodeUnknownCharacter Code = "UNKNOWN_CHARACTER"

	// Input errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Storage errors
	CodeStorageFault Code = "STORAGE_FAULT"
)

// Retryable reports whether a caller may retry the whole operation.
// Only storage faults qualify: every other code describes a state the
// retry would observe again.
func (c Code) Retryable() bool {
	return c == CodeStorageFault
}

// Warning reports whether idempotent callers may treat the code as a no-op.
func (c Code) Warning() bool {
	switch c {
	case CodeMissionNotActive, CodeUnknownCharacter:
		return true
	default:
		return false
	}
}
