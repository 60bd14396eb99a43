package engine

import "fmt"

// StatusCode is the u32 status every exported ABI function returns.
type StatusCode uint32

const (
	StatusOK                       StatusCode = 0
	StatusABIMismatch              StatusCode = 1
	StatusContractVersionMismatch  StatusCode = 2
	StatusSchemaInvalid            StatusCode = 3
	StatusQueryInvalid             StatusCode = 4
	StatusResultShapeMismatch      StatusCode = 5
	StatusMutationInvalid          StatusCode = 6
	StatusUnsupportedOperator      StatusCode = 7
	StatusEngineState              StatusCode = 8
	StatusInternal                 StatusCode = 255
)

var statusNames = map[StatusCode]string{
	StatusOK:                      "OK",
	StatusABIMismatch:             "ABI_MISMATCH",
	StatusContractVersionMismatch: "CONTRACT_VERSION_MISMATCH",
	StatusSchemaInvalid:           "SCHEMA_INVALID",
	StatusQueryInvalid:            "QUERY_INVALID",
	StatusResultShapeMismatch:     "RESULT_SHAPE_MISMATCH",
	StatusMutationInvalid:         "MUTATION_INVALID",
	StatusUnsupportedOperator:     "UNSUPPORTED_OPERATOR",
	StatusEngineState:             "ENGINE_STATE",
	StatusInternal:                "INTERNAL",
}

// Name returns the symbolic name for a status code, or "UNKNOWN" for a code
// the ABI table in the spec doesn't define.
func (s StatusCode) Name() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Error is raised by any Engine Client call that returns a non-zero status.
// It wraps the symbolic code and the engine-supplied message so callers can
// match on Code with errors.As.
type Error struct {
	Code    StatusCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code.Name(), e.Message)
}

// newSyntheticError builds an Error when last_error itself could not be
// decoded, so a caller always gets a typed *Error rather than an opaque
// wrapped JSON-decode failure.
func newSyntheticError(code StatusCode) *Error {
	return &Error{Code: code, Message: fmt.Sprintf("engine returned status %d (%s) with an undecodable error payload", code, code.Name())}
}

// ErrTimeout is returned by the coordinator's single-flight path, not by the
// engine client itself, but lives alongside Error since both are part of the
// public error taxonomy a caller matches with errors.Is/errors.As.
var ErrTimeout = fmt.Errorf("includekit: single-flight wait timed out")
