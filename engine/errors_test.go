package engine

import "testing"

func TestStatusCode_Name(t *testing.T) {
	tests := []struct {
		code     StatusCode
		expected string
	}{
		{StatusOK, "OK"},
		{StatusABIMismatch, "ABI_MISMATCH"},
		{StatusContractVersionMismatch, "CONTRACT_VERSION_MISMATCH"},
		{StatusSchemaInvalid, "SCHEMA_INVALID"},
		{StatusQueryInvalid, "QUERY_INVALID"},
		{StatusResultShapeMismatch, "RESULT_SHAPE_MISMATCH"},
		{StatusMutationInvalid, "MUTATION_INVALID"},
		{StatusUnsupportedOperator, "UNSUPPORTED_OPERATOR"},
		{StatusEngineState, "ENGINE_STATE"},
		{StatusInternal, "INTERNAL"},
		{StatusCode(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.code.Name(); got != tt.expected {
			t.Errorf("StatusCode(%d).Name() = %q, want %q", tt.code, got, tt.expected)
		}
	}
}

func TestError_Error(t *testing.T) {
	err := &Error{Code: StatusQueryInvalid, Message: "bad filter"}
	want := "[QUERY_INVALID] bad filter"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewSyntheticError(t *testing.T) {
	err := newSyntheticError(StatusInternal)
	if err.Code != StatusInternal {
		t.Errorf("expected code %v, got %v", StatusInternal, err.Code)
	}
	if err.Message == "" {
		t.Errorf("expected a non-empty synthetic message")
	}
}

func TestToStatus(t *testing.T) {
	if got := toStatus(int32(3)); got != StatusSchemaInvalid {
		t.Errorf("toStatus(int32(3)) = %v, want %v", got, StatusSchemaInvalid)
	}
	if got := toStatus(uint32(7)); got != StatusUnsupportedOperator {
		t.Errorf("toStatus(uint32(7)) = %v, want %v", got, StatusUnsupportedOperator)
	}
	if got := toStatus("not a number"); got != StatusInternal {
		t.Errorf("toStatus of an unexpected type should fall back to StatusInternal, got %v", got)
	}
}
