package structuring

import "fmt"

// Fallback reasons, also used as metric labels.
const (
	ReasonUnavailable  = "unavailable"
	ReasonBreakerOpen  = "breaker_open"
	ReasonBusy         = "busy"
	ReasonCallFailed   = "call_failed"
	ReasonNotJSON      = "not_json"
	ReasonInvalid      = "invalid"
	ReasonReportedByAI = "collaborator_error"
)

// StructuringError describes why an AI provider's answer could not be used.
// The router recovers from it by falling back to deterministic extraction.
type StructuringError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *StructuringError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("structuring via %s failed: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("structuring via %s failed: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *StructuringError) Unwrap() error { return e.Err }

// MalformedRecordError marks a record without a required field or with an unusable value.
// Index is -1 for top-level problems.
type MalformedRecordError struct {
	Index int
	Field string
	Msg   string
}

func (e *MalformedRecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed response: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("malformed record %d: %s: %s", e.Index, e.Field, e.Msg)
}
