package ir

import "fmt"

// DiagnosticKind names a non-fatal observation made during compilation.
type DiagnosticKind string

const (
	// DuplicateOutput: more than one success response carries a body or
	// headers. Only the lowest status code is used.
	DuplicateOutput DiagnosticKind = "duplicate-output"
	// IgnoredResponse: a response key that is not a success status code.
	IgnoredResponse DiagnosticKind = "ignored-response"
	// IgnoredDefault: the "default" response is not modelled.
	IgnoredDefault DiagnosticKind = "ignored-default"
	// ShadowedField: a flattened body property collides with a parameter.
	ShadowedField DiagnosticKind = "shadowed-field"
)

type Diagnostic struct {
	Kind      DiagnosticKind
	Operation string
	Message   string
}

func (d Diagnostic) String() string {
	if d.Operation == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: operation %q: %s", d.Kind, d.Operation, d.Message)
}
