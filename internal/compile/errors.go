package compile

import "fmt"

// MissingComponentsError is returned when a $ref is used by a document that
// has no components section at all.
type MissingComponentsError struct {
	Ref string
}

func (e *MissingComponentsError) Error() string {
	return fmt.Sprintf("reference %q used but the document has no components", e.Ref)
}

// MissingFieldError reports a required field absent from the document.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// UnresolvedReferenceError reports a $ref whose target name does not exist in
// the namespace it was looked up in.
type UnresolvedReferenceError struct {
	Ref string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q", e.Ref)
}

// InvalidLocationError reports a parameter whose "in" is not path, query or
// header.
type InvalidLocationError struct {
	Name     string
	Location string
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("parameter %q: unsupported location %q (allowed: path, query, header)", e.Name, e.Location)
}

// DuplicateNameError reports two entries that would share one name.
type DuplicateNameError struct {
	Kind string // "model", "parameter" or "operation"
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s name %q", e.Kind, e.Name)
}

// UnsupportedTypeError reports a schema "type" the mapper does not know.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported schema type %q", e.Type)
}
