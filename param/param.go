// Package param implements the typed parameter schema shared by the model
// registry, the queue daemon and the web frontend: a tagged-sum of variants
// (integer, float, range, string, boolean, select), each able to validate a
// raw submitted value, round-trip to/from a serialized name+value pair, and
// render itself as text, LaTeX or an HTML form control.
package param

import "fmt"

// ValidationError is returned by WithValue when a raw value is rejected by
// a parameter's constraints. It carries the parameter name and the
// offending value so callers (the web frontend) can re-render the form
// with a useful message.
type ValidationError struct {
	Name  string
	Value any
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation_error: parameter %q rejected value %v: %s", e.Name, e.Value, e.Msg)
}

func newValidationError(name string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Name: name, Value: value, Msg: fmt.Sprintf(format, args...)}
}

// Stored is the serialized name+value pair used on the wire and in the
// persisted snapshot: {"name": "...", "value": ...}.
type Stored struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Param is the common behavior every parameter variant implements.
// WithValue never mutates the receiver; it returns a new value-bearing copy
// so a Definition's parameter list can be treated as an immutable template.
type Param interface {
	// ParamName returns the parameter's declared key.
	ParamName() string

	// WithValue validates raw and returns a new Param holding it, or a
	// *ValidationError.
	WithValue(raw any) (Param, error)

	// HasValue reports whether WithValue has been called successfully.
	HasValue() bool

	// Serialize returns the wire/persistence representation. Panics if
	// HasValue is false; callers must check first.
	Serialize() Stored

	// NonExistValue is substituted when a form submission omits this
	// parameter's key entirely (HTML checkbox semantics). Only boolean
	// parameters return a usable zero value; all others return an error.
	NonExistValue() (Param, error)

	// AsText renders "description: value units".
	AsText() string

	// AsLatex renders the description and value with LaTeX special
	// characters escaped, followed by units.
	AsLatex() string

	// AsHTML renders a labeled form control, or an empty string if the
	// parameter is marked Hidden.
	AsHTML() string

	// Description, Units and Hidden expose declaration-time metadata
	// needed by rendering and by the web frontend's form builder.
	Description() string
	Units() string
	Hidden() bool
}

// Deserialize reconstructs a value-bearing Param from its persisted/wire
// form, given the declaration it belongs to (for bounds/options checking).
func Deserialize(decl Param, s Stored) (Param, error) {
	if s.Name != decl.ParamName() {
		return nil, newValidationError(s.Name, s.Value, "name does not match declaration %q", decl.ParamName())
	}
	return decl.WithValue(s.Value)
}
