package param

import (
	"fmt"
	"html/template"
)

// base carries the declaration-time metadata shared by every variant:
// name, human description, display units and whether the control should
// be suppressed from rendered HTML forms (e.g. internal bookkeeping
// parameters the submitter never edits directly).
type base struct {
	Name string
	Desc string
	Unit string
	Hide bool
}

func (b base) ParamName() string    { return b.Name }
func (b base) Description() string  { return b.Desc }
func (b base) Units() string        { return b.Unit }
func (b base) Hidden() bool         { return b.Hide }

// renderText builds the "description: value units" form common to every
// variant's AsText.
func renderText(b base, value string) string {
	if b.Unit == "" {
		return fmt.Sprintf("%s: %s", b.Desc, value)
	}
	return fmt.Sprintf("%s: %s %s", b.Desc, value, b.Unit)
}

// renderLatex builds the escaped-description/escaped-value LaTeX form
// common to every variant's AsLatex.
func renderLatex(b base, value string) string {
	desc := escapeLatex(b.Desc)
	val := escapeLatex(value)
	unit := escapeLatex(b.Unit)
	if unit == "" {
		return fmt.Sprintf("%s: %s", desc, val)
	}
	return fmt.Sprintf("%s: %s %s", desc, val, unit)
}

// renderHTMLInput builds a single labeled <input> control, or an empty
// string when the parameter is hidden. value and inputType are trusted
// internal strings; raw user data passed as value is escaped.
func renderHTMLInput(b base, inputType, value, extra string) string {
	if b.Hide {
		return ""
	}
	return fmt.Sprintf(
		`<label for=%q>%s</label><input type=%q id=%q name=%q value=%q %s/>`,
		b.Name,
		template.HTMLEscapeString(b.Desc),
		inputType,
		b.Name,
		b.Name,
		template.HTMLEscapeString(value),
		extra,
	)
}
