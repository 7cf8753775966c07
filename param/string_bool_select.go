package param

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

// StringParam is a free-text parameter, optionally bounded by a maximum
// length (0 means unbounded).
type StringParam struct {
	base
	MaxLen   int
	value    string
	hasValue bool
}

func NewStringParam(name, desc, unit string, hidden bool, maxLen int) *StringParam {
	return &StringParam{base: base{Name: name, Desc: desc, Unit: unit, Hide: hidden}, MaxLen: maxLen}
}

func (p *StringParam) HasValue() bool { return p.hasValue }

func (p *StringParam) WithValue(raw any) (Param, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, newValidationError(p.Name, raw, "not a string")
	}
	if p.MaxLen > 0 && len(s) > p.MaxLen {
		return nil, newValidationError(p.Name, raw, "exceeds maximum length %d", p.MaxLen)
	}
	cp := *p
	cp.value = s
	cp.hasValue = true
	return &cp, nil
}

func (p *StringParam) NonExistValue() (Param, error) {
	return nil, newValidationError(p.Name, nil, "missing required string value")
}

func (p *StringParam) Serialize() Stored {
	if !p.hasValue {
		panic("param: Serialize called on StringParam without a value")
	}
	return Stored{Name: p.Name, Value: p.value}
}

func (p *StringParam) AsText() string  { return renderText(p.base, p.value) }
func (p *StringParam) AsLatex() string { return renderLatex(p.base, p.value) }
func (p *StringParam) AsHTML() string  { return renderHTMLInput(p.base, "text", p.value, "") }

// BoolParam is a checkbox-style boolean. Unlike every other variant its
// NonExistValue succeeds, returning false, because HTML forms omit the key
// entirely for an unchecked checkbox.
type BoolParam struct {
	base
	value    bool
	hasValue bool
}

func NewBoolParam(name, desc string, hidden bool) *BoolParam {
	return &BoolParam{base: base{Name: name, Desc: desc, Hide: hidden}}
}

func (p *BoolParam) HasValue() bool { return p.hasValue }

func (p *BoolParam) WithValue(raw any) (Param, error) {
	b, err := toBool(raw)
	if err != nil {
		return nil, newValidationError(p.Name, raw, "%v", err)
	}
	cp := *p
	cp.value = b
	cp.hasValue = true
	return &cp, nil
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "on", "yes", "checked":
			return true, nil
		case "", "0", "false", "off", "no":
			return false, nil
		default:
			return false, fmt.Errorf("not a recognized boolean: %q", v)
		}
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("unsupported boolean representation %T", raw)
	}
}

// NonExistValue implements the HTML-form checkbox convention: an omitted
// key means "unchecked", i.e. false, not a validation error.
func (p *BoolParam) NonExistValue() (Param, error) {
	cp := *p
	cp.value = false
	cp.hasValue = true
	return &cp, nil
}

func (p *BoolParam) Serialize() Stored {
	if !p.hasValue {
		panic("param: Serialize called on BoolParam without a value")
	}
	return Stored{Name: p.Name, Value: p.value}
}

func (p *BoolParam) AsText() string  { return renderText(p.base, strconv.FormatBool(p.value)) }
func (p *BoolParam) AsLatex() string { return renderLatex(p.base, strconv.FormatBool(p.value)) }
func (p *BoolParam) AsHTML() string {
	if p.Hide {
		return ""
	}
	checked := ""
	if p.value {
		checked = "checked"
	}
	return fmt.Sprintf(`<label for=%q>%s</label><input type="checkbox" id=%q name=%q %s/>`,
		p.Name, template.HTMLEscapeString(p.Desc), p.Name, p.Name, checked)
}

// SelectParam restricts the value to a fixed set of declared options.
type SelectParam struct {
	base
	Options  []string
	value    string
	hasValue bool
}

func NewSelectParam(name, desc, unit string, hidden bool, options []string) *SelectParam {
	return &SelectParam{base: base{Name: name, Desc: desc, Unit: unit, Hide: hidden}, Options: options}
}

func (p *SelectParam) HasValue() bool { return p.hasValue }

func (p *SelectParam) WithValue(raw any) (Param, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, newValidationError(p.Name, raw, "not a string")
	}
	for _, opt := range p.Options {
		if opt == s {
			cp := *p
			cp.value = s
			cp.hasValue = true
			return &cp, nil
		}
	}
	return nil, newValidationError(p.Name, raw, "not one of the declared options %v", p.Options)
}

func (p *SelectParam) NonExistValue() (Param, error) {
	return nil, newValidationError(p.Name, nil, "missing required select value")
}

func (p *SelectParam) Serialize() Stored {
	if !p.hasValue {
		panic("param: Serialize called on SelectParam without a value")
	}
	return Stored{Name: p.Name, Value: p.value}
}

func (p *SelectParam) AsText() string  { return renderText(p.base, p.value) }
func (p *SelectParam) AsLatex() string { return renderLatex(p.base, p.value) }
func (p *SelectParam) AsHTML() string {
	if p.Hide {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<label for=%q>%s</label><select id=%q name=%q>`, p.Name, template.HTMLEscapeString(p.Desc), p.Name, p.Name)
	for _, opt := range p.Options {
		selected := ""
		if opt == p.value {
			selected = "selected"
		}
		escaped := template.HTMLEscapeString(opt)
		fmt.Fprintf(&b, `<option value=%q %s>%s</option>`, escaped, selected, escaped)
	}
	b.WriteString(`</select>`)
	return b.String()
}
