package param

import (
	"fmt"
	"math"
	"strconv"
)

// IntParam is an integer-valued parameter with optional inclusive bounds.
type IntParam struct {
	base
	Min, Max   int64
	HasMin     bool
	HasMax     bool
	value      int64
	hasValue   bool
}

// NewIntParam declares an integer parameter. Pass hasMin/hasMax false to
// leave that bound unconstrained.
func NewIntParam(name, desc, unit string, hidden bool, min, max int64, hasMin, hasMax bool) *IntParam {
	return &IntParam{
		base:   base{Name: name, Desc: desc, Unit: unit, Hide: hidden},
		Min:    min, Max: max, HasMin: hasMin, HasMax: hasMax,
	}
}

func (p *IntParam) HasValue() bool { return p.hasValue }

func (p *IntParam) WithValue(raw any) (Param, error) {
	i, err := toInt64(raw)
	if err != nil {
		return nil, newValidationError(p.Name, raw, "not an integer: %v", err)
	}
	if p.HasMin && i < p.Min {
		return nil, newValidationError(p.Name, raw, "below minimum %d", p.Min)
	}
	if p.HasMax && i > p.Max {
		return nil, newValidationError(p.Name, raw, "above maximum %d", p.Max)
	}
	cp := *p
	cp.value = i
	cp.hasValue = true
	return &cp, nil
}

func (p *IntParam) NonExistValue() (Param, error) {
	return nil, newValidationError(p.Name, nil, "missing required integer value")
}

func (p *IntParam) Serialize() Stored {
	if !p.hasValue {
		panic("param: Serialize called on IntParam without a value")
	}
	return Stored{Name: p.Name, Value: p.value}
}

func (p *IntParam) AsText() string  { return renderText(p.base, strconv.FormatInt(p.value, 10)) }
func (p *IntParam) AsLatex() string { return renderLatex(p.base, strconv.FormatInt(p.value, 10)) }
func (p *IntParam) AsHTML() string {
	return renderHTMLInput(p.base, "number", strconv.FormatInt(p.value, 10), "")
}

// FloatParam is a float-valued parameter with optional inclusive bounds
// and an optional step hint (used only for HTML rendering).
type FloatParam struct {
	base
	Min, Max     float64
	HasMin       bool
	HasMax       bool
	Step         float64
	HasStep      bool
	value        float64
	hasValue     bool
}

func NewFloatParam(name, desc, unit string, hidden bool, min, max float64, hasMin, hasMax bool, step float64, hasStep bool) *FloatParam {
	return &FloatParam{
		base:   base{Name: name, Desc: desc, Unit: unit, Hide: hidden},
		Min:    min, Max: max, HasMin: hasMin, HasMax: hasMax,
		Step: step, HasStep: hasStep,
	}
}

func (p *FloatParam) HasValue() bool { return p.hasValue }

func (p *FloatParam) WithValue(raw any) (Param, error) {
	f, err := toFloat64(raw)
	if err != nil {
		return nil, newValidationError(p.Name, raw, "not a number: %v", err)
	}
	if math.IsNaN(f) {
		return nil, newValidationError(p.Name, raw, "value is NaN")
	}
	if p.HasMin && f < p.Min {
		return nil, newValidationError(p.Name, raw, "below minimum %g", p.Min)
	}
	if p.HasMax && f > p.Max {
		return nil, newValidationError(p.Name, raw, "above maximum %g", p.Max)
	}
	cp := *p
	cp.value = f
	cp.hasValue = true
	return &cp, nil
}

func (p *FloatParam) NonExistValue() (Param, error) {
	return nil, newValidationError(p.Name, nil, "missing required float value")
}

func (p *FloatParam) Serialize() Stored {
	if !p.hasValue {
		panic("param: Serialize called on FloatParam without a value")
	}
	return Stored{Name: p.Name, Value: p.value}
}

func (p *FloatParam) AsText() string {
	return renderText(p.base, strconv.FormatFloat(p.value, 'g', -1, 64))
}
func (p *FloatParam) AsLatex() string {
	return renderLatex(p.base, strconv.FormatFloat(p.value, 'g', -1, 64))
}
func (p *FloatParam) AsHTML() string {
	extra := ""
	if p.HasStep {
		extra = fmt.Sprintf(`step=%q`, strconv.FormatFloat(p.Step, 'g', -1, 64))
	}
	return renderHTMLInput(p.base, "number", strconv.FormatFloat(p.value, 'g', -1, 64), extra)
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}
