package param

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

// RangeParam is a start/end pair of floats with a common step, accepted
// either as a two-element sequence or as a hyphen-delimited string
// ("1-10"), per spec.md §4.1.
type RangeParam struct {
	base
	DeclMin, DeclMax float64
	Step             float64
	start, end       float64
	hasValue         bool
}

func NewRangeParam(name, desc, unit string, hidden bool, declMin, declMax, step float64) *RangeParam {
	return &RangeParam{
		base:    base{Name: name, Desc: desc, Unit: unit, Hide: hidden},
		DeclMin: declMin, DeclMax: declMax, Step: step,
	}
}

func (p *RangeParam) HasValue() bool { return p.hasValue }

func (p *RangeParam) WithValue(raw any) (Param, error) {
	start, end, err := parseRange(raw)
	if err != nil {
		return nil, newValidationError(p.Name, raw, "%v", err)
	}
	if start > end {
		return nil, newValidationError(p.Name, raw, "start %g is greater than end %g", start, end)
	}
	if start < p.DeclMin || start > p.DeclMax {
		return nil, newValidationError(p.Name, raw, "start %g outside declared range [%g, %g]", start, p.DeclMin, p.DeclMax)
	}
	if end < p.DeclMin || end > p.DeclMax {
		return nil, newValidationError(p.Name, raw, "end %g outside declared range [%g, %g]", end, p.DeclMin, p.DeclMax)
	}
	cp := *p
	cp.start, cp.end = start, end
	cp.hasValue = true
	return &cp, nil
}

func parseRange(raw any) (float64, float64, error) {
	switch v := raw.(type) {
	case []any:
		if len(v) != 2 {
			return 0, 0, fmt.Errorf("range requires exactly two elements, got %d", len(v))
		}
		start, err := toFloat64(v[0])
		if err != nil {
			return 0, 0, fmt.Errorf("range start: %w", err)
		}
		end, err := toFloat64(v[1])
		if err != nil {
			return 0, 0, fmt.Errorf("range end: %w", err)
		}
		return start, end, nil
	case []float64:
		if len(v) != 2 {
			return 0, 0, fmt.Errorf("range requires exactly two elements, got %d", len(v))
		}
		return v[0], v[1], nil
	case string:
		parts := strings.SplitN(v, "-", 2)
		if len(parts) != 2 {
			return 0, 0, fmt.Errorf("range string %q is not hyphen-delimited", v)
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("range start %q: %w", parts[0], err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("range end %q: %w", parts[1], err)
		}
		return start, end, nil
	default:
		return 0, 0, fmt.Errorf("unsupported range representation %T", raw)
	}
}

func (p *RangeParam) NonExistValue() (Param, error) {
	return nil, newValidationError(p.Name, nil, "missing required range value")
}

func (p *RangeParam) Serialize() Stored {
	if !p.hasValue {
		panic("param: Serialize called on RangeParam without a value")
	}
	return Stored{Name: p.Name, Value: []float64{p.start, p.end}}
}

func (p *RangeParam) formatted() string {
	return fmt.Sprintf("%s-%s",
		strconv.FormatFloat(p.start, 'g', -1, 64),
		strconv.FormatFloat(p.end, 'g', -1, 64))
}

func (p *RangeParam) AsText() string  { return renderText(p.base, p.formatted()) }
func (p *RangeParam) AsLatex() string { return renderLatex(p.base, p.formatted()) }
func (p *RangeParam) AsHTML() string {
	if p.Hide {
		return ""
	}
	startName := p.Name + "_start"
	endName := p.Name + "_end"
	return fmt.Sprintf(
		`<label>%s</label>`+
			`<input type="number" name=%q value=%q step=%q/>`+
			`<input type="number" name=%q value=%q step=%q/>`,
		template.HTMLEscapeString(p.Desc),
		startName, strconv.FormatFloat(p.start, 'g', -1, 64), strconv.FormatFloat(p.Step, 'g', -1, 64),
		endName, strconv.FormatFloat(p.end, 'g', -1, 64), strconv.FormatFloat(p.Step, 'g', -1, 64),
	)
}
