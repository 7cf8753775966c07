package model

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/npsgd-project/npsgd/param"
)

// fileSchema is the on-disk shape of a plug-in file: one or more model
// definitions, mirroring the original's ability to declare several model
// classes in a single Python module sharing one content-hash version.
type fileSchema struct {
	Definitions []definitionSchema `toml:"definition"`
}

type definitionSchema struct {
	ShortName    string            `toml:"short_name"`
	Subtitle     string            `toml:"subtitle"`
	Kind         string            `toml:"kind"`
	OutputFiles  []string          `toml:"output_files"`
	BodyTemplate string            `toml:"body_template"`
	Command      string            `toml:"command"`
	Args         []string          `toml:"args"`
	Interpreter  string            `toml:"interpreter"`
	Script       string            `toml:"script"`
	Parameters   []parameterSchema `toml:"parameter"`
}

type parameterSchema struct {
	Name        string   `toml:"name"`
	Type        string   `toml:"type"`
	Description string   `toml:"description"`
	Units       string   `toml:"units"`
	Hidden      bool     `toml:"hidden"`
	Min         *float64 `toml:"min"`
	Max         *float64 `toml:"max"`
	Step        *float64 `toml:"step"`
	MaxLen      int      `toml:"max_len"`
	Options     []string `toml:"options"`
}

// parseFile decodes raw plug-in source into zero or more Definitions, all
// sharing version (the caller supplies the file's content hash).
func parseFile(path string, raw []byte, version string) ([]*Definition, error) {
	var schema fileSchema
	if _, err := toml.Decode(string(raw), &schema); err != nil {
		return nil, fmt.Errorf("model: parse %s: %w", path, err)
	}

	defs := make([]*Definition, 0, len(schema.Definitions))
	for _, ds := range schema.Definitions {
		params, err := buildParameters(ds.Parameters)
		if err != nil {
			return nil, fmt.Errorf("model: %s in %s: %w", ds.ShortName, path, err)
		}

		d := &Definition{
			ShortName:   ds.ShortName,
			Version:     version,
			Subtitle:    ds.Subtitle,
			Kind:        Kind(ds.Kind),
			Parameters:  params,
			OutputFiles: ds.OutputFiles,
			BodyText:    ds.BodyTemplate,
			SourceFile:  path,
		}

		switch d.Kind {
		case KindMatlab:
			d.Runner = &MatlabRunner{Interpreter: ds.Interpreter, Script: ds.Script}
		case KindStandalone:
			d.Runner = &StandaloneRunner{Command: ds.Command, Args: ds.Args}
		}

		if err := d.Validate(); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func buildParameters(schemas []parameterSchema) ([]param.Param, error) {
	params := make([]param.Param, 0, len(schemas))
	for _, s := range schemas {
		p, err := buildParameter(s)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func buildParameter(s parameterSchema) (param.Param, error) {
	switch s.Type {
	case "int":
		min, hasMin := derefInt(s.Min)
		max, hasMax := derefInt(s.Max)
		return param.NewIntParam(s.Name, s.Description, s.Units, s.Hidden, min, max, hasMin, hasMax), nil
	case "float":
		min, hasMin := deref(s.Min)
		max, hasMax := deref(s.Max)
		step, hasStep := deref(s.Step)
		return param.NewFloatParam(s.Name, s.Description, s.Units, s.Hidden, min, max, hasMin, hasMax, step, hasStep), nil
	case "range":
		min, _ := deref(s.Min)
		max, _ := deref(s.Max)
		step, _ := deref(s.Step)
		return param.NewRangeParam(s.Name, s.Description, s.Units, s.Hidden, min, max, step), nil
	case "string":
		return param.NewStringParam(s.Name, s.Description, s.Units, s.Hidden, s.MaxLen), nil
	case "bool":
		return param.NewBoolParam(s.Name, s.Description, s.Hidden), nil
	case "select":
		return param.NewSelectParam(s.Name, s.Description, s.Units, s.Hidden, s.Options), nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q for %q", s.Type, s.Name)
	}
}

func deref(f *float64) (float64, bool) {
	if f == nil {
		return 0, false
	}
	return *f, true
}

func derefInt(f *float64) (int64, bool) {
	if f == nil {
		return 0, false
	}
	return int64(*f), true
}
