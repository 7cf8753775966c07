// Package model implements the plug-in registry: model definitions
// (parameter schema + output spec + body template + an opaque run
// operation) discovered from a directory and versioned by a content hash
// of the file declaring them.
//
// Dynamically compiling and loading arbitrary source at runtime has no
// supported path in Go. Each plug-in here is instead a declarative TOML
// file describing the parameter schema, output files and invocation kind;
// "how to invoke" is the narrow opaque behavior (Runner), not a full class
// hierarchy.
package model

import (
	"context"
	"fmt"

	"github.com/npsgd-project/npsgd/param"
)

// Kind distinguishes the two invocation strategies a plug-in may declare.
type Kind string

const (
	KindMatlab     Kind = "matlab"
	KindStandalone Kind = "standalone"
)

// Key identifies one loaded version of a model definition.
type Key struct {
	ShortName string
	Version   string
}

func (k Key) String() string { return fmt.Sprintf("%s@%s", k.ShortName, k.Version) }

// Runner executes a model's opaque run operation in a working directory
// already populated with the submitted parameter values. The real
// scientific computation lives in the external interpreter or binary this
// invokes; Runner is only the thin dispatch.
type Runner interface {
	Run(ctx context.Context, workDir string, values map[string]param.Param) error
}

// Definition is one loaded version of a model plug-in.
type Definition struct {
	ShortName   string
	Version     string
	Subtitle    string
	Kind        Kind
	Parameters  []param.Param
	OutputFiles []string
	BodyText    string // raw template source; rendered via text/template by the worker
	Runner      Runner

	// SourceFile is the plug-in file this definition was parsed from,
	// kept for diagnostics and for RescanNow reporting.
	SourceFile string
}

// Key returns this definition's registry key.
func (d *Definition) Key() Key { return Key{ShortName: d.ShortName, Version: d.Version} }

// ParameterByName returns the declared (valueless) parameter template for
// name, or nil.
func (d *Definition) ParameterByName(name string) param.Param {
	for _, p := range d.Parameters {
		if p.ParamName() == name {
			return p
		}
	}
	return nil
}

// Validate rejects a definition that lacks a short_name, declares no
// parameters, or names an unrecognized invocation kind.
func (d *Definition) Validate() error {
	if d.ShortName == "" {
		return fmt.Errorf("invalid_model: definition in %s lacks short_name", d.SourceFile)
	}
	if len(d.Parameters) == 0 {
		return fmt.Errorf("invalid_model: definition %q in %s has no parameters", d.ShortName, d.SourceFile)
	}
	switch d.Kind {
	case KindMatlab, KindStandalone:
	default:
		return fmt.Errorf("invalid_model: definition %q in %s has unknown kind %q", d.ShortName, d.SourceFile, d.Kind)
	}
	return nil
}
