package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/google/uuid"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/task"
)

// LatexError reports a non-zero exit from the pdflatex invocation.
type LatexError struct {
	ExitCode int
	Output   []byte
}

func (e *LatexError) Error() string {
	return fmt.Sprintf("worker: pdflatex exited %d: %s", e.ExitCode, e.Output)
}

// execution carries one task's state through the run pipeline: working
// directory, parameter values resolved against the model definition, and
// the output files the model produced.
type execution struct {
	task       *task.Task
	definition *model.Definition
	workDir    string
	values     map[string]param.Param
	outputs    []mailer.BinaryAttachment
}

// newWorkingDirectory creates a fresh, uniquely named directory under
// root for one task run.
func newWorkingDirectory(root string) (string, error) {
	dir := filepath.Join(root, "workdir-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("worker: create working directory: %w", err)
	}
	return dir, nil
}

// resolveValues deserializes the task's stored parameter values against
// the definition's declared parameter templates, so the model body
// template and the LaTeX parameter table can render typed values rather
// than raw JSON.
func resolveValues(def *model.Definition, t *task.Task) (map[string]param.Param, error) {
	values := make(map[string]param.Param, len(def.Parameters))
	for _, decl := range def.Parameters {
		stored, ok := t.ParameterValues[decl.ParamName()]
		var (
			v   param.Param
			err error
		)
		if ok {
			v, err = param.Deserialize(decl, stored)
		} else {
			v, err = decl.NonExistValue()
		}
		if err != nil {
			return nil, fmt.Errorf("worker: resolving parameter %q: %w", decl.ParamName(), err)
		}
		values[decl.ParamName()] = v
	}
	return values, nil
}

// runModel invokes the definition's opaque Runner (matlab interpreter or
// standalone binary) inside workDir, the step the original implementation
// calls runModel.
func runModel(ctx context.Context, def *model.Definition, workDir string, values map[string]param.Param) error {
	return def.Runner.Run(ctx, workDir, values)
}

// collectOutputs reads every file the definition declares as an output,
// the step the original implementation calls getAttachments: each
// declared file must exist in workDir after the run.
func collectOutputs(def *model.Definition, workDir string) ([]mailer.BinaryAttachment, error) {
	out := make([]mailer.BinaryAttachment, 0, len(def.OutputFiles))
	for _, name := range def.OutputFiles {
		data, err := os.ReadFile(filepath.Join(workDir, name))
		if err != nil {
			return nil, fmt.Errorf("worker: reading declared output %q: %w", name, err)
		}
		out = append(out, mailer.BinaryAttachment{Name: name, Data: data})
	}
	return out, nil
}

// renderLatexBody renders the definition's body template against the
// resolved parameter values, producing the LaTeX source for the result
// PDF; each parameter's AsLatex rendering is appended as a row in the
// parameter table the template embeds.
func renderLatexBody(def *model.Definition, values map[string]param.Param) (string, error) {
	tmpl, err := template.New("body").Parse(def.BodyText)
	if err != nil {
		return "", fmt.Errorf("worker: parsing body template for %q: %w", def.ShortName, err)
	}

	rows := make([]string, 0, len(values))
	for _, decl := range def.Parameters {
		rows = append(rows, values[decl.ParamName()].AsLatex())
	}

	var buf bytes.Buffer
	data := struct {
		Subtitle       string
		ParameterRows  []string
	}{Subtitle: def.Subtitle, ParameterRows: rows}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("worker: rendering body template for %q: %w", def.ShortName, err)
	}
	return buf.String(), nil
}

// runPDFLatex writes source as test_task.tex in workDir and invokes engine
// against it numRuns times (multi-pass LaTeX compilation resolves cross
// references), halting on the first non-zero exit.
func runPDFLatex(ctx context.Context, engine, workDir, source string, numRuns int) ([]byte, error) {
	texPath := filepath.Join(workDir, "test_task.tex")
	if err := os.WriteFile(texPath, []byte(source), 0644); err != nil {
		return nil, fmt.Errorf("worker: writing latex source: %w", err)
	}

	for i := 0; i < numRuns; i++ {
		cmd := exec.CommandContext(ctx, engine, "-halt-on-error", "-interaction=nonstopmode", "test_task.tex")
		cmd.Dir = workDir
		out, err := cmd.CombinedOutput()
		if err != nil {
			exitCode := -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			}
			return out, &LatexError{ExitCode: exitCode, Output: out}
		}
	}

	pdf, err := os.ReadFile(filepath.Join(workDir, "test_task.pdf"))
	if err != nil {
		return nil, fmt.Errorf("worker: reading rendered pdf: %w", err)
	}
	return pdf, nil
}
