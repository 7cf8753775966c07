package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition() *model.Definition {
	return &model.Definition{
		ShortName: "abmu",
		Version:   "v1",
		Subtitle:  "Algorithmic BDF Model Unifacial",
		Kind:      model.KindStandalone,
		Parameters: []param.Param{
			param.NewIntParam("nSamples", "Number of samples", "", false, 1, 100000, true, true),
			param.NewBoolParam("verbose", "Verbose output", false),
		},
		OutputFiles: []string{"out.csv"},
		BodyText:    "Subtitle: {{.Subtitle}}\n{{range .ParameterRows}}{{.}}\n{{end}}",
		Runner:      &model.StandaloneRunner{Command: "/bin/true"},
	}
}

func TestResolveValuesAppliesNonExistDefaultsForMissingKeys(t *testing.T) {
	def := testDefinition()
	tk := &task.Task{
		ParameterValues: map[string]param.Stored{
			"nSamples": {Name: "nSamples", Value: int64(500)},
		},
	}

	values, err := resolveValues(def, tk)
	require.NoError(t, err)
	assert.Equal(t, int64(500), values["nSamples"].Serialize().Value)
	assert.Equal(t, false, values["verbose"].Serialize().Value)
}

func TestResolveValuesRejectsOutOfRangeValue(t *testing.T) {
	def := testDefinition()
	tk := &task.Task{
		ParameterValues: map[string]param.Stored{
			"nSamples": {Name: "nSamples", Value: int64(-5)},
			"verbose":  {Name: "verbose", Value: true},
		},
	}

	_, err := resolveValues(def, tk)
	assert.Error(t, err)
}

func TestRenderLatexBodyIncludesParameterRows(t *testing.T) {
	def := testDefinition()
	tk := &task.Task{
		ParameterValues: map[string]param.Stored{
			"nSamples": {Name: "nSamples", Value: int64(500)},
			"verbose":  {Name: "verbose", Value: true},
		},
	}
	values, err := resolveValues(def, tk)
	require.NoError(t, err)

	body, err := renderLatexBody(def, values)
	require.NoError(t, err)
	assert.Contains(t, body, "Algorithmic BDF Model Unifacial")
	assert.Contains(t, body, "500")
}

func TestNewWorkingDirectoryCreatesUniqueDirectories(t *testing.T) {
	root := t.TempDir()
	d1, err := newWorkingDirectory(root)
	require.NoError(t, err)
	d2, err := newWorkingDirectory(root)
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
	assert.DirExists(t, d1)
	assert.DirExists(t, d2)
}

func TestCollectOutputsReadsDeclaredFiles(t *testing.T) {
	def := testDefinition()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.csv"), []byte("a,b\n1,2\n"), 0644))

	outputs, err := collectOutputs(def, dir)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "out.csv", outputs[0].Name)
	assert.Equal(t, "a,b\n1,2\n", string(outputs[0].Data))
}

func TestCollectOutputsErrorsOnMissingFile(t *testing.T) {
	def := testDefinition()
	_, err := collectOutputs(def, t.TempDir())
	assert.Error(t, err)
}

func TestRunModelInvokesRunner(t *testing.T) {
	def := testDefinition()
	err := runModel(context.Background(), def, t.TempDir(), nil)
	assert.NoError(t, err)
}
