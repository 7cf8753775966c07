package task

import (
	"testing"

	"github.com/npsgd-project/npsgd/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsDictFromDictRoundTrip(t *testing.T) {
	orig := &Task{
		ID:           42,
		VisibleID:    "abcd1234",
		EmailAddress: "a@b.com",
		ModelName:    "abmu",
		ModelVersion: "deadbeef",
		ParameterValues: map[string]param.Stored{
			"nSamples": {Name: "nSamples", Value: int64(10000)},
		},
		FailureCount: 1,
	}

	round := FromDict(orig.AsDict())
	assert.Equal(t, orig, round)
}

func TestNewVisibleIDLength(t *testing.T) {
	id := NewVisibleID()
	require.Len(t, id, 8)
}
