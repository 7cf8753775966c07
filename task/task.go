// Package task defines the unit of work carried through the confirmation
// map, pending queue and in-flight set.
package task

import (
	"github.com/npsgd-project/npsgd/crypto"
	"github.com/npsgd-project/npsgd/param"
)

// Task is one model run requested by one user. ID is monotone and
// regenerated on every retry; VisibleID is stable for the task's entire
// user-facing lifetime.
type Task struct {
	ID              int64
	VisibleID       string
	EmailAddress    string
	ModelName       string
	ModelVersion    string
	ParameterValues map[string]param.Stored
	FailureCount    int
}

// Dict is the wire/persistence shape: {emailAddress, taskId, visibleId,
// failureCount, modelName, modelVersion, modelParameters}.
type Dict struct {
	EmailAddress    string                  `json:"emailAddress"`
	TaskID          int64                   `json:"taskId"`
	VisibleID       string                  `json:"visibleId"`
	FailureCount    int                     `json:"failureCount"`
	ModelName       string                  `json:"modelName"`
	ModelVersion    string                  `json:"modelVersion"`
	ModelParameters map[string]param.Stored `json:"modelParameters"`
}

// AsDict projects a Task onto its wire representation.
func (t *Task) AsDict() Dict {
	return Dict{
		EmailAddress:    t.EmailAddress,
		TaskID:          t.ID,
		VisibleID:       t.VisibleID,
		FailureCount:    t.FailureCount,
		ModelName:       t.ModelName,
		ModelVersion:    t.ModelVersion,
		ModelParameters: t.ParameterValues,
	}
}

// FromDict reconstructs a Task from its wire representation.
func FromDict(d Dict) *Task {
	return &Task{
		ID:              d.TaskID,
		VisibleID:       d.VisibleID,
		EmailAddress:    d.EmailAddress,
		ModelName:       d.ModelName,
		ModelVersion:    d.ModelVersion,
		ParameterValues: d.ModelParameters,
		FailureCount:    d.FailureCount,
	}
}

// NewVisibleID returns an 8-char random slug for user-facing references.
func NewVisibleID() string { return crypto.RandomString(8, crypto.AlphanumericAlphabet) }
