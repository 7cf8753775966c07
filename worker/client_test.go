package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npsgd-project/npsgd/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkTaskParsesEmptyQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "empty_queue"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, result, err := c.WorkTask(context.Background(), []model.Key{{ShortName: "abmu", Version: "v1"}})
	require.NoError(t, err)
	assert.Equal(t, WorkEmptyQueue, result)
}

func TestWorkTaskParsesPulledTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"task": map[string]interface{}{
				"taskId":       1,
				"emailAddress": "a@b.com",
				"modelName":    "abmu",
				"modelVersion": "v1",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	tk, result, err := c.WorkTask(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, WorkPulled, result)
	assert.Equal(t, "abmu", tk.ModelName)
}

func TestKeepAliveReturnsErrorOnBadID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "bad_id"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	err := c.KeepAlive(context.Background(), 42)
	assert.Error(t, err)
}

func TestHasTaskReportsYesAndNo(t *testing.T) {
	status := "yes"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	ok, err := c.HasTask(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	status = "no"
	ok, err = c.HasTask(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
