package webfrontend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/task"
)

// queueClient is a thin, timeout-bounded HTTP client over the queue
// daemon's client-facing endpoints, mirroring the worker driver's Client
// but for the narrower create/confirm surface.
type queueClient struct {
	http *http.Client
	cfg  *config.Provider
}

func (q *queueClient) baseURL() string {
	return strings.TrimRight(q.cfg.Get().Web.QueueBaseURL, "/")
}

func (q *queueClient) secret() string { return q.cfg.Get().Web.RequestSecret }

// createResult is the parsed {"response": {"task": ..., "code": ...}}
// envelope the queue returns from client_model_create.
type createResult struct {
	Task *task.Task
	Code string
}

// create submits a freshly built task (id/visible-id not yet assigned;
// the queue assigns both) and returns the queue-assigned task plus its
// confirmation code.
func (q *queueClient) create(ctx context.Context, emailAddress, modelName, modelVersion string, values map[string]param.Stored) (*createResult, error) {
	dict := task.Dict{
		EmailAddress:    emailAddress,
		ModelName:       modelName,
		ModelVersion:    modelVersion,
		ModelParameters: values,
	}
	encoded, err := json.Marshal(dict)
	if err != nil {
		return nil, fmt.Errorf("webfrontend: encoding task: %w", err)
	}

	form := url.Values{"task_json": {string(encoded)}}
	reqURL := fmt.Sprintf("%s/client_model_create?secret=%s", q.baseURL(), url.QueryEscape(q.secret()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := q.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webfrontend: queue unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out struct {
		Response *struct {
			Task task.Dict `json:"task"`
			Code string    `json:"code"`
		} `json:"response"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("webfrontend: decoding queue response: %w", err)
	}
	if out.Response == nil {
		return nil, &queueError{Code: out.Error}
	}
	return &createResult{Task: task.FromDict(out.Response.Task), Code: out.Response.Code}, nil
}

// confirm asks the queue to move a pending confirmation into the live
// queue, returning its bare "okay" / "already_confirmed" response string.
func (q *queueClient) confirm(ctx context.Context, code string) (string, error) {
	reqURL := fmt.Sprintf("%s/client_confirm/%s?secret=%s", q.baseURL(), url.PathEscape(code), url.QueryEscape(q.secret()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := q.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("webfrontend: queue unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var out struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("webfrontend: decoding queue response: %w", err)
	}
	if out.Response == "" {
		return "", &queueError{Code: out.Error}
	}
	return out.Response, nil
}

// queueError wraps the queue's {"error": "..."} envelope for not_found /
// invalid_model / validation_error / bad_secret responses.
type queueError struct {
	Code string
}

func (e *queueError) Error() string { return fmt.Sprintf("webfrontend: queue reported %q", e.Code) }
