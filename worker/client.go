// Package worker implements the polling driver: repeatedly ask the queue
// daemon for a task whose model version it has loaded, run the model,
// and report the outcome back.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/task"
)

// Client is a thin HTTP client over the queue daemon's worker-facing
// endpoints. Every call carries the shared request_secret as a query
// parameter, matching the daemon's requireSecret middleware.
type Client struct {
	BaseURL string
	Secret  string
	HTTP    *http.Client
}

// NewClient returns a Client using the transport default timeout, per the
// worker driver's "no custom per-request timeout is required" rule.
func NewClient(baseURL, secret string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Secret: secret, HTTP: &http.Client{}}
}

func (c *Client) url(path string, extra url.Values) string {
	v := extra
	if v == nil {
		v = url.Values{}
	}
	v.Set("secret", c.Secret)
	return fmt.Sprintf("%s%s?%s", c.BaseURL, path, v.Encode())
}

func (c *Client) getJSON(ctx context.Context, path string, extra url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, extra), nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// Info touches the queue's last_worker_checkin.
func (c *Client) Info(ctx context.Context) error {
	var out map[string]string
	return c.getJSON(ctx, "/worker_info", nil, &out)
}

// WorkResult classifies the outcome of WorkTask.
type WorkResult int

const (
	WorkPulled WorkResult = iota
	WorkEmptyQueue
	WorkNoVersion
)

// WorkTask asks the queue for the first pending task whose (name, version)
// is among versions.
func (c *Client) WorkTask(ctx context.Context, versions []model.Key) (*task.Task, WorkResult, error) {
	type wireVersion struct {
		ShortName string `json:"shortName"`
		Version   string `json:"version"`
	}
	wire := make([]wireVersion, len(versions))
	for i, k := range versions {
		wire[i] = wireVersion{ShortName: k.ShortName, Version: k.Version}
	}
	encoded, err := json.Marshal(wire)
	if err != nil {
		return nil, WorkEmptyQueue, err
	}

	var out struct {
		Status string    `json:"status"`
		Task   task.Dict `json:"task"`
	}
	if err := c.postForm(ctx, "/worker_work_task", url.Values{"model_versions_json": {string(encoded)}}, &out); err != nil {
		return nil, WorkEmptyQueue, err
	}

	switch out.Status {
	case "empty_queue":
		return nil, WorkEmptyQueue, nil
	case "no_version":
		return nil, WorkNoVersion, nil
	default:
		return task.FromDict(out.Task), WorkPulled, nil
	}
}

// KeepAlive refreshes the heartbeat for id.
func (c *Client) KeepAlive(ctx context.Context, id int64) error {
	var out map[string]string
	if err := c.getJSON(ctx, "/worker_keep_alive_task/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return err
	}
	if out["status"] == "bad_id" {
		return fmt.Errorf("worker: keep_alive: unknown task id %d", id)
	}
	return nil
}

// HasTask reports whether id is still in-flight on the queue.
func (c *Client) HasTask(ctx context.Context, id int64) (bool, error) {
	var out map[string]string
	if err := c.getJSON(ctx, "/worker_has_task/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return false, err
	}
	return out["status"] == "yes", nil
}

// SucceedTask reports successful completion of id.
func (c *Client) SucceedTask(ctx context.Context, id int64) error {
	var out map[string]string
	return c.getJSON(ctx, "/worker_succeed_task/"+strconv.FormatInt(id, 10), nil, &out)
}

// FailedTask reports a failed run of id.
func (c *Client) FailedTask(ctx context.Context, id int64) error {
	var out map[string]string
	return c.getJSON(ctx, "/worker_failed_task/"+strconv.FormatInt(id, 10), nil, &out)
}
