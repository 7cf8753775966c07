package queued

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/npsgd-project/npsgd/confirmation"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/router"
	"github.com/npsgd-project/npsgd/task"
	"github.com/npsgd-project/npsgd/taskqueue"
)

// NewHandler builds the full HTTP surface, wrapping every route with the
// shared secret check.
func NewHandler(d *Daemon) http.Handler {
	r := router.New()
	params := router.NewParamGeter()

	r.Post("/client_model_create", d.requireSecret(http.HandlerFunc(d.handleClientModelCreate)))
	r.Get("/client_confirm/:code", d.requireSecret(d.withParam(params, d.handleClientConfirm)))
	r.Get("/client_queue_has_workers", d.requireSecret(http.HandlerFunc(d.handleHasWorkers)))

	r.Get("/worker_info", d.requireSecret(http.HandlerFunc(d.handleWorkerInfo)))
	r.Post("/worker_work_task", d.requireSecret(http.HandlerFunc(d.handleWorkTask)))
	r.Get("/worker_keep_alive_task/:id", d.requireSecret(d.withParam(params, d.handleKeepAliveTask)))
	r.Get("/worker_succeed_task/:id", d.requireSecret(d.withParam(params, d.handleSucceedTask)))
	r.Get("/worker_failed_task/:id", d.requireSecret(d.withParam(params, d.handleFailedTask)))
	r.Get("/worker_has_task/:id", d.requireSecret(d.withParam(params, d.handleHasTask)))

	r.Get("/admin/rescan_models", d.requireSecret(http.HandlerFunc(d.handleRescanModels)))

	return r
}

// withParam adapts a handler that needs the matched router.Params into a
// plain http.Handler.
func (d *Daemon) withParam(geter router.ParamGeter, fn func(w http.ResponseWriter, r *http.Request, p router.Params)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, geter.Get(r.Context()))
	})
}

type createRequest struct {
	EmailAddress    string                  `json:"emailAddress"`
	ModelName       string                  `json:"modelName"`
	ModelVersion    string                  `json:"modelVersion"`
	ModelParameters map[string]param.Stored `json:"modelParameters"`
}

func (d *Daemon) handleClientModelCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	var req createRequest
	if err := json.Unmarshal([]byte(r.FormValue("task_json")), &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_task_json"})
		return
	}

	def, ok := d.registry.Get(model.Key{ShortName: req.ModelName, Version: req.ModelVersion})
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_model"})
		return
	}

	values := make(map[string]param.Stored, len(req.ModelParameters))
	for _, decl := range def.Parameters {
		stored, present := req.ModelParameters[decl.ParamName()]
		var (
			valid param.Param
			err   error
		)
		if present {
			valid, err = param.Deserialize(decl, stored)
		} else {
			valid, err = decl.NonExistValue()
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation_error", "detail": err.Error()})
			return
		}
		values[decl.ParamName()] = valid.Serialize()
	}

	now := time.Now()
	t := &task.Task{
		ID:              d.queue.NextID(),
		VisibleID:       task.NewVisibleID(),
		EmailAddress:    req.EmailAddress,
		ModelName:       req.ModelName,
		ModelVersion:    req.ModelVersion,
		ParameterValues: values,
	}

	code := d.confirmations.Put(t, now)
	queueCfg := d.cfg.Get().Queue
	d.mail.Enqueue(confirmationEmail(t, code, queueCfg.ConfirmBaseURL, queueCfg.ConfirmTimeout.Duration))
	d.persistSnapshot()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"response": map[string]interface{}{
			"task": t.AsDict(),
			"code": code,
		},
	})
}

func (d *Daemon) handleClientConfirm(w http.ResponseWriter, r *http.Request, p router.Params) {
	now := time.Now()
	d.confirmations.ExpireStale(now)

	code := p.ByName("code")
	entry, outcome := d.confirmations.Confirm(code, now)
	switch outcome {
	case confirmation.Confirmed:
		d.queue.Enqueue(entry.Task)
		d.persistSnapshot()
		writeJSON(w, http.StatusOK, map[string]interface{}{"response": "okay"})
	case confirmation.AlreadyConfirmed:
		writeJSON(w, http.StatusOK, map[string]interface{}{"response": "already_confirmed"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	}
}

func (d *Daemon) handleHasWorkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"has_workers": d.hasWorkers(time.Now())})
}

func (d *Daemon) handleWorkerInfo(w http.ResponseWriter, r *http.Request) {
	d.touchWorkerCheckin(time.Now())
	writeJSON(w, http.StatusOK, map[string]string{"status": "okay"})
}

type modelVersion struct {
	ShortName string `json:"shortName"`
	Version   string `json:"version"`
}

func (d *Daemon) handleWorkTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	var versions []modelVersion
	if err := json.Unmarshal([]byte(r.FormValue("model_versions_json")), &versions); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_model_versions_json"})
		return
	}

	set := make(map[model.Key]struct{}, len(versions))
	for _, v := range versions {
		set[model.Key{ShortName: v.ShortName, Version: v.Version}] = struct{}{}
	}

	t, result := d.queue.PullMatching(set, time.Now())
	switch result {
	case taskqueue.Pulled:
		writeJSON(w, http.StatusOK, map[string]interface{}{"task": t.AsDict()})
	case taskqueue.NoVersion:
		writeJSON(w, http.StatusOK, map[string]string{"status": "no_version"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "empty_queue"})
	}
}

func parseTaskID(p router.Params) (int64, bool) {
	raw := p.ByName("id")
	var id int64
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, false
		}
		id = id*10 + int64(c-'0')
	}
	return id, raw != ""
}

func (d *Daemon) handleKeepAliveTask(w http.ResponseWriter, r *http.Request, p router.Params) {
	id, ok := parseTaskID(p)
	if !ok || !d.queue.KeepAlive(id, time.Now()) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "bad_id"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "okay"})
}

func (d *Daemon) handleSucceedTask(w http.ResponseWriter, r *http.Request, p router.Params) {
	id, ok := parseTaskID(p)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "bad_id"})
		return
	}
	if _, ok := d.queue.Succeed(id); !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "bad_id"})
		return
	}
	d.persistSnapshot()
	writeJSON(w, http.StatusOK, map[string]string{"status": "okay"})
}

func (d *Daemon) handleFailedTask(w http.ResponseWriter, r *http.Request, p router.Params) {
	id, ok := parseTaskID(p)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "bad_id"})
		return
	}

	maxFailures := d.cfg.Get().Queue.MaxJobFailures
	t, outcome := d.queue.Fail(id, maxFailures, time.Now())
	if outcome == taskqueue.UnknownID {
		writeJSON(w, http.StatusOK, map[string]string{"status": "bad_id"})
		return
	}
	if outcome == taskqueue.Retired {
		d.queueFailureEmail(t, "your job failed on every worker that attempted it")
	}
	d.persistSnapshot()
	writeJSON(w, http.StatusOK, map[string]string{"status": "okay"})
}

func (d *Daemon) handleHasTask(w http.ResponseWriter, r *http.Request, p router.Params) {
	id, ok := parseTaskID(p)
	if !ok || !d.queue.HasTask(id) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "yes"})
}

func (d *Daemon) handleRescanModels(w http.ResponseWriter, r *http.Request) {
	if err := d.loader.RescanNow(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "rescan_failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "triggered"})
}
