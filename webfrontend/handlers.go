package webfrontend

import (
	"html/template"
	"net"
	"net/http"

	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/router"
)

// NewHandler builds the full client-facing HTTP surface: an index page, a
// form+submit endpoint per loaded model short_name, and the confirmation
// endpoint.
func NewHandler(f *Frontend) http.Handler {
	r := router.New()
	params := router.NewParamGeter()

	r.Get("/", http.HandlerFunc(f.handleIndex))
	r.Get("/models/:name", f.withParam(params, f.handleModelFormGet))
	r.Post("/models/:name", f.withParam(params, f.handleModelFormPost))
	r.Get("/confirm_submission/:code", f.withParam(params, f.handleConfirm))

	return r
}

func (f *Frontend) withParam(geter router.ParamGeter, fn func(w http.ResponseWriter, r *http.Request, p router.Params)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, geter.Get(r.Context()))
	})
}

func (f *Frontend) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Find a model!"))
}

func (f *Frontend) handleModelFormGet(w http.ResponseWriter, r *http.Request, p router.Params) {
	def, ok := f.Registry.Latest(p.ByName("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	f.renderForm(w, def, "")
}

func (f *Frontend) renderForm(w http.ResponseWriter, def *model.Definition, errorText string) {
	rows := make([]template.HTML, 0, len(def.Parameters))
	for _, decl := range def.Parameters {
		rows = append(rows, template.HTML(decl.AsHTML()))
	}
	data := struct {
		Model     *model.Definition
		ParamHTML []template.HTML
		ErrorText string
	}{Model: def, ParamHTML: rows, ErrorText: errorText}
	if err := formTemplate.Execute(w, data); err != nil {
		f.Logger.Error("webfrontend: rendering form", "model", def.ShortName, "error", err)
	}
}

func (f *Frontend) handleModelFormPost(w http.ResponseWriter, r *http.Request, p router.Params) {
	def, ok := f.Registry.Latest(p.ByName("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		f.renderForm(w, def, "could not parse submission")
		return
	}

	email := r.FormValue("email")
	if email == "" {
		f.renderForm(w, def, "an email address is required")
		return
	}

	values := make(map[string]param.Stored, len(def.Parameters))
	for _, decl := range def.Parameters {
		if decl.Hidden() {
			continue
		}
		raw, present := r.Form[decl.ParamName()]
		var (
			v   param.Param
			err error
		)
		if present {
			v, err = decl.WithValue(raw[0])
		} else {
			v, err = decl.NonExistValue()
		}
		if err != nil {
			f.renderForm(w, def, err.Error())
			return
		}
		values[decl.ParamName()] = v.Serialize()
	}

	ctx := r.Context()
	result, err := f.Queue.create(ctx, email, def.ShortName, def.Version, values)
	if err != nil {
		f.Logger.Error("webfrontend: queue rejected submission", "model", def.ShortName, "error", err)
		f.renderForm(w, def, "submission could not be processed, please try again")
		return
	}

	if err := confirmSentTemplate.Execute(w, struct {
		Email string
		Code  string
	}{Email: result.Task.EmailAddress, Code: result.Code}); err != nil {
		f.Logger.Error("webfrontend: rendering confirm-sent page", "error", err)
	}
}

func (f *Frontend) handleConfirm(w http.ResponseWriter, r *http.Request, p router.Params) {
	cfg := f.Cfg.Get().Web
	ip := clientIP(r)
	if !f.limiter.allow(ip, cfg.ConfirmRatePerS, cfg.ConfirmRateBurst) {
		http.Error(w, "too many confirmation attempts, slow down", http.StatusTooManyRequests)
		return
	}

	code := p.ByName("code")
	status, err := f.Queue.confirm(r.Context(), code)
	if err != nil {
		f.Logger.Info("webfrontend: confirm rejected by queue", "code", code, "error", err)
		http.Error(w, "confirmation code not found or expired", http.StatusNotFound)
		return
	}

	message := "Your submission is confirmed and has been queued."
	if status == "already_confirmed" {
		message = "This submission was already confirmed."
	}
	if err := confirmedTemplate.Execute(w, struct{ Message string }{Message: message}); err != nil {
		f.Logger.Error("webfrontend: rendering confirmed page", "error", err)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
