package webfrontend

import "html/template"

// These templates are deliberately minimal: the HTML form rendering and
// visual design are outside this system's boundary, so the page bodies
// here exist only to exercise the create/confirm request flow end to end.

var formTemplate = template.Must(template.New("form").Parse(`<!doctype html>
<title>{{.Model.ShortName}}</title>
<h1>{{.Model.Subtitle}}</h1>
{{if .ErrorText}}<p class="error">{{.ErrorText}}</p>{{end}}
<form method="post">
<input type="hidden" name="modelVersion" value="{{.Model.Version}}">
{{range .ParamHTML}}{{.}}{{end}}
<label>Email: <input type="email" name="email" required></label>
<button type="submit">Submit</button>
</form>
`))

var confirmSentTemplate = template.Must(template.New("confirm-sent").Parse(`<!doctype html>
<title>Check your email</title>
<p>A confirmation link was sent to {{.Email}}.</p>
<p>Confirmation code: {{.Code}}</p>
`))

var confirmedTemplate = template.Must(template.New("confirmed").Parse(`<!doctype html>
<title>Confirmed</title>
<p>{{.Message}}</p>
`))
