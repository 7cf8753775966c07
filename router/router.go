// Package router wraps httprouter behind a small interface so the HTTP
// surface of a daemon depends on Params/Router, not on the third-party
// package directly.
package router

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Param is one named path segment captured by the router.
type Param struct {
	Key   string
	Value string
}

// Params is the ordered set of path parameters matched for a request.
type Params []Param

// ByName returns the value of the named parameter, or "" if absent.
func (p Params) ByName(name string) string {
	for _, v := range p {
		if v.Key == name {
			return v.Value
		}
	}
	return ""
}

// ParamGeter extracts Params from a request context; it exists so callers
// never import httprouter directly.
type ParamGeter interface {
	Get(ctx context.Context) Params
}

type paramGeter struct{}

func (paramGeter) Get(ctx context.Context) Params {
	raw, _ := ctx.Value(httprouter.ParamsKey).(httprouter.Params)
	params := make(Params, 0, len(raw))
	for _, v := range raw {
		params = append(params, Param{Key: v.Key, Value: v.Value})
	}
	return params
}

// NewParamGeter returns the httprouter-backed ParamGeter.
func NewParamGeter() ParamGeter { return paramGeter{} }

// Router is a thin wrapper over httprouter.Router exposing plain
// http.Handler registration.
type Router struct {
	*httprouter.Router
}

// New returns an empty Router.
func New() *Router {
	return &Router{httprouter.New()}
}

func (r *Router) Get(path string, handler http.Handler)    { r.Handler(http.MethodGet, path, handler) }
func (r *Router) Post(path string, handler http.Handler)   { r.Handler(http.MethodPost, path, handler) }
func (r *Router) Delete(path string, handler http.Handler) { r.Handler(http.MethodDelete, path, handler) }
