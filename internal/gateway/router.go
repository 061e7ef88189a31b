package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"lumiere/internal/model"
)

// Authenticator resolves request headers to claims. Any error is treated as
// unauthenticated by the router.
type Authenticator interface {
	AuthenticateRequest(ctx context.Context, header http.Header) (*model.Claims, error)
}

type Route struct {
	Method       string
	Pattern      string
	Handler      Handler
	RequiresAuth bool

	pattern *pathPattern
}

// Router dispatches to the first registered route whose method and pattern
// match. Register every route before serving; the table is not locked.
type Router struct {
	globalBase  string
	strictBase  bool
	base        string
	routes      []*Route
	middlewares []Middleware
	auth        Authenticator
	responder   *Responder
}

type Option func(*Router)

// WithGlobalBase sets the deployment-wide prefix stripped from every path.
func WithGlobalBase(prefix string) Option {
	return func(r *Router) { r.globalBase = trimPrefixPath(prefix) }
}

// RequireGlobalBase makes paths outside the global prefix unroutable instead
// of matching as if the prefix were absent.
func RequireGlobalBase() Option {
	return func(r *Router) { r.strictBase = true }
}

// WithBase sets the router-local prefix stripped after the global one.
func WithBase(prefix string) Option {
	return func(r *Router) { r.base = trimPrefixPath(prefix) }
}

func New(auth Authenticator, responder *Responder, opts ...Option) *Router {
	if responder == nil {
		responder = NewResponder(false)
	}

	r := &Router{auth: auth, responder: responder}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle appends a route. It panics on a pattern that does not compile,
// which can only happen at startup.
func (r *Router) Handle(method, pattern string, h Handler, requiresAuth bool) {
	compiled, err := compilePattern(pattern)
	if err != nil {
		panic(err)
	}

	r.routes = append(r.routes, &Route{
		Method:       strings.ToUpper(method),
		Pattern:      pattern,
		Handler:      h,
		RequiresAuth: requiresAuth,
		pattern:      compiled,
	})
}

func (r *Router) Get(pattern string, h HandlerFunc, requiresAuth bool) {
	r.Handle(http.MethodGet, pattern, h, requiresAuth)
}

func (r *Router) Post(pattern string, h HandlerFunc, requiresAuth bool) {
	r.Handle(http.MethodPost, pattern, h, requiresAuth)
}

func (r *Router) Put(pattern string, h HandlerFunc, requiresAuth bool) {
	r.Handle(http.MethodPut, pattern, h, requiresAuth)
}

func (r *Router) Delete(pattern string, h HandlerFunc, requiresAuth bool) {
	r.Handle(http.MethodDelete, pattern, h, requiresAuth)
}

func (r *Router) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	for i, route := range r.routes {
		out[i] = *route
	}
	return out
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path, inBase := r.effectivePath(req.URL.Path)

	for _, mw := range r.middlewares {
		if !mw(w, req) {
			return
		}
	}

	if !inBase {
		r.responder.NotFound(w)
		return
	}

	route, captures := r.match(req.Method, path)
	if route == nil {
		r.responder.NotFound(w)
		return
	}

	rc := &RequestContext{Request: req, Route: route}

	if route.RequiresAuth {
		claims, err := r.authenticate(req)
		if err != nil {
			slog.Debug("authentication rejected", "method", req.Method, "path", path, "error", err)
			r.responder.Unauthorized(w)
			return
		}
		rc.Claims = claims
		rc.Request = req.WithContext(WithClaims(req.Context(), claims))
	}

	rc.Params = route.pattern.params(captures)

	r.invoke(w, rc)
}

func (r *Router) authenticate(req *http.Request) (*model.Claims, error) {
	if r.auth == nil {
		return nil, model.ErrUnauthenticated
	}
	claims, err := r.auth.AuthenticateRequest(req.Context(), req.Header)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, model.ErrUnauthenticated
	}
	return claims, nil
}

func (r *Router) invoke(w http.ResponseWriter, rc *RequestContext) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("panic: %v", recovered)
			slog.Error("handler panic", "method", rc.Route.Method, "pattern", rc.Route.Pattern, "error", err, "stack", string(debug.Stack()))
			r.responder.Internal(w, err)
		}
	}()

	result, err := rc.Route.Handler.Serve(rc)
	if err != nil {
		r.responder.Error(w, err)
		return
	}

	if result == nil {
		result = OK("", nil)
	}
	r.responder.Success(w, result.Status, result.Message, result.Data)
}

func (r *Router) match(method, path string) (*Route, []string) {
	for _, route := range r.routes {
		if route.Method != method {
			continue
		}
		if captures, ok := route.pattern.match(path); ok {
			return route, captures
		}
	}
	return nil, nil
}

// effectivePath strips the global and router-local prefixes. Prefixes are
// only removed from the front of the path, and only on a segment boundary.
// The second result is false when the global prefix is required but absent.
func (r *Router) effectivePath(path string) (string, bool) {
	path, found := stripPrefix(path, r.globalBase)
	if !found && r.strictBase {
		return "", false
	}
	path, _ = stripPrefix(path, r.base)
	if path == "" {
		return "/", true
	}
	return path, true
}

// stripPrefix reports whether prefix was present. An empty prefix always is.
func stripPrefix(path, prefix string) (string, bool) {
	if prefix == "" {
		return path, true
	}
	if !strings.HasPrefix(path, prefix) {
		return path, false
	}
	rest := path[len(prefix):]
	if rest != "" && rest[0] != '/' {
		return path, false
	}
	return rest, true
}

func trimPrefixPath(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
