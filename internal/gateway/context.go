package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lumiere/internal/model"
	"lumiere/pkg/apierror"
)

type claimsKey struct{}

// WithClaims stores authenticated claims on ctx.
func WithClaims(ctx context.Context, claims *model.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims placed by the auth gate, if any.
func ClaimsFromContext(ctx context.Context) (*model.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*model.Claims)
	return claims, ok && claims != nil
}

// RequestContext is built once per dispatch and handed to the matched handler.
type RequestContext struct {
	Request *http.Request
	Route   *Route
	Params  map[string]string
	Claims  *model.Claims
}

func (c *RequestContext) Context() context.Context {
	return c.Request.Context()
}

func (c *RequestContext) Param(name string) string {
	return c.Params[name]
}

// UserID is the authenticated subject, or "" on public routes.
func (c *RequestContext) UserID() string {
	if c.Claims == nil {
		return ""
	}
	return c.Claims.UserID
}

// Decode reads a JSON body into dst. An empty body leaves dst untouched.
func (c *RequestContext) Decode(dst any) error {
	if c.Request.Body == nil {
		return nil
	}

	if err := json.NewDecoder(c.Request.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apierror.New("PAYLOAD_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge)
		}
		return apierror.BadRequest("Invalid JSON body")
	}

	return nil
}

// Result is what a handler hands back on success.
type Result struct {
	Status  int
	Message string
	Data    any
}

func OK(message string, data any) *Result {
	return &Result{Status: http.StatusOK, Message: message, Data: data}
}

func Created(message string, data any) *Result {
	return &Result{Status: http.StatusCreated, Message: message, Data: data}
}

type Handler interface {
	Serve(rc *RequestContext) (*Result, error)
}

type HandlerFunc func(rc *RequestContext) (*Result, error)

func (f HandlerFunc) Serve(rc *RequestContext) (*Result, error) {
	return f(rc)
}
