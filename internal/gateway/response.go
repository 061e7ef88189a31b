package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lumiere/internal/model"
	"lumiere/pkg/apierror"
)

const (
	MessageSuccess        = "Success"
	MessageRouteNotFound  = "Route not found"
	MessageAuthRequired   = "Authentication required"
	MessageInternalError  = "Internal server error"
	MessageEmailInUse     = "Registration failed. Email may already be in use."
	MessageBadCredentials = "Invalid credentials"
	MessageGalleryMissing = "Gallery item not found"
)

// Responder is the single place JSON envelopes are written from.
type Responder struct {
	debug bool
}

func NewResponder(debug bool) *Responder {
	return &Responder{debug: debug}
}

func (rs *Responder) Debug() bool {
	return rs != nil && rs.debug
}

func (rs *Responder) Success(w http.ResponseWriter, status int, message string, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	if message == "" {
		message = MessageSuccess
	}
	WriteEnvelope(w, status, model.Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope. detail is attached under "debug" only when
// debug mode is on.
func (rs *Responder) Fail(w http.ResponseWriter, status int, message string, fields map[string]string, detail error) {
	env := model.Envelope{Success: false, Message: message, Errors: fields}
	if detail != nil && rs.Debug() {
		env.Debug = detail.Error()
	}
	WriteEnvelope(w, status, env)
}

func (rs *Responder) NotFound(w http.ResponseWriter) {
	rs.Fail(w, http.StatusNotFound, MessageRouteNotFound, nil, nil)
}

func (rs *Responder) Unauthorized(w http.ResponseWriter) {
	rs.Fail(w, http.StatusUnauthorized, MessageAuthRequired, nil, nil)
}

func (rs *Responder) Internal(w http.ResponseWriter, err error) {
	rs.Fail(w, http.StatusInternalServerError, MessageInternalError, nil, err)
}

// Error maps err onto the error taxonomy and writes the matching envelope.
func (rs *Responder) Error(w http.ResponseWriter, err error) {
	var apiErr *apierror.APIError

	switch {
	case errors.As(err, &apiErr):
		rs.Fail(w, apiErr.HTTPStatus, apiErr.Message, apiErr.Fields, nil)
	case errors.Is(err, model.ErrEmailTaken):
		rs.Fail(w, http.StatusBadRequest, MessageEmailInUse, nil, nil)
	case errors.Is(err, model.ErrInvalidCredentials):
		rs.Fail(w, http.StatusUnauthorized, MessageBadCredentials, nil, nil)
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrInvalidToken):
		rs.Unauthorized(w)
	case errors.Is(err, model.ErrGalleryNotFound):
		rs.Fail(w, http.StatusNotFound, MessageGalleryMissing, nil, nil)
	case errors.Is(err, model.ErrRouteNotFound):
		rs.NotFound(w)
	default:
		slog.Error("unhandled error", "error", err)
		rs.Internal(w, err)
	}
}

// WriteEnvelope emits env as JSON without HTML escaping.
func WriteEnvelope(w http.ResponseWriter, status int, env model.Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		slog.Error("encode response envelope", "error", err)
	}
}
