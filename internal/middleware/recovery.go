package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"lumiere/internal/gateway"
	"lumiere/internal/model"
)

// Recovery catches panics that escape the gateways, e.g. from other
// middleware, and answers with the standard failure envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "path", r.URL.Path, "stack", string(debug.Stack()))
				gateway.WriteEnvelope(w, http.StatusInternalServerError, model.Envelope{
					Success: false,
					Message: gateway.MessageInternalError,
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
