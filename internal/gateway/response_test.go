package gateway

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"lumiere/internal/model"
)

func TestResponderErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err     error
		status  int
		message string
	}{
		{err: model.ErrEmailTaken, status: http.StatusBadRequest, message: MessageEmailInUse},
		{err: fmt.Errorf("login: %w", model.ErrInvalidCredentials), status: http.StatusUnauthorized, message: MessageBadCredentials},
		{err: model.ErrInvalidToken, status: http.StatusUnauthorized, message: MessageAuthRequired},
		{err: model.ErrUnauthenticated, status: http.StatusUnauthorized, message: MessageAuthRequired},
		{err: model.ErrGalleryNotFound, status: http.StatusNotFound, message: MessageGalleryMissing},
		{err: model.ErrRouteNotFound, status: http.StatusNotFound, message: MessageRouteNotFound},
		{err: fmt.Errorf("query users: boom"), status: http.StatusInternalServerError, message: MessageInternalError},
	}

	rs := NewResponder(false)
	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rs.Error(rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			body := decodeEnvelope(t, rec)
			require.Equal(t, tc.message, body["message"])
			require.Equal(t, false, body["success"])
			require.NotContains(t, body, "debug")
		})
	}
}

func TestEnvelopeDoesNotEscape(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewResponder(false).Success(rec, http.StatusOK, "Café <ok>", "a/b")

	require.Contains(t, rec.Body.String(), `"Café <ok>"`)
	require.Contains(t, rec.Body.String(), `"a/b"`)
}
