package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS answers cross-origin requests for the configured origins. Preflights
// get a bare 200 so clients that reject 204 keep working. Credentials are
// only allowed with an explicit origin list; browsers refuse them next to a
// wildcard.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "Authorization", "X-Access-Token", "X-Request-ID"},
		ExposedHeaders:       []string{"X-Request-ID"},
		MaxAge:               86400,
		AllowCredentials:     !slices.Contains(origins, "*"),
		OptionsSuccessStatus: http.StatusOK,
	})

	return handler.Handler
}
