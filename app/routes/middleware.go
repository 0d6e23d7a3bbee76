package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rs/zerolog/hlog"

	"todo-tree/app/logger"
)

var (
	allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	allowedHeaders = []string{"Content-Type", "Authorization"}
)

// AccessLog attaches a request id and logs one line per request.
func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			l := hlog.FromRequest(r)
			event := l.Info()
			if status >= http.StatusInternalServerError {
				event = l.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		})(next)
		h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
		return hlog.NewHandler(log.Zerolog())(h)
	}
}

// CORS allows the given origins. Credentials are only allowed for an
// explicit origin list, never together with "*".
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed = append(allowed, strings.TrimRight(o, "/"))
	}

	opts := []handlers.CORSOption{
		handlers.AllowedOrigins(allowed),
		handlers.AllowedMethods(allowedMethods),
		handlers.AllowedHeaders(allowedHeaders),
		handlers.OptionStatusCode(http.StatusNoContent),
	}
	if !wildcard {
		opts = append(opts, handlers.AllowCredentials())
	}
	return handlers.CORS(opts...)
}
