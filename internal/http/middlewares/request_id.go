package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/clinicore/internal/http/errors"
)

// HeaderRequestID header de correlación entre cliente, logs y cuerpo de error.
const HeaderRequestID = errors.HeaderRequestID

const maxRequestIDLen = 128

// WithRequestID reusa el X-Request-ID del cliente si es un token seguro para logs;
// si no, genera un UUID. Va antes de WithLogging y de cualquier WriteError.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get(HeaderRequestID)
			if !validRequestID(rid) {
				rid = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}

// validRequestID acepta [A-Za-z0-9._:-]{1,128}; evita inyectar espacios o saltos de línea en logs.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
