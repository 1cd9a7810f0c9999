package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/clinicore/internal/http/errors"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// WithRecover captura panics y devuelve un error 500 en lugar de crashear.
// http.ErrAbortHandler se re-lanza para que el servidor corte la conexión.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("panic recovered",
					logger.Op("recover"),
					logger.Any("panic", rec),
				)
				errors.WriteError(w, errors.ErrInternalServerError.WithDetail("panic recovered"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
