package middlewares

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// =================================================================================
// STATUS RECORDER
// =================================================================================

// statusRecorder captura el status code y bytes escritos de la respuesta.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.status = http.StatusOK
		s.wroteHeader = true
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// =================================================================================
// LOGGING MIDDLEWARE
// =================================================================================

// WithLogging registra cada request e inyecta en el contexto un logger scoped
// con request_id, method y path. Los middlewares internos agregan cuenta y hospital.
// Un request rechazado por el middleware de tenant sale en warn; un 5xx en error.
//
// Ejemplo de log (prod):
//
//	{"level":"info","msg":"request completed","request_id":"…","method":"GET","path":"/v1/patients","tenant_code":"gen","status":200,"bytes":256,"duration":0.0045}
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := w.Header().Get(HeaderRequestID)
			if requestID == "" {
				requestID = GetRequestID(r.Context())
			}

			reqLog := logger.L().With(
				logger.RequestID(requestID),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			ctx := logger.ToContext(r.Context(), reqLog)
			ctx, meta := withMeta(ctx)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := []zap.Field{
				logger.Status(rec.status),
				logger.Bytes(rec.bytes),
				logger.Duration(time.Since(start)),
			}
			accountID, tenant, denied := meta.snapshot()
			if accountID != "" {
				fields = append(fields, logger.AccountID(accountID))
			}
			if tenant != "" {
				fields = append(fields, logger.TenantCode(tenant))
			}
			if denied != "" {
				fields = append(fields, logger.String("denied", denied))
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				reqLog.Error("request completed", fields...)
			case denied != "":
				reqLog.Warn("request completed", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}
		})
	}
}
