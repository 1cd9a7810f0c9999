package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// HeaderRequestID lo fija el middleware de request id antes de llegar a cualquier handler.
const HeaderRequestID = "X-Request-ID"

// retryAfter para 503: el registry reintenta abrir el store en el próximo acceso.
const retryAfter = 5

type body struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError serializa err como AppError (ver FromError) y escribe status y cuerpo.
// El request_id del header de respuesta viaja en el cuerpo para que soporte lo cruce con los logs.
func WriteError(w http.ResponseWriter, err error) {
	e := FromError(err)

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	if e.HTTPStatus == http.StatusServiceUnavailable {
		h.Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.WriteHeader(e.HTTPStatus)
	_ = json.NewEncoder(w).Encode(body{
		Code:      e.Code,
		Message:   e.Message,
		Detail:    e.Detail,
		RequestID: h.Get(HeaderRequestID),
	})
}
