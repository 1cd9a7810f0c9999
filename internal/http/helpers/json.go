package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/clinicore/internal/http/errors"
)

const maxJSONBody = 64 << 10 // 64KB

// ReadJSON decodifica el body estricto (sin campos desconocidos ni datos extra).
// Si falla escribe la respuesta de error y retorna false.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if ct != "" && !strings.Contains(ct, "application/json") {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithDetail("se requiere Content-Type: application/json"))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		msg := "json inválido"
		if errors.Is(err, io.EOF) {
			msg = "body vacío"
		}
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithDetail(msg))
		return false
	}
	if dec.More() {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithDetail("sobran datos en el body"))
		return false
	}
	return true
}

// WriteJSON escribe v con el status indicado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
