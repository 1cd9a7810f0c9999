package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/clinicore/internal/placement"
)

// Record es la unidad de persistencia de todos los adapters.
// Data se serializa como JSON, por lo que los números vuelven como float64.
type Record struct {
	Entity    placement.EntityType `json:"entity"`
	ID        string               `json:"id"`
	Data      map[string]any       `json:"data"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Predicate filtra registros en List.
type Predicate func(Record) bool

// All acepta cualquier registro.
func All(Record) bool { return true }

// FieldEquals filtra por igualdad de un campo string en Data.
func FieldEquals(field, value string) Predicate {
	return func(r Record) bool { return r.String(field) == value }
}

// String retorna el campo como string ("" si no existe o no es string).
func (r Record) String(field string) string {
	if r.Data == nil {
		return ""
	}
	s, _ := r.Data[field].(string)
	return s
}

// Validate verifica que el registro tenga tipo e ID.
func (r Record) Validate() error {
	if strings.TrimSpace(string(r.Entity)) == "" || strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: entity and id are required", ErrInvalidRecord)
	}
	return nil
}

// Encode serializa el registro completo.
func Encode(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// Decode deserializa un registro serializado con Encode.
func Decode(b []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("store: decode record: %w", err)
	}
	return r, nil
}

// Clone copia el registro pasando por JSON para no compartir mapas entre llamadores.
func Clone(r Record) (Record, error) {
	b, err := Encode(r)
	if err != nil {
		return Record{}, err
	}
	return Decode(b)
}
