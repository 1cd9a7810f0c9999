package dataaccess

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
	"github.com/dropDatabas3/clinicore/internal/xref"
)

// Entity lo implementan los structs de dominio persistibles.
type Entity interface {
	EntityType() placement.EntityType
}

// Referencer entidades con referencias blandas a datos compartidos.
type Referencer interface {
	References() []xref.Ref
}

// Campos del struct que viven en el Record y no en Data.
const (
	fieldID        = "id"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// QueryAs es Query tipado.
func QueryAs[T Entity](ctx context.Context, a *Access, pred store.Predicate) ([]T, error) {
	var zero T
	recs, err := a.Query(ctx, zero.EntityType(), pred)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := FromRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetAs es GetOrNone tipado. El bool es false si no existe (o no hay tenant).
func GetAs[T Entity](ctx context.Context, a *Access, id string) (T, bool, error) {
	var zero T
	rec, err := a.GetOrNone(ctx, zero.EntityType(), id)
	if err != nil || rec == nil {
		return zero, false, err
	}
	v, err := FromRecord[T](*rec)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// SaveAs guarda la entidad validando sus referencias (si implementa Referencer)
// más las extra, y retorna la entidad con ID y timestamps asignados.
func SaveAs[T Entity](ctx context.Context, a *Access, v T, extra ...xref.Ref) (T, error) {
	var zero T
	rec, err := ToRecord(v)
	if err != nil {
		return zero, err
	}
	refs := extra
	if r, ok := any(v).(Referencer); ok {
		refs = append(r.References(), extra...)
	}
	saved, err := a.Save(ctx, rec, refs...)
	if err != nil {
		return zero, err
	}
	return FromRecord[T](saved)
}

// ToRecord convierte la entidad a Record vía JSON.
func ToRecord(v Entity) (store.Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return store.Record{}, fmt.Errorf("dataaccess: encode %s: %w", v.EntityType(), err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return store.Record{}, fmt.Errorf("dataaccess: encode %s: %w", v.EntityType(), err)
	}

	rec := store.Record{Entity: v.EntityType()}
	rec.ID, _ = data[fieldID].(string)
	rec.CreatedAt = parseTime(data[fieldCreatedAt])
	rec.UpdatedAt = parseTime(data[fieldUpdatedAt])
	delete(data, fieldID)
	delete(data, fieldCreatedAt)
	delete(data, fieldUpdatedAt)
	rec.Data = data
	return rec, nil
}

// FromRecord convierte el Record a la entidad vía JSON.
func FromRecord[T Entity](rec store.Record) (T, error) {
	var v T
	data := make(map[string]any, len(rec.Data)+3)
	for k, val := range rec.Data {
		data[k] = val
	}
	data[fieldID] = rec.ID
	data[fieldCreatedAt] = rec.CreatedAt
	data[fieldUpdatedAt] = rec.UpdatedAt

	b, err := json.Marshal(data)
	if err != nil {
		return v, fmt.Errorf("dataaccess: decode %s/%s: %w", rec.Entity, rec.ID, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("dataaccess: decode %s/%s: %w", rec.Entity, rec.ID, err)
	}
	return v, nil
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || t.IsZero() {
		return time.Time{}
	}
	return t
}
