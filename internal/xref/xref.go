// Package xref resuelve referencias blandas desde registros de un tenant hacia
// entidades del store compartido (hospital, cuenta, configuración del sistema).
//
// Las referencias se guardan como IDs planos: no hay FK entre stores, por lo que
// una referencia puede quedar colgando y quien la consume debe tolerarlo.
package xref

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/clinicore/internal/metrics"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
)

var (
	// ErrDanglingReference la entidad compartida referenciada no existe.
	ErrDanglingReference = errors.New("dangling shared reference")

	// ErrNotSharedEntity el destino de una referencia cruzada debe ser Shared.
	ErrNotSharedEntity = errors.New("reference target is not a shared entity")
)

// IsDangling helper para errors.Is.
func IsDangling(err error) bool { return errors.Is(err, ErrDanglingReference) }

// DefaultFallback texto a mostrar cuando la referencia no resuelve.
const DefaultFallback = "Unknown"

// Ref es una referencia blanda a una entidad compartida.
type Ref struct {
	Entity placement.EntityType
	ID     string
}

func (r Ref) String() string { return string(r.Entity) + "/" + r.ID }

// SharedStore abstrae el acceso al store compartido.
type SharedStore interface {
	Shared(ctx context.Context) (store.Handle, error)
}

// Resolver busca referencias siempre en el store compartido, sin mirar el tenant del contexto.
type Resolver struct {
	shared SharedStore
}

// New crea un Resolver.
func New(shared SharedStore) *Resolver {
	return &Resolver{shared: shared}
}

// Resolve retorna el registro compartido referenciado.
// Si no existe retorna un error que envuelve ErrDanglingReference y store.ErrNotFound;
// nunca un registro vacío.
func (r *Resolver) Resolve(ctx context.Context, entity placement.EntityType, id string) (*store.Record, error) {
	if !placement.IsShared(entity) {
		return nil, fmt.Errorf("%w: %s", ErrNotSharedEntity, entity)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: %s: empty id: %w", ErrDanglingReference, entity, store.ErrNotFound)
	}

	h, err := r.shared.Shared(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := h.Get(ctx, entity, id)
	if err != nil {
		if store.IsNotFound(err) {
			metrics.DanglingReferences.WithLabelValues(string(entity)).Inc()
			return nil, fmt.Errorf("%w: %s/%s: %w", ErrDanglingReference, entity, id, err)
		}
		return nil, err
	}
	return rec, nil
}

// DisplayName resuelve la referencia y retorna su campo "name".
// Si la referencia cuelga (o el registro no tiene nombre) retorna fallback y loguea un warning;
// la operación del llamador sigue.
func (r *Resolver) DisplayName(ctx context.Context, entity placement.EntityType, id, fallback string) string {
	if fallback == "" {
		fallback = DefaultFallback
	}
	rec, err := r.Resolve(ctx, entity, id)
	if err != nil {
		logger.From(ctx).Warn("shared reference not resolved",
			logger.Entity(string(entity)),
			logger.ID(id),
			logger.Err(err),
		)
		return fallback
	}
	if name := rec.String("name"); name != "" {
		return name
	}
	return fallback
}

// Validate verifica que todas las referencias existan. Se usa al escribir.
// Retorna el primer error encontrado.
func (r *Resolver) Validate(ctx context.Context, refs ...Ref) error {
	for _, ref := range refs {
		if _, err := r.Resolve(ctx, ref.Entity, ref.ID); err != nil {
			return err
		}
	}
	return nil
}
