package store

import (
	"context"

	"github.com/dropDatabas3/clinicore/internal/placement"
)

// SharedKey es la clave del store compartido (control plane) en el Registry.
const SharedKey = "shared"

// Handle es una conexión abierta a un store (compartido o de un tenant).
// Vive lo que vive el proceso y se reutiliza entre requests: las implementaciones
// deben ser seguras para uso concurrente.
type Handle interface {
	// Key retorna "shared" o el código del tenant.
	Key() string

	// Driver retorna el nombre del adapter ("memory", "bolt", "postgres").
	Driver() string

	// Get retorna ErrNotFound si el registro no existe.
	Get(ctx context.Context, entity placement.EntityType, id string) (*Record, error)

	// Put crea o reemplaza el registro.
	Put(ctx context.Context, rec Record) error

	// Delete retorna ErrNotFound si el registro no existe.
	Delete(ctx context.Context, entity placement.EntityType, id string) error

	// List retorna los registros del tipo que cumplen pred (nil => todos).
	List(ctx context.Context, entity placement.EntityType, pred Predicate) ([]Record, error)

	Ping(ctx context.Context) error
	Close() error
}

// Reopener lo implementan handles cuyo contenido vive en el propio handle (memory).
// El Registry los conserva al cerrarlos y el próximo Get los reabre en lugar de
// conectar uno vacío.
type Reopener interface {
	Reopen() error
}
