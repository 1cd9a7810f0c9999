package store

import "errors"

// Errores comunes del store.
var (
	// ErrStoreUnavailable indica que el store de una clave no pudo abrirse
	// (código de tenant desconocido, driver no registrado, storage inalcanzable).
	// Es fatal para la operación en curso; esta capa no reintenta.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound indica que el registro no existe en el store consultado.
	ErrNotFound = errors.New("store: record not found")

	// ErrInvalidRecord indica un registro sin tipo o sin ID.
	ErrInvalidRecord = errors.New("store: invalid record")

	// ErrClosed indica una operación sobre un handle ya cerrado.
	ErrClosed = errors.New("store: handle closed")
)

// IsStoreUnavailable helper para verificar si el store no pudo abrirse.
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }

// IsNotFound helper para verificar si el registro no existe.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
